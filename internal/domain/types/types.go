// Package types contains common types used across the application
package types

// Row represents a leaderboard row
type Row struct {
	Rank     int     `json:"rank"`
	Member   string  `json:"member"`
	Score    float64 `json:"score"`
	Sessions int     `json:"number_sessions"`
	Rating   float64 `json:"rating"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma"`
}

// MemberRating is the rating belief of a single member as exposed to readers.
type MemberRating struct {
	Member  string  `json:"member"`
	Mu      float64 `json:"mu"`
	Sigma   float64 `json:"sigma"`
	Exposed float64 `json:"exposed"`
}
