// Package seed generates synthetic session histories from hidden member
// skills, for demos and for checking that ratings recover those skills.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/boared/internal/adapters/history"
	"github.com/okian/boared/internal/domain/model"
	"github.com/okian/boared/pkg/logger"
)

// Constants for skill and score generation.
const (
	skillSpread  = 1.0
	pointsPerWin = 10.0
	pointsSpread = 3.0
)

var gameNames = []string{ //nolint:gochecknoglobals // catalogue
	"Catan", "Carcassonne", "Azul", "Ticket to Ride",
	"Wingspan", "Splendor", "Root", "Terraforming Mars",
}

// Result is a generated history plus the hidden skill of every member.
type Result struct {
	Document history.Document
	Skills   map[string]float64
	Stats    Stats
}

// Generate builds a history from cfg. Each session seats a random subset of
// members; a member's performance is their hidden skill plus Gaussian noise
// and places follow performance.
func Generate(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	rnd := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible, not security relevant

	logger.Get().Info(ctx, "generating synthetic history",
		logger.Int("members", cfg.Members),
		logger.Int("games", cfg.Games),
		logger.Int("sessions", cfg.Sessions),
	)

	out := Result{Skills: make(map[string]float64, cfg.Members)}
	members := make([]string, cfg.Members)
	joined := model.Day(cfg.Start).AddDate(0, 0, -1).Format(model.DateLayout)
	for i := range members {
		members[i] = fmt.Sprintf("member-%03d", i+1)
		out.Skills[members[i]] = rnd.NormFloat64() * skillSpread
		out.Document.Members = append(out.Document.Members, history.Member{Name: members[i], JoinDate: joined})
	}

	games := make([]history.Game, cfg.Games)
	for i := range games {
		name := gameNames[i%len(gameNames)]
		if i >= len(gameNames) {
			name = fmt.Sprintf("%s %d", name, i/len(gameNames)+1)
		}
		games[i] = history.Game{Name: name, Type: fmt.Sprintf("type-%02d", i+1)}
	}
	out.Document.Games = games

	for i := 0; i < cfg.Sessions; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("context cancelled during generation: %w", err)
		}
		sess, err := generateSession(rnd, cfg, i, members, out.Skills)
		if err != nil {
			return Result{}, err
		}
		sess.Game = games[i%len(games)].Name
		out.Document.Sessions = append(out.Document.Sessions, sess)
		out.Stats.Results += len(sess.Results)
	}

	out.Stats.Members = len(members)
	out.Stats.Games = len(games)
	out.Stats.Sessions = cfg.Sessions
	out.Stats.Duration = time.Since(start)
	logger.Get().Info(ctx, "generated history successfully",
		logger.Int("sessions", out.Stats.Sessions),
		logger.Int("results", out.Stats.Results),
		logger.Duration("took", out.Stats.Duration),
	)
	return out, nil
}

// generateSession creates session i. Game i%G is played on day i/G so that
// (game, date) stays unique.
func generateSession(rnd *rand.Rand, cfg Config, i int, members []string, skills map[string]float64) (history.Session, error) {
	id, err := uuid.NewRandomFromReader(rnd)
	if err != nil {
		return history.Session{}, fmt.Errorf("session id: %w", err)
	}
	date := model.Day(cfg.Start).AddDate(0, 0, i/cfg.Games)

	size := cfg.MinPlayers + rnd.Intn(cfg.MaxPlayers-cfg.MinPlayers+1)
	seats := rnd.Perm(len(members))[:size]

	type perf struct {
		member string
		value  float64
	}
	perfs := make([]perf, size)
	for j, idx := range seats {
		m := members[idx]
		perfs[j] = perf{member: m, value: skills[m] + rnd.NormFloat64()*cfg.Noise}
	}
	sort.Slice(perfs, func(a, b int) bool { return perfs[a].value > perfs[b].value })

	sess := history.Session{
		ID:   id.String(),
		Date: date.Format(model.DateLayout),
		Host: perfs[rnd.Intn(size)].member,
	}
	for j, p := range perfs {
		score := math.Max(0, math.Round(pointsPerWin*float64(size-j)+rnd.NormFloat64()*pointsSpread))
		sess.Results = append(sess.Results, history.Result{Member: p.member, Place: j + 1, Score: score})
	}
	return sess, nil
}
