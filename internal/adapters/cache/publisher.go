// Package cache mirrors the computed leaderboard into Redis so other
// processes can read it without replaying the history.
//
// Layout under a key prefix K:
//
//	K          sorted set, member -> total score
//	K:rows     hash, member -> JSON leaderboard row
//	K:updated  RFC 3339 timestamp of the last publish
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/boared/internal/domain/types"
)

// DefaultKey is the key prefix used when none is configured.
const DefaultKey = "boared:leaderboard"

// Publisher writes leaderboard snapshots to Redis.
type Publisher struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// New connects to the Redis server at url (redis://host:port/db).
func New(url, key string) (*Publisher, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return NewWithClient(redis.NewClient(opt), key), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, key string) *Publisher {
	if key == "" {
		key = DefaultKey
	}
	return &Publisher{client: client, key: key, now: time.Now}
}

func (p *Publisher) rowsKey() string    { return p.key + ":rows" }
func (p *Publisher) updatedKey() string { return p.key + ":updated" }

// Publish atomically replaces the cached leaderboard with rows.
func (p *Publisher) Publish(ctx context.Context, rows []types.Row) error {
	members := make([]redis.Z, 0, len(rows))
	fields := make(map[string]any, len(rows))
	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal row %s: %w", r.Member, err)
		}
		members = append(members, redis.Z{Score: r.Score, Member: r.Member})
		fields[r.Member] = data
	}

	// Rebuild from scratch; partial updates would leave removed members behind.
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, p.key, p.rowsKey())
	if len(members) > 0 {
		pipe.ZAdd(ctx, p.key, members...)
		pipe.HSet(ctx, p.rowsKey(), fields)
	}
	pipe.Set(ctx, p.updatedKey(), p.now().UTC().Format(time.RFC3339), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	return nil
}

// Top reads back up to n cached rows in leaderboard order. n <= 0 means all.
func (p *Publisher) Top(ctx context.Context, n int) ([]types.Row, error) {
	raw, err := p.client.HGetAll(ctx, p.rowsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("read cached rows: %w", err)
	}
	rows := make([]types.Row, 0, len(raw))
	for member, data := range raw {
		var r types.Row
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("decode cached row %s: %w", member, err)
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rank != rows[j].Rank {
			return rows[i].Rank < rows[j].Rank
		}
		return rows[i].Member < rows[j].Member
	})
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows, nil
}

// UpdatedAt returns the time of the last publish, or the zero time.
func (p *Publisher) UpdatedAt(ctx context.Context) (time.Time, error) {
	s, err := p.client.Get(ctx, p.updatedKey()).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, s)
}

// Close releases the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
