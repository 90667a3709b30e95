// Package cache streams match actions to Redis so an external
// historian can rebuild any match move by move, and keeps a
// short-lived snapshot of every live match for reconnecting clients.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rdb is the shared Redis client. Nil until InitRedis succeeds; every
// helper is a no-op while it is nil so the server runs fine without
// Redis.
var Rdb *redis.Client

const snapshotTTL = 30 * time.Minute

// InitRedis connects the shared client.
func InitRedis(addr string, db int) error {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	Rdb = client
	logrus.WithField("addr", addr).Info("redis connected")
	return nil
}

// MatchActionRecord is one applied command in a match's history.
type MatchActionRecord struct {
	MatchID     string                 `json:"match_id"`
	ActionIndex int                    `json:"action_index"`
	Actor       string                 `json:"actor"` // identity, empty for lifecycle events
	ActionType  string                 `json:"action_type"`
	DealNonce   uint32                 `json:"deal_nonce"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   int64                  `json:"timestamp"`
}

// PublishMatchAction appends the record to the match's action list
// and announces it on the match channel.
func PublishMatchAction(ctx context.Context, rec MatchActionRecord) error {
	if Rdb == nil {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	key := "truco:actions:" + rec.MatchID
	if err := Rdb.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return Rdb.Publish(ctx, "truco:match:"+rec.MatchID, raw).Err()
}

// StoreSnapshot caches the latest caller-visible match state.
func StoreSnapshot(ctx context.Context, matchID string, snapshot interface{}) error {
	if Rdb == nil {
		return nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return Rdb.Set(ctx, "truco:snapshot:"+matchID, raw, snapshotTTL).Err()
}

// LoadSnapshot fetches the cached state into dst. Returns redis.Nil
// when no snapshot is cached.
func LoadSnapshot(ctx context.Context, matchID string, dst interface{}) error {
	if Rdb == nil {
		return redis.Nil
	}
	raw, err := Rdb.Get(ctx, "truco:snapshot:"+matchID).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
