package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/repository/contract"
	"ai-devguide-be/internal/repository/memory"

	"github.com/redis/go-redis/v9"
)

const sessionsKey = "chat:sessions"

// SessionCache stores every session as a JSON field of one redis hash, so the
// local copy survives process restarts and is shared between instances.
type SessionCache struct {
	rdb *redis.Client
	key string
}

var _ contract.SessionCache = (*SessionCache)(nil)

func NewSessionCache(rdb *redis.Client) *SessionCache {
	return &SessionCache{rdb: rdb, key: sessionsKey}
}

func (c *SessionCache) Save(ctx context.Context, session *entity.ChatSession) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return c.rdb.HSet(ctx, c.key, session.Id, b).Err()
}

func (c *SessionCache) Get(ctx context.Context, id string) (*entity.ChatSession, error) {
	raw, err := c.rdb.HGet(ctx, c.key, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s entity.ChatSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &s, nil
}

func (c *SessionCache) Delete(ctx context.Context, id string) error {
	return c.rdb.HDel(ctx, c.key, id).Err()
}

// All skips entries that no longer decode.
func (c *SessionCache) All(ctx context.Context) ([]*entity.ChatSession, error) {
	values, err := c.rdb.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*entity.ChatSession, 0, len(values))
	for _, v := range values {
		var s entity.ChatSession
		if err := json.Unmarshal([]byte(v), &s); err != nil {
			continue
		}
		out = append(out, &s)
	}
	memory.SortByRecent(out)
	return out, nil
}
