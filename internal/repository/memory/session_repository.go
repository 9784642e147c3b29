package memory

import (
	"context"
	"sort"
	"time"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// SessionCache keeps chat sessions in process memory. Values are cloned on
// the way in and out so callers never share message slices.
type SessionCache struct {
	cache *cache.Cache
}

var _ contract.SessionCache = (*SessionCache)(nil)

func NewSessionCache() *SessionCache {
	return &SessionCache{
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func (r *SessionCache) Save(ctx context.Context, session *entity.ChatSession) error {
	r.cache.Set(session.Id, session.Clone(), cache.NoExpiration)
	return nil
}

func (r *SessionCache) Get(ctx context.Context, id string) (*entity.ChatSession, error) {
	if x, found := r.cache.Get(id); found {
		return x.(*entity.ChatSession).Clone(), nil
	}
	return nil, nil
}

func (r *SessionCache) Delete(ctx context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

// All returns every cached session, most recently updated first.
func (r *SessionCache) All(ctx context.Context) ([]*entity.ChatSession, error) {
	items := r.cache.Items()
	out := make([]*entity.ChatSession, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*entity.ChatSession).Clone())
	}
	SortByRecent(out)
	return out, nil
}

// SortByRecent orders sessions by UpdatedAt descending, then by id.
func SortByRecent(sessions []*entity.ChatSession) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].UpdatedAt != sessions[j].UpdatedAt {
			return sessions[i].UpdatedAt > sessions[j].UpdatedAt
		}
		return sessions[i].Id < sessions[j].Id
	})
}
