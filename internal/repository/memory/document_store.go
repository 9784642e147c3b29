package memory

import (
	"context"
	"time"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// DocumentStore keeps uploads in memory when no database is configured.
type DocumentStore struct {
	cache *cache.Cache
}

var _ contract.DocumentStore = (*DocumentStore)(nil)

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{cache: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (s *DocumentStore) Save(ctx context.Context, doc *entity.UploadedDocument) error {
	d := *doc
	s.cache.Set(doc.Id, &d, cache.NoExpiration)
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*entity.UploadedDocument, error) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, nil
	}
	d := *x.(*entity.UploadedDocument)
	return &d, nil
}
