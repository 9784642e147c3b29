package store

import (
	"context"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/repository/contract"
	"ai-devguide-be/internal/repository/specification"
	"ai-devguide-be/internal/repository/unitofwork"
)

type GormDocumentStore struct {
	uowFactory unitofwork.RepositoryFactory
}

var _ contract.DocumentStore = (*GormDocumentStore)(nil)

func NewGormDocumentStore(uowFactory unitofwork.RepositoryFactory) *GormDocumentStore {
	return &GormDocumentStore{uowFactory: uowFactory}
}

func (s *GormDocumentStore) Save(ctx context.Context, doc *entity.UploadedDocument) error {
	return s.uowFactory.NewUnitOfWork(ctx).DocumentRepository().Create(ctx, doc)
}

func (s *GormDocumentStore) Get(ctx context.Context, id string) (*entity.UploadedDocument, error) {
	return s.uowFactory.NewUnitOfWork(ctx).DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
}
