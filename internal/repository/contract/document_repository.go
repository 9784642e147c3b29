package contract

import (
	"context"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/repository/specification"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.UploadedDocument) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UploadedDocument, error)
}
