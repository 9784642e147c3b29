package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/internal/repository/contract"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	MaxDocumentSize   = 10 << 20
	documentSummaryLn = 200
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentTooLarge = errors.New("document exceeds the upload size limit")
	ErrEmptyDocument    = errors.New("document is empty")
)

type IDocumentService interface {
	Upload(ctx context.Context, name string, data []byte) (*entity.UploadedDocument, error)
	GetDocument(ctx context.Context, id string) (*entity.UploadedDocument, error)
}

type documentService struct {
	store  contract.DocumentStore
	logger logger.ILogger
}

func NewDocumentService(store contract.DocumentStore, log logger.ILogger) IDocumentService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &documentService{store: store, logger: log}
}

// Upload stores a document and extracts its text when the content is textual.
// Binary documents keep only their metadata and a generated summary.
func (s *documentService) Upload(ctx context.Context, name string, data []byte) (*entity.UploadedDocument, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	if len(data) > MaxDocumentSize {
		return nil, ErrDocumentTooLarge
	}

	mtype := mimetype.Detect(data)
	doc := &entity.UploadedDocument{
		Id:        uuid.NewString(),
		Name:      filepath.Base(name),
		Type:      mtype.String(),
		Size:      int64(len(data)),
		Timestamp: time.Now().UnixMilli(),
	}

	if isText(mtype) && utf8.Valid(data) {
		doc.TextContent = strings.TrimSpace(string(data))
		doc.Summary = summarize(doc.TextContent)
	} else {
		doc.Summary = fmt.Sprintf("%s (%s, %d bytes)", doc.Name, mtype.Extension(), doc.Size)
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	s.logger.Info("DocumentService", "Document uploaded", map[string]interface{}{
		"document_id": doc.Id,
		"type":        doc.Type,
		"size":        doc.Size,
		"has_text":    doc.TextContent != "",
	})
	return doc, nil
}

func (s *documentService) GetDocument(ctx context.Context, id string) (*entity.UploadedDocument, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func summarize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= documentSummaryLn {
		return text
	}
	cut := string(runes[:documentSummaryLn])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
