package mapper

import (
	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.UploadedDocument) *entity.UploadedDocument {
	if d == nil {
		return nil
	}
	return &entity.UploadedDocument{
		Id:          d.Id,
		Name:        d.Name,
		Type:        d.Type,
		Size:        d.Size,
		TextContent: d.TextContent,
		Summary:     d.Summary,
		Url:         d.Url,
		Timestamp:   d.Timestamp,
	}
}

func (m *DocumentMapper) ToModel(d *entity.UploadedDocument) *model.UploadedDocument {
	if d == nil {
		return nil
	}
	return &model.UploadedDocument{
		Id:          d.Id,
		Name:        d.Name,
		Type:        d.Type,
		Size:        d.Size,
		TextContent: d.TextContent,
		Summary:     d.Summary,
		Url:         d.Url,
		Timestamp:   d.Timestamp,
	}
}
