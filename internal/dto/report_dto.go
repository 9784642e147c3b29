package dto

import "ai-devguide-be/internal/entity"

type GenerateReportRequest struct {
	Documents      []entity.UploadedDocument `json:"documents" validate:"required,min=1"`
	ReportId       string                    `json:"reportId" validate:"max=64"`
	ProjectContext string                    `json:"projectContext" validate:"max=4000"`
}

type GenerateReportResponse struct {
	ReportId string `json:"reportId"`
}
