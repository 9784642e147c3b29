package controller

import (
	"errors"
	"io"

	"ai-devguide-be/internal/dto"
	"ai-devguide-be/internal/pkg/serverutils"
	"ai-devguide-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IReportController interface {
	RegisterRoutes(r fiber.Router)
	UploadDocument(ctx *fiber.Ctx) error
	GetDocument(ctx *fiber.Ctx) error
	GenerateReport(ctx *fiber.Ctx) error
	CheckReport(ctx *fiber.Ctx) error
}

type reportController struct {
	reports   service.IReportService
	documents service.IDocumentService
}

func NewReportController(reports service.IReportService, documents service.IDocumentService) IReportController {
	return &reportController{reports: reports, documents: documents}
}

func (c *reportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/report-builder")
	h.Post("documents", c.UploadDocument)
	h.Get("documents/:id", c.GetDocument)
	h.Post("generate-report", c.GenerateReport)
	h.Get("check-report", c.CheckReport)
}

func reportError(err error) error {
	switch {
	case errors.Is(err, service.ErrReportNotFound), errors.Is(err, service.ErrDocumentNotFound):
		return serverutils.NotFound(err.Error())
	case errors.Is(err, service.ErrNoDocuments), errors.Is(err, service.ErrEmptyDocument):
		return serverutils.BadRequest(err.Error())
	case errors.Is(err, service.ErrDocumentTooLarge):
		return serverutils.NewAppError(fiber.StatusRequestEntityTooLarge, err.Error())
	}
	return err
}

func (c *reportController) UploadDocument(ctx *fiber.Ctx) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.BadRequest("Multipart field 'file' is required")
	}
	if fh.Size > service.MaxDocumentSize {
		return reportError(service.ErrDocumentTooLarge)
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	res, err := c.documents.Upload(ctx.Context(), fh.Filename, data)
	if err != nil {
		return reportError(err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *reportController) GetDocument(ctx *fiber.Ctx) error {
	res, err := c.documents.GetDocument(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return reportError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get document", res))
}

func (c *reportController) GenerateReport(ctx *fiber.Ctx) error {
	var req dto.GenerateReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	id, err := c.reports.GenerateReport(ctx.Context(), service.GenerateReportRequest{
		ReportId:       req.ReportId,
		ProjectContext: req.ProjectContext,
		Documents:      req.Documents,
	})
	if err != nil {
		return reportError(err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Report generation started", dto.GenerateReportResponse{ReportId: id}))
}

func (c *reportController) CheckReport(ctx *fiber.Ctx) error {
	id := ctx.Query("reportId")
	if id == "" {
		return serverutils.BadRequest("reportId is required")
	}

	res, err := c.reports.CheckReport(ctx.Context(), id)
	if err != nil {
		return reportError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success check report", res))
}
