package controller

import (
	"errors"

	"ai-devguide-be/internal/dto"
	"ai-devguide-be/internal/pkg/serverutils"
	"ai-devguide-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	SwitchSession(ctx *fiber.Ctx) error
	RenameSession(ctx *fiber.Ctx) error
	SetCategory(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	CurrentChunk(ctx *fiber.Ctx) error
	NextChunk(ctx *fiber.Ctx) error
	PreviousChunk(ctx *fiber.Ctx) error
	Recommendations(ctx *fiber.Ctx) error
	Topics(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1/sessions")
	h.Post("", c.CreateSession)
	h.Get("", c.ListSessions)
	h.Get(":id", c.GetSession)
	h.Put(":id/switch", c.SwitchSession)
	h.Put(":id/title", c.RenameSession)
	h.Put(":id/category", c.SetCategory)
	h.Delete(":id", c.DeleteSession)
	h.Post(":id/messages", c.SendMessage)
	h.Get(":id/chunk", c.CurrentChunk)
	h.Post(":id/chunk/next", c.NextChunk)
	h.Post(":id/chunk/previous", c.PreviousChunk)
	h.Get(":id/recommendations", c.Recommendations)
	h.Get(":id/topics", c.Topics)
}

// chatError maps service sentinels onto HTTP errors.
func chatError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return serverutils.NotFound(err.Error())
	case errors.Is(err, service.ErrEmptyMessage):
		return serverutils.BadRequest(err.Error())
	}
	return err
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateChatSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return serverutils.BadRequest("Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.Context(), service.CreateSessionOptions{
		Title:    req.Title,
		Category: req.Category,
		Topic:    req.Topic,
		Model:    req.Model,
	})
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create chat session", res))
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	sessions := c.service.ListSessions(ctx.Context())
	res := make([]dto.ChatSessionSummary, len(sessions))
	for i, s := range sessions {
		res[i] = dto.NewChatSessionSummary(s)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat sessions", res))
}

func (c *chatController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return chatError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat session", res))
}

func (c *chatController) SwitchSession(ctx *fiber.Ctx) error {
	res, err := c.service.SwitchSession(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return chatError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success switch chat session", res))
}

func (c *chatController) RenameSession(ctx *fiber.Ctx) error {
	var req dto.RenameChatSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RenameSession(ctx.Context(), ctx.Params("id"), req.Title)
	if err != nil {
		return chatError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success rename chat session", dto.NewChatSessionSummary(res)))
}

func (c *chatController) SetCategory(ctx *fiber.Ctx) error {
	var req dto.SetChatCategoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SetCategoryForSession(ctx.Context(), ctx.Params("id"), req.Category)
	if err != nil {
		return chatError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success set chat session category", dto.NewChatSessionSummary(res)))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	if err := c.service.DeleteSession(ctx.Context(), ctx.Params("id")); err != nil {
		return chatError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete chat session", nil))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendChatMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	id := ctx.Params("id")
	reply, err := c.service.SendMessage(ctx.Context(), id, req.Content, service.MessageContext{
		CurrentPage: req.CurrentPage,
		Model:       req.Model,
	})
	if err != nil {
		return chatError(err)
	}

	sess, err := c.service.GetSession(ctx.Context(), id)
	if err != nil {
		return chatError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat message", dto.SendChatMessageResponse{
		SessionId: sess.Id,
		Title:     sess.Title,
		Reply:     reply,
	}))
}

func (c *chatController) CurrentChunk(ctx *fiber.Ctx) error {
	res, err := c.service.GetCurrentChunk(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return chatError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chunk", res))
}

func (c *chatController) NextChunk(ctx *fiber.Ctx) error {
	res, err := c.service.NavigateToNextChunk(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return chatError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chunk", res))
}

func (c *chatController) PreviousChunk(ctx *fiber.Ctx) error {
	res, err := c.service.NavigateToPreviousChunk(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return chatError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chunk", res))
}

func (c *chatController) Recommendations(ctx *fiber.Ctx) error {
	res, err := c.service.GetRecommendations(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return chatError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get recommendations", res))
}

func (c *chatController) Topics(ctx *fiber.Ctx) error {
	res, err := c.service.GetTopics(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return chatError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get topics", res))
}
