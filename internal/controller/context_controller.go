package controller

import (
	"ai-devguide-be/pkg/contextproto"

	"github.com/gofiber/fiber/v2"
)

// IContextController exposes the context protocol. Its responses use the
// protocol's own kind-tagged envelope rather than the API envelope.
type IContextController interface {
	RegisterRoutes(r fiber.Router)
	Handle(ctx *fiber.Ctx) error
}

type contextController struct {
	dispatcher *contextproto.Dispatcher
}

func NewContextController(dispatcher *contextproto.Dispatcher) IContextController {
	return &contextController{dispatcher: dispatcher}
}

func (c *contextController) RegisterRoutes(r fiber.Router) {
	r.Post("/context/v1", c.Handle)
}

func (c *contextController) Handle(ctx *fiber.Ctx) error {
	out, err := c.dispatcher.HandleJSON(ctx.Context(), ctx.Body())
	if err != nil {
		return err
	}
	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Send(out)
}
