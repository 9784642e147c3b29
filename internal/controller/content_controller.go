package controller

import (
	"ai-devguide-be/internal/dto"
	"ai-devguide-be/internal/pkg/serverutils"
	"ai-devguide-be/pkg/recommend"
	"ai-devguide-be/pkg/search"

	"github.com/gofiber/fiber/v2"
)

const defaultContentSearchLimit = 5

type IContentController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
}

type contentController struct {
	corpus   recommend.Corpus
	searcher *search.Searcher
}

func NewContentController(corpus recommend.Corpus, searcher *search.Searcher) IContentController {
	return &contentController{corpus: corpus, searcher: searcher}
}

func (c *contentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/content/v1")
	h.Get("search", c.Search)
}

func (c *contentController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchContentRequest
	if err := ctx.QueryParser(&req); err != nil {
		return serverutils.BadRequest("Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if req.Limit == 0 {
		req.Limit = defaultContentSearchLimit
	}

	res := c.searcher.Search(ctx.Context(), req.Query, c.corpus.Chunks(), req.Limit)
	return ctx.JSON(serverutils.SuccessResponse("Success search content", res))
}
