package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Title string `json:"title" validate:"required,max=10"`
	Limit int    `json:"limit" validate:"gte=0,lte=20"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sampleRequest{Title: "ok", Limit: 3}))

	err := ValidateRequest(sampleRequest{Limit: 50})
	require.Error(t, err)

	status, body := StatusAndBody(err)
	assert.Equal(t, http.StatusBadRequest, status)
	details, ok := body.Errors.([]FieldError)
	require.True(t, ok)
	assert.Len(t, details, 2)
}

func TestStatusAndBody(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NotFound("missing"), http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("lookup: %w", BadRequest("bad")), http.StatusBadRequest},
		{"fiber error", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := StatusAndBody(tt.err)
			if status != tt.want || body.Code != tt.want || body.Success {
				t.Errorf("StatusAndBody(%v) = %d %+v, want %d", tt.err, status, body, tt.want)
			}
		})
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(c *fiber.Ctx) error { return NotFound("session not found") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.JSON(SuccessResponse("fine", 1)) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var body Response
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "session not found", body.Message)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
