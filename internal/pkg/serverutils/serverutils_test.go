package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Title  string `validate:"required,min=3"`
	Status string `validate:"omitempty,oneof=draft published"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    sampleRequest
		fields []string
	}{
		{"valid", sampleRequest{Title: "Hello"}, nil},
		{"missing title", sampleRequest{}, []string{"title"}},
		{"short title and bad status", sampleRequest{Title: "ab", Status: "x"}, []string{"title", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Len(t, verr.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

var errTeapot = errors.New("teapot")

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(func(err error) (int, bool) {
		if errors.Is(err, errTeapot) {
			return fiber.StatusTeapot, true
		}
		return 0, false
	}))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.JSON(SuccessResponse("fine", 1)) })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "nope") })
	app.Get("/validation", func(c *fiber.Ctx) error { return ValidateRequest(sampleRequest{}) })
	app.Get("/mapped", func(c *fiber.Ctx) error { return errTeapot })
	app.Get("/unknown", func(c *fiber.Ctx) error { return errors.New("boom") })

	tests := []struct {
		path    string
		code    int
		success bool
	}{
		{"/ok", 200, true},
		{"/fiber", 404, false},
		{"/validation", 400, false},
		{"/mapped", 418, false},
		{"/unknown", 500, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var env Response[json.RawMessage]
			require.NoError(t, json.Unmarshal(body, &env))
			assert.Equal(t, tt.success, env.Success)
		})
	}
}

func TestJwtMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	app := fiber.New()
	app.Get("/me", JwtMiddleware, func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u-1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u-1"}).SignedString([]byte("other"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + signed, 200},
		{"missing", "", 401},
		{"wrong key", "Bearer " + forged, 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}
