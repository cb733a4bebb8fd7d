package rest

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobboard "github.com/jobhive/jobhive"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError},
		{"validation", goerrors.New("bad", goerrors.CategoryValidation), fiber.StatusBadRequest},
		{"bad input", goerrors.New("bad", goerrors.CategoryBadInput), fiber.StatusBadRequest},
		{"auth", goerrors.New("nope", goerrors.CategoryAuth), fiber.StatusUnauthorized},
		{"forbidden", jobboard.ErrForbidden, fiber.StatusForbidden},
		{"not found", goerrors.New("gone", goerrors.CategoryNotFound), fiber.StatusNotFound},
		{"conflict", jobboard.ErrDuplicateApplication, fiber.StatusConflict},
		{"rate limit", goerrors.New("slow down", goerrors.CategoryRateLimit), fiber.StatusTooManyRequests},
		{"internal", goerrors.New("oops", goerrors.CategoryInternal), fiber.StatusInternalServerError},
		{"stale credential", jobboard.ErrStaleCredential, fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, statusFor(tc.err))
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()

	var got string
	app.Get("/probe", func(c *fiber.Ctx) error {
		got = bearerToken(c)
		return c.SendStatus(fiber.StatusOK)
	})

	extract := func(header string) string {
		req := httptest.NewRequest(fiber.MethodGet, "/probe", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}

		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()

		return got
	}

	assert.Equal(t, "abc123", extract("Bearer abc123"))
	assert.Equal(t, "abc123", extract("bearer abc123"))
	assert.Equal(t, "", extract(""))
	assert.Equal(t, "", extract("Basic abc123"))
	assert.Equal(t, "", extract("Bearer"))
}
