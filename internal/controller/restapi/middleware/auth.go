package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/andreyxaxa/Frame-Ingest/internal/controller/restapi/api/response"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

// Auth accepts requests whose Authorization header carries the shared secret,
// either bare or as a Bearer token. The secret is looked up on every request,
// so rotation needs no restart. An empty secret denies everything.
func Auth(secrets infrastructure.SecretProvider, l logger.Interface) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token := extractToken(ctx.Get(fiber.HeaderAuthorization))
		if token == "" {
			return unauthorized(ctx)
		}

		secret, err := secrets.Secret(ctx.UserContext())
		if err != nil {
			l.Error(err, "restapi - middleware - Auth - secrets.Secret")

			return ctx.Status(http.StatusInternalServerError).JSON(response.Error{Success: false, Error: "auth unavailable"})
		}

		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return unauthorized(ctx)
		}

		return ctx.Next()
	}
}

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusUnauthorized).JSON(response.Failure{Error: "Unauthorized"})
}

func extractToken(header string) string {
	header = strings.TrimSpace(header)

	parts := strings.SplitN(header, " ", 2)
	if strings.EqualFold(parts[0], "Bearer") {
		if len(parts) == 1 {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}

	return header
}
