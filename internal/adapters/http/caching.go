package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses the handler
// left alone. Trip data is edited through the admin endpoints, so it is
// only cached briefly; downstream-backed lookups a little longer.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if string(c.Response().Header.Peek(fiber.HeaderCacheControl)) != "" {
			return err
		}

		path := c.Path()
		var ttl string
		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"
		case path == "/metrics":
			ttl = "no-cache"
		case strings.HasSuffix(path, "/welcome"):
			ttl = "public, max-age=3600"
		case strings.HasPrefix(path, apiPrefix+"/routes/"),
			strings.HasPrefix(path, apiPrefix+"/train_types/"):
			ttl = "public, max-age=60"
		case strings.HasPrefix(path, apiPrefix+"/admin_trip"):
			ttl = "private, no-cache"
		case strings.HasPrefix(path, apiPrefix+"/trips"):
			ttl = "public, max-age=10"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}
