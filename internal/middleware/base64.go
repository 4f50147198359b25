package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/porty/backend/pkg/logger"
	"github.com/porty/backend/pkg/utils"
)

// File content must travel through the multipart upload endpoints only.
// Inline data-URI payloads in JSON bodies are rejected outright, as are bare
// base64 runs long enough to be smuggled file content.
var (
	dataURIPattern    = regexp.MustCompile(`(?i)data:(?:image|video|application)/[a-zA-Z0-9.+-]+;base64,`)
	longBase64Pattern = regexp.MustCompile(`[A-Za-z0-9+/]{1000,}={0,2}`)
)

func RejectBase64(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Next()
	}

	contentType := c.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") && contentType != "" {
		return c.Next()
	}

	if dataURIPattern.Match(body) || longBase64Pattern.Match(body) {
		logger.Warn("base64_payload_rejected", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
			"size": len(body),
		})
		return utils.Error(c, fiber.StatusBadRequest, "base64 encoded data is not allowed, use multipart/form-data for file uploads")
	}

	return c.Next()
}
