package handlers

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/porty/backend/internal/tenant"
	"gorm.io/gorm"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func getRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestID").(string); ok {
		return id
	}
	return ""
}

// validateSubdomain returns an empty string when name is an acceptable
// tenant subdomain, otherwise the reason it is not.
func validateSubdomain(name string) string {
	if len(name) < 3 {
		return "subdomain must be at least 3 characters"
	}
	if len(name) > 30 {
		return "subdomain cannot exceed 30 characters"
	}
	if !subdomainPattern.MatchString(name) {
		return "subdomain can only contain lowercase letters, numbers, and hyphens"
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return "subdomain cannot start or end with a hyphen"
	}
	if tenant.IsReserved(name) {
		return "this subdomain is reserved"
	}
	return ""
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func isGitHubURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "github.com" || strings.HasSuffix(host, ".github.com")
}

// isDuplicateErr covers both the postgres production database and the sqlite
// test database, whose unique-violation errors gorm does not always translate.
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// splitTags accepts the comma-separated form used by multipart uploads.
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func validateTags(tags []string) string {
	for _, tag := range tags {
		if len(tag) > 30 {
			return "each tag cannot exceed 30 characters"
		}
	}
	return ""
}
