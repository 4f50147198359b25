package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/porty/backend/internal/tenant"
)

const tenantNameKey = "tenantName"

// Tenant extracts the candidate subdomain from the request host and attaches
// it for downstream handlers. Resolution to published data happens in the
// portfolio handler; this middleware only names the tenant.
func Tenant(baseDomain string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if name, ok := tenant.Resolve(c.Hostname(), baseDomain); ok {
			c.Locals(tenantNameKey, name)
		}
		return c.Next()
	}
}

// GetTenantName returns the candidate subdomain for the request host, if any.
func GetTenantName(c *fiber.Ctx) (string, bool) {
	name, ok := c.Locals(tenantNameKey).(string)
	return name, ok && name != ""
}
