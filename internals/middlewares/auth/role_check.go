package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// RequireRolesGlobal: lolos jika salah satu role global user ada di
// daftar allowed. Dipasang SETELAH AuthJWT.
func RequireRolesGlobal(allowed ...string) fiber.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		for _, r := range rolesGlobal(c) {
			if _, ok := set[r]; ok {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Akses ditolak")
	}
}

// rolesGlobal menormalkan claim roles_global; bentuknya bisa
// []interface{} (hasil decode JWT) atau []string.
func rolesGlobal(c *fiber.Ctx) []string {
	switch v := c.Locals(LocRolesGlobal).(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, it := range v {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}
