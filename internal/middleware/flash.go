package middleware

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
)

// FlashCookie carries a one-shot notice across a redirect.
const FlashCookie = "flash"

// SetFlash queues message for the next rendered page.
func SetFlash(c *fiber.Ctx, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// PopFlash returns the pending notice, if any, and clears it.
func PopFlash(c *fiber.Ctx) string {
	raw := c.Cookies(FlashCookie)
	if raw == "" {
		return ""
	}
	c.ClearCookie(FlashCookie)

	message, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return ""
	}
	return string(message)
}
