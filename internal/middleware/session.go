package middleware

import (
	"errors"
	"time"

	"csvinsight/internal/models"
	"csvinsight/internal/services"
	"csvinsight/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

const sessionLocal = "session"

// LoginRequiredMessage is flashed when an anonymous user hits a protected page.
const LoginRequiredMessage = "You must log in to upload a file."

// LoadSession attaches the session of a valid session cookie to the request.
// Invalid or revoked cookies are cleared.
func LoadSession(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := loadSession(c, authService); err != nil {
			return err
		}
		return c.Next()
	}
}

// SessionRequired redirects anonymous requests to the login page.
func SessionRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := loadSession(c, authService)
		if err != nil {
			return err
		}
		if session == nil {
			SetFlash(c, LoginRequiredMessage)
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

// CurrentSession returns the session attached by LoadSession or
// SessionRequired, or nil for anonymous requests.
func CurrentSession(c *fiber.Ctx) *models.Session {
	session, _ := c.Locals(sessionLocal).(*models.Session)
	return session
}

// CurrentUser returns the email of the logged-in user, or "".
func CurrentUser(c *fiber.Ctx) string {
	if session := CurrentSession(c); session != nil {
		return session.Email
	}
	return ""
}

// SetSessionCookie stores token in the session cookie until expiresAt.
func SetSessionCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie and detaches the session.
func ClearSessionCookie(c *fiber.Ctx) {
	c.ClearCookie(SessionCookie)
	c.Locals(sessionLocal, nil)
}

func loadSession(c *fiber.Ctx, authService *services.AuthService) (*models.Session, error) {
	if session := CurrentSession(c); session != nil {
		return session, nil
	}

	token := c.Cookies(SessionCookie)
	if token == "" {
		return nil, nil
	}

	session, err := authService.ValidateSession(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, models.ErrInvalidSession) {
			log := logger.Get()
			log.Debug().Err(err).Str("path", c.Path()).Msg("discarding session cookie")
			c.ClearCookie(SessionCookie)
			return nil, nil
		}
		return nil, err
	}

	c.Locals(sessionLocal, session)
	return session, nil
}
