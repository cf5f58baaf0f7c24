package handlers

import (
	"errors"

	"csvinsight/internal/metrics"
	"csvinsight/internal/middleware"
	"csvinsight/internal/models"
	"csvinsight/internal/services"
	"csvinsight/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// User-facing notices of the authentication pages.
const (
	MsgRegistered      = "Registration complete! Please log in."
	MsgLoggedIn        = "Logged in!"
	MsgLoggedOut       = "Logged out."
	MsgWeakPassword    = "Password must be at least 6 characters."
	MsgDuplicateEmail  = "Email already registered!"
	MsgUserNotFound    = "User not found. Please register first!"
	MsgWrongPassword   = "Wrong password!"
	MsgUnexpectedError = "Something went wrong, please try again."
)

// CredentialsForm is the body of the register and login forms.
type CredentialsForm struct {
	Email    string `form:"email" validate:"required,email,max=255"`
	Password string `form:"password" validate:"max=72"`
}

// AuthHandler handles HTTP requests for registration, login and logout.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/register", h.ShowRegister)
	router.Post("/register", h.HandleRegister)
	router.Get("/login", h.ShowLogin)
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", h.HandleLogout)
}

// ShowRegister renders the empty registration form.
func (h *AuthHandler) ShowRegister(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{"Title": "Register", "Email": ""})
}

// HandleRegister creates a user and sends them to the login page.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	form, err := h.parseForm(c)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return h.registerError(c, form.Email, validationMessage(err))
	}

	log := logger.Get()
	if _, err := h.authService.Register(c.UserContext(), form.Email, form.Password); err != nil {
		switch {
		case errors.Is(err, models.ErrWeakPassword):
			metrics.RegistrationsTotal.WithLabelValues("weak_password").Inc()
			return h.registerError(c, form.Email, MsgWeakPassword)
		case errors.Is(err, models.ErrDuplicateEmail):
			metrics.RegistrationsTotal.WithLabelValues("duplicate_email").Inc()
			return h.registerError(c, form.Email, MsgDuplicateEmail)
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
			log.Error().Err(err).Str("email", form.Email).Msg("error registering user")
			return err
		}
	}

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	log.Info().Str("email", form.Email).Msg("user registered")
	return redirectWithFlash(c, "/login", MsgRegistered)
}

// ShowLogin renders the empty login form.
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Title": "Log in", "Email": ""})
}

// HandleLogin verifies the credentials and opens a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	form, err := h.parseForm(c)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return h.loginError(c, form.Email, validationMessage(err))
	}

	log := logger.Get()
	user, err := h.authService.Verify(c.UserContext(), form.Email, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound):
			metrics.LoginsTotal.WithLabelValues("user_not_found").Inc()
			return h.loginError(c, form.Email, MsgUserNotFound)
		case errors.Is(err, models.ErrWrongPassword):
			metrics.LoginsTotal.WithLabelValues("wrong_password").Inc()
			log.Warn().Str("email", form.Email).Msg("wrong password")
			return h.loginError(c, form.Email, MsgWrongPassword)
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			log.Error().Err(err).Str("email", form.Email).Msg("error during login")
			return err
		}
	}

	token, session, err := h.authService.IssueSession(user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}
	middleware.SetSessionCookie(c, token, session.ExpiresAt)

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	log.Info().Str("email", user.Email).Str("session_id", session.ID).Msg("user logged in")
	return redirectWithFlash(c, "/", MsgLoggedIn)
}

// HandleLogout revokes the session and clears its cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if token := c.Cookies(middleware.SessionCookie); token != "" {
		if err := h.authService.RevokeSession(c.UserContext(), token); err != nil {
			log := logger.Get()
			log.Error().Err(err).Msg("error revoking session")
			return err
		}
	}
	middleware.ClearSessionCookie(c)
	return redirectWithFlash(c, "/login", MsgLoggedOut)
}

// parseForm binds and validates the credentials form. The returned form
// carries the normalized email even when validation fails.
func (h *AuthHandler) parseForm(c *fiber.Ctx) (CredentialsForm, error) {
	var form CredentialsForm
	if err := c.BodyParser(&form); err != nil {
		return form, err
	}
	form.Email = services.NormalizeEmail(form.Email)
	return form, h.validate.Struct(form)
}

func (h *AuthHandler) registerError(c *fiber.Ctx, email, message string) error {
	return render(c.Status(fiber.StatusUnprocessableEntity), "register", fiber.Map{
		"Title": "Register",
		"Email": email,
		"Error": message,
	})
}

func (h *AuthHandler) loginError(c *fiber.Ctx, email, message string) error {
	return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{
		"Title": "Log in",
		"Email": email,
		"Error": message,
	})
}
