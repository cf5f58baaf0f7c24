package handlers

import (
	"errors"
	"fmt"

	"csvinsight/internal/middleware"
	"csvinsight/internal/views"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// render writes page name inside the layout, adding the current user and any
// pending flash notice to data.
func render(c *fiber.Ctx, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["User"] = middleware.CurrentUser(c)
	data["Flash"] = middleware.PopFlash(c)
	return c.Render(name, data, views.Layout)
}

// redirectWithFlash queues message and redirects to location.
func redirectWithFlash(c *fiber.Ctx, location, message string) error {
	middleware.SetFlash(c, message)
	return c.Redirect(location)
}

// validationMessage turns the first failed validation rule into a sentence.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "Invalid form submission."
	}

	e := validationErrors[0]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", e.Field())
	case "email":
		return "Please enter a valid email address."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", e.Field(), e.Param())
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag.", e.Field(), e.Tag())
	}
}
