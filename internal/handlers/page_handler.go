package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// PageHandler serves the static pages.
type PageHandler struct{}

// NewPageHandler creates a new PageHandler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// RegisterRoutes registers the page routes with the Fiber app.
func (h *PageHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.Index)
}

// Index renders the landing page.
func (h *PageHandler) Index(c *fiber.Ctx) error {
	return render(c, "index", fiber.Map{"Title": "Home"})
}
