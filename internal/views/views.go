// Package views holds the HTML pages of the application and the fiber view
// engine that renders them.
package views

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Layout is the template every page is wrapped in.
const Layout = "layout"

// New creates the html/template engine over the embedded pages.
func New() *html.Engine {
	pages, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(pages), ".html")
	engine.AddFunc("inc", func(i int) int { return i + 1 })
	return engine
}
