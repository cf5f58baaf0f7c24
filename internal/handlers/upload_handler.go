package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"

	"csvinsight/internal/analysis"
	"csvinsight/internal/metrics"
	"csvinsight/internal/middleware"
	"csvinsight/internal/models"
	"csvinsight/internal/services"
	"csvinsight/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// User-facing notices of the upload page.
const (
	MsgNoFileUploaded  = "No file uploaded."
	MsgNoFileSelected  = "No file selected."
	MsgOnlyCSV         = "Only CSV files are allowed."
	MsgParseErrorFmt   = "Error parsing CSV: %v"
	RequestIDLocalsKey = "requestid"
)

// UploadHandler handles CSV uploads and shows their analysis.
type UploadHandler struct {
	uploads  *services.UploadService
	analyzer *services.AnalysisService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploads *services.UploadService, analyzer *services.AnalysisService) *UploadHandler {
	return &UploadHandler{uploads: uploads, analyzer: analyzer}
}

// RegisterRoutes registers the upload routes behind the given guards.
func (h *UploadHandler) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	uploadRoutes := router.Group("/upload", guards...)
	uploadRoutes.Get("/", h.ShowUpload)
	uploadRoutes.Post("/", h.HandleUpload)
}

// ShowUpload renders the upload form.
func (h *UploadHandler) ShowUpload(c *fiber.Ctx) error {
	return render(c, "upload", fiber.Map{"Title": "Upload"})
}

// HandleUpload stores the submitted file, analyzes it and renders the result.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	log := logger.Get()

	file, err := formFile(c, "file")
	if err != nil {
		return h.reject(c, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	path, err := h.uploads.Ingest(file.Filename, src)
	if err != nil {
		if _, _, known := rejection(err); known {
			return h.reject(c, err)
		}
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("file", file.Filename).Msg("error storing upload")
		return err
	}

	user := middleware.CurrentUser(c)
	result, err := h.analyzer.Analyze(c.UserContext(), requestID(c), user, path)
	if err != nil {
		if _, _, known := rejection(err); known {
			log.Warn().Err(err).Str("file", path).Str("user", user).Msg("csv parse failed")
			return h.reject(c, err)
		}
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	return render(c, "result", fiber.Map{
		"Title":  result.Filename,
		"Result": result,
	})
}

// formFile returns the uploaded file of field. A file input submitted
// without a selection arrives as a part with an empty filename, which the
// multipart reader stores as a plain value.
func formFile(c *fiber.Ctx, field string) (*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.ErrNoFileProvided
	}
	if files := form.File[field]; len(files) > 0 {
		if files[0].Filename == "" {
			return nil, models.ErrNoFileSelected
		}
		return files[0], nil
	}
	if _, ok := form.Value[field]; ok {
		return nil, models.ErrNoFileSelected
	}
	return nil, models.ErrNoFileProvided
}

// reject flashes the notice for a refused upload and sends the user back to
// the form.
func (h *UploadHandler) reject(c *fiber.Ctx, err error) error {
	result, message, _ := rejection(err)
	metrics.UploadsTotal.WithLabelValues(result).Inc()
	return redirectWithFlash(c, "/upload", message)
}

// rejection maps an upload error to its metric label and notice.
func rejection(err error) (result, message string, known bool) {
	var parseErr *analysis.ParseError
	switch {
	case errors.Is(err, models.ErrNoFileSelected):
		return "no_file", MsgNoFileSelected, true
	case errors.Is(err, models.ErrNoFileProvided):
		return "no_file", MsgNoFileUploaded, true
	case errors.Is(err, models.ErrUnsupportedFormat):
		return "unsupported_format", MsgOnlyCSV, true
	case errors.As(err, &parseErr):
		return "parse_error", fmt.Sprintf(MsgParseErrorFmt, parseErr), true
	default:
		return "error", MsgUnexpectedError, false
	}
}

// requestID returns the id assigned by the requestid middleware, or a fresh
// one when the middleware is not installed.
func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(RequestIDLocalsKey).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
