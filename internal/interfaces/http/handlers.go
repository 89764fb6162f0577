package http

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/service"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/container"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/export"
	"github.com/dpsg-wuerzburg/bjr-exporter/pkg/utils"
)

// Content types of the export downloads
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	exportService service.ExportService
	health        HealthChecker
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(exportService service.ExportService, health HealthChecker, logger Logger) *Handlers {
	return &Handlers{
		exportService: exportService,
		health:        health,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                               `json:"status"`
	Timestamp  string                               `json:"timestamp"`
	Exporter   string                               `json:"exporter"`
	Components map[string]container.ComponentHealth `json:"components,omitempty"`
}

// ExportResponse describes a delivered export
type ExportResponse struct {
	FileName   string         `json:"file_name"`
	Path       string         `json:"path,omitempty"`
	Events     []string       `json:"events"`
	Rows       map[string]int `json:"rows"`
	DurationMS int64          `json:"duration_ms"`
}

// HealthCheck handles GET /health.
// It responds 503 when a dependency such as the database is unavailable.
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Exporter:  export.VerboseName,
	}

	if h.health != nil {
		status := h.health.Health(c.Request.Context())
		response.Components = status.Components
		if !status.Overall {
			response.Status = "unhealthy"
			h.logger.Warn("Health check failed", "components", status.Components)
			c.JSON(http.StatusServiceUnavailable, Response{
				Success: false,
				Data:    response,
				Error:   "one or more components are unhealthy",
			})
			return
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ExportWorkbook handles GET /api/exports/bjr?event=slug[,slug]
func (h *Handlers) ExportWorkbook(c *gin.Context) {
	slugs, ok := h.bindSlugs(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	result, err := h.exportService.ExportWorkbook(c.Request.Context(), slugs, &buf)
	if err != nil {
		h.writeError(c, "Workbook export failed", err)
		return
	}

	h.writeFile(c, result.FileName, ContentTypeXLSX, buf.Bytes())
}

// ExportSheet handles GET /api/exports/bjr/sheets/:sheet?event=slug[,slug]
func (h *Handlers) ExportSheet(c *gin.Context) {
	slugs, ok := h.bindSlugs(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	result, err := h.exportService.ExportSheetCSV(c.Request.Context(), slugs, c.Param("sheet"), &buf)
	if err != nil {
		h.writeError(c, "Sheet export failed", err)
		return
	}

	h.writeFile(c, result.FileName, ContentTypeCSV, buf.Bytes())
}

// DeliverWorkbook handles POST /api/exports/bjr/deliveries?event=slug[,slug]
func (h *Handlers) DeliverWorkbook(c *gin.Context) {
	slugs, ok := h.bindSlugs(c)
	if !ok {
		return
	}

	result, err := h.exportService.ExportAndDeliver(c.Request.Context(), slugs)
	if err != nil {
		h.writeError(c, "Export delivery failed", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ExportResponse{
			FileName:   result.FileName,
			Path:       result.Path,
			Events:     result.Events,
			Rows:       result.Rows,
			DurationMS: result.Duration.Milliseconds(),
		},
	})
}

// bindSlugs reads the event query parameters; none selects all events
func (h *Handlers) bindSlugs(c *gin.Context) ([]string, bool) {
	slugs, err := utils.ParseSlugs(c.QueryArray("event")...)
	if err != nil {
		h.logger.Warn("Invalid event parameter", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return nil, false
	}
	return slugs, true
}

func (h *Handlers) writeFile(c *gin.Context, fileName, contentType string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handlers) writeError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	} else {
		h.logger.Warn(msg, "error", err)
	}
	c.JSON(status, Response{
		Success: false,
		Error:   fmt.Sprintf("%s: %v", msg, err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoEvents), errors.Is(err, export.ErrUnknownSheet):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDeliveryDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
