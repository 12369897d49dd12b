package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/logger"
	"github.com/gradecard/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	inspections *usecase.InspectionService
	navigation  *usecase.NavigationService
	log         *logger.Logger
}

// NewHandler creates a new HTTP handler. Either service may be nil; its
// endpoints then answer 503.
func NewHandler(inspections *usecase.InspectionService, navigation *usecase.NavigationService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		inspections: inspections,
		navigation:  navigation,
		log:         log.With("component", "http"),
	}
}

// ResolveRequest is the identity text scraped by the extension
type ResolveRequest struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Zipcode   string `json:"zipcode"`
	Phone     string `json:"phone"`
	Site      string `json:"site" binding:"required"`
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// PageRequest carries a listing page for server-side scraping
type PageRequest struct {
	URL       string `json:"url" binding:"required"`
	HTML      string `json:"html" binding:"required"`
	SessionID string `json:"sessionId"`
}

// NavigationRequest reports a client-side navigation in a tab
type NavigationRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	URL       string `json:"url" binding:"required"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "gradecard-backend",
		"version": "1.0.0",
	})
}

// ResolveInspection resolves the grade badge for scraped identity text
func (h *Handler) ResolveInspection(c *gin.Context) {
	if h.inspections == nil {
		h.notConfigured(c, "inspection service")
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	raw := domain.RawIdentity{
		Name:    req.Name,
		Address: req.Address,
		Zipcode: req.Zipcode,
		Phone:   req.Phone,
		Site:    req.Site,
	}
	badge, err := h.inspections.Lookup(c.Request.Context(), raw, req.SessionID, req.URL)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, badge)
}

// ResolvePage scrapes a listing page and resolves its grade badge
func (h *Handler) ResolvePage(c *gin.Context) {
	if h.inspections == nil {
		h.notConfigured(c, "inspection service")
		return
	}

	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	badge, err := h.inspections.LookupPage(c.Request.Context(), req.URL, req.HTML, req.SessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, badge)
}

// Navigation acknowledges a navigation and says whether to rerun resolution
func (h *Handler) Navigation(c *gin.Context) {
	if h.navigation == nil {
		h.notConfigured(c, "navigation service")
		return
	}

	var req NavigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	decision, err := h.navigation.Notify(c.Request.Context(), req.SessionID, req.URL)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func (h *Handler) notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " not configured"})
}

// writeError maps domain errors to HTTP statuses
func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrExtraction), errors.Is(err, domain.ErrUnsupportedSite):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStaleResolution), errors.Is(err, domain.ErrResolutionCancelled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
