package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmunicipal/civic-api/internal/service"
	appErrors "github.com/openmunicipal/civic-api/pkg/errors"
	"github.com/openmunicipal/civic-api/pkg/response"
)

// FeedbackHandler wires HTTP endpoints to the feedback service.
type FeedbackHandler struct {
	service *service.FeedbackService
}

// NewFeedbackHandler creates a new handler.
func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Create godoc
// @Summary Submit feedback for a department
// @Description Submit a rating and comment for a department within a municipality
// @Tags Feedback
// @Accept json
// @Produce json
// @Param municipalityID path string true "Municipality ID"
// @Param departmentID path string true "Department ID"
// @Param payload body service.CreateFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /municipalities/{municipalityID}/departments/{departmentID}/feedback [post]
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req service.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	feedback, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("municipalityID"), c.Param("departmentID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, feedback)
}

// ListOwn godoc
// @Summary List own feedback
// @Tags Feedback
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) ListOwn(c *gin.Context) {
	feedback, err := h.service.ListOwn(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feedback, nil)
}
