package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openmunicipal/civic-api/internal/models"
	"github.com/openmunicipal/civic-api/internal/service"
	appErrors "github.com/openmunicipal/civic-api/pkg/errors"
	"github.com/openmunicipal/civic-api/pkg/response"
)

// GrievanceHandler wires HTTP endpoints to the grievance services.
type GrievanceHandler struct {
	service *service.GrievanceService
	export  *service.ExportService
}

// NewGrievanceHandler creates a new handler.
func NewGrievanceHandler(svc *service.GrievanceService, export *service.ExportService) *GrievanceHandler {
	return &GrievanceHandler{service: svc, export: export}
}

// Create godoc
// @Summary Submit a grievance
// @Description File a grievance against a department within a municipality
// @Tags Grievances
// @Accept json
// @Produce json
// @Param municipalityID path string true "Municipality ID"
// @Param departmentID path string true "Department ID"
// @Param payload body service.CreateGrievanceRequest true "Grievance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /municipalities/{municipalityID}/departments/{departmentID}/grievance [post]
func (h *GrievanceHandler) Create(c *gin.Context) {
	var req service.CreateGrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grievance payload"))
		return
	}

	grievance, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("municipalityID"), c.Param("departmentID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, grievance)
}

// List godoc
// @Summary List grievances visible to the caller
// @Description Citizens see their own grievances; officials see their municipality's
// @Tags Grievances
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /grievances [get]
func (h *GrievanceHandler) List(c *gin.Context) {
	var status *models.GrievanceStatus
	if raw := c.Query("status"); raw != "" {
		s := models.GrievanceStatus(raw)
		if !s.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status filter"))
			return
		}
		status = &s
	}

	page := 1
	pageSize := 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		pageSize = v
	}

	grievances, pagination, err := h.service.List(c.Request.Context(), claimsFromContext(c), status, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grievances, pagination)
}

// Get godoc
// @Summary Get a grievance with its responses
// @Tags Grievances
// @Produce json
// @Param id path string true "Grievance ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grievances/{id} [get]
func (h *GrievanceHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Respond godoc
// @Summary Add an official response to a grievance
// @Tags Grievances
// @Accept json
// @Produce json
// @Param id path string true "Grievance ID"
// @Param payload body service.RespondRequest true "Response payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grievances/{id}/respond [post]
func (h *GrievanceHandler) Respond(c *gin.Context) {
	var req service.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid response payload"))
		return
	}

	res, err := h.service.Respond(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// UpdateStatus godoc
// @Summary Update grievance status
// @Tags Grievances
// @Accept json
// @Produce json
// @Param id path string true "Grievance ID"
// @Param payload body service.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grievances/{id}/status [patch]
func (h *GrievanceHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	grievance, err := h.service.UpdateStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grievance, nil)
}

// Export godoc
// @Summary Export scoped grievances
// @Description Download the caller's municipality grievances as CSV or PDF
// @Tags Grievances
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /grievances/export [get]
func (h *GrievanceHandler) Export(c *gin.Context) {
	if h.export == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.export.Export(c.Request.Context(), claimsFromContext(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
