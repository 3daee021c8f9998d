package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmunicipal/civic-api/internal/service"
	"github.com/openmunicipal/civic-api/pkg/response"
)

// DirectoryHandler serves the public geo/organizational hierarchy.
type DirectoryHandler struct {
	service *service.DirectoryService
}

// NewDirectoryHandler creates a new handler.
func NewDirectoryHandler(svc *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: svc}
}

// ListStates godoc
// @Summary List states
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /states [get]
func (h *DirectoryHandler) ListStates(c *gin.Context) {
	states, err := h.service.ListStates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, states, nil)
}

// ListMunicipalities godoc
// @Summary List municipalities
// @Description List municipalities, optionally filtered by state
// @Tags Directory
// @Produce json
// @Param state query string false "State ID"
// @Success 200 {object} response.Envelope
// @Router /municipalities [get]
func (h *DirectoryHandler) ListMunicipalities(c *gin.Context) {
	municipalities, err := h.service.ListMunicipalities(c.Request.Context(), c.Query("state"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, municipalities, nil)
}

// ListDepartments godoc
// @Summary List departments serving a municipality
// @Tags Directory
// @Produce json
// @Param municipalityID path string true "Municipality ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /municipalities/{municipalityID}/departments [get]
func (h *DirectoryHandler) ListDepartments(c *gin.Context) {
	departments, err := h.service.ListDepartments(c.Request.Context(), c.Param("municipalityID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}
