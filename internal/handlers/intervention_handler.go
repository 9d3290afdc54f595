package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/models"
	"github.com/opencommune/mairie-api/internal/service"
	"github.com/opencommune/mairie-api/internal/utils"
)

// InterventionHandler handles intervention-related HTTP requests
type InterventionHandler struct {
	interventionService *service.InterventionService
	logger              *logrus.Logger
}

// NewInterventionHandler creates a new intervention handler instance
func NewInterventionHandler(interventionService *service.InterventionService, logger *logrus.Logger) *InterventionHandler {
	return &InterventionHandler{interventionService: interventionService, logger: logger}
}

// CreateIntervention handles POST /services-techniques
func (h *InterventionHandler) CreateIntervention(c *gin.Context) {
	var request models.InterventionCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	intervention, err := h.interventionService.Create(c.Request.Context(), &request)
	if err != nil {
		handleServiceError(c, h.logger, err, "intervention")
		return
	}

	utils.SendCreatedResponse(c, intervention)
}

// ListInterventions handles GET /services-techniques
func (h *InterventionHandler) ListInterventions(c *gin.Context) {
	filter := &models.InterventionListFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}

	if v := c.Query("intervention_type_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.SendValidationError(c, "intervention_type_id must be an integer")
			return
		}
		filter.TypeID = &id
	}

	items, total, err := h.interventionService.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, h.logger, err, "intervention")
		return
	}

	utils.SendOKResponse(c, gin.H{
		"data":       items,
		"pagination": utils.CalculatePaginationMetadata(total, filter.Limit, filter.Offset),
	})
}

// GetIntervention handles GET /services-techniques/:id
func (h *InterventionHandler) GetIntervention(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.interventionService.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err, "intervention")
		return
	}

	utils.SendOKResponse(c, detail)
}

// UpdateIntervention handles PUT /services-techniques/:id
func (h *InterventionHandler) UpdateIntervention(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var request models.InterventionUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	intervention, err := h.interventionService.Update(c.Request.Context(), id, &request)
	if err != nil {
		handleServiceError(c, h.logger, err, "intervention")
		return
	}

	utils.SendOKResponse(c, intervention)
}

// DeleteIntervention handles DELETE /services-techniques/:id
func (h *InterventionHandler) DeleteIntervention(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.interventionService.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, h.logger, err, "intervention")
		return
	}

	utils.SendNoContentResponse(c)
}

// GetInterventionAnchors handles GET /services-techniques/:id/anchors
func (h *InterventionHandler) GetInterventionAnchors(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	anchors, err := h.interventionService.Anchors(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err, "intervention")
		return
	}

	utils.SendOKResponse(c, gin.H{"data": anchors})
}
