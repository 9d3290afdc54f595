package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/models"
	"github.com/opencommune/mairie-api/internal/service"
	"github.com/opencommune/mairie-api/internal/utils"
)

// DeliberationHandler handles deliberation-related HTTP requests
type DeliberationHandler struct {
	deliberationService *service.DeliberationService
	logger              *logrus.Logger
}

// NewDeliberationHandler creates a new deliberation handler instance
func NewDeliberationHandler(deliberationService *service.DeliberationService, logger *logrus.Logger) *DeliberationHandler {
	return &DeliberationHandler{deliberationService: deliberationService, logger: logger}
}

// SearchDeliberations handles GET /deliberations
func (h *DeliberationHandler) SearchDeliberations(c *gin.Context) {
	filter := &models.DeliberationListFilter{
		SearchTerm: c.Query("q"),
		Status:     c.Query("status"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}

	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			utils.SendValidationError(c, "year must be an integer")
			return
		}
		filter.Year = year
	}

	items, total, err := h.deliberationService.Search(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, h.logger, err, "deliberation")
		return
	}

	utils.SendOKResponse(c, gin.H{
		"data":       items,
		"pagination": utils.CalculatePaginationMetadata(total, filter.Limit, filter.Offset),
	})
}

// GetDeliberation handles GET /deliberations/:id
func (h *DeliberationHandler) GetDeliberation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deliberation, err := h.deliberationService.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err, "deliberation")
		return
	}

	utils.SendOKResponse(c, deliberation)
}

// CreateDeliberation handles POST /deliberations
func (h *DeliberationHandler) CreateDeliberation(c *gin.Context) {
	var deliberation models.Deliberation
	if err := c.ShouldBindJSON(&deliberation); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	created, err := h.deliberationService.Create(c.Request.Context(), &deliberation)
	if err != nil {
		handleServiceError(c, h.logger, err, "deliberation")
		return
	}

	utils.SendCreatedResponse(c, created)
}
