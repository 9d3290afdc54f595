package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/models"
	"github.com/opencommune/mairie-api/internal/service"
	"github.com/opencommune/mairie-api/internal/utils"
)

// CommissionHandler handles commission-related HTTP requests
type CommissionHandler struct {
	commissionService *service.CommissionService
	logger            *logrus.Logger
}

// NewCommissionHandler creates a new commission handler instance
func NewCommissionHandler(commissionService *service.CommissionService, logger *logrus.Logger) *CommissionHandler {
	return &CommissionHandler{commissionService: commissionService, logger: logger}
}

// CreateCommission handles POST /commissions
func (h *CommissionHandler) CreateCommission(c *gin.Context) {
	var request models.CommissionCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	commission, err := h.commissionService.Create(c.Request.Context(), &request)
	if err != nil {
		handleServiceError(c, h.logger, err, "commission")
		return
	}

	utils.SendCreatedResponse(c, commission)
}

// ListCommissions handles GET /commissions
func (h *CommissionHandler) ListCommissions(c *gin.Context) {
	commissions, err := h.commissionService.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err, "commission")
		return
	}

	utils.SendOKResponse(c, gin.H{"data": commissions})
}

// GetCommission handles GET /commissions/:id
func (h *CommissionHandler) GetCommission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	commission, err := h.commissionService.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err, "commission")
		return
	}

	utils.SendOKResponse(c, commission)
}

// UpdateCommission handles PUT /commissions/:id
func (h *CommissionHandler) UpdateCommission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var request models.CommissionUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	commission, err := h.commissionService.Update(c.Request.Context(), id, &request)
	if err != nil {
		handleServiceError(c, h.logger, err, "commission")
		return
	}

	utils.SendOKResponse(c, commission)
}

// DeleteCommission handles DELETE /commissions/:id
func (h *CommissionHandler) DeleteCommission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.commissionService.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, h.logger, err, "commission")
		return
	}

	utils.SendNoContentResponse(c)
}
