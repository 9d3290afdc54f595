package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/dao"
	"github.com/opencommune/mairie-api/internal/models"
)

// CommissionService handles business logic for municipal commissions
type CommissionService struct {
	commissionDAO *dao.CommissionDAO
	logger        *logrus.Logger
}

// NewCommissionService creates a new commission service instance
func NewCommissionService(commissionDAO *dao.CommissionDAO, logger *logrus.Logger) *CommissionService {
	return &CommissionService{commissionDAO: commissionDAO, logger: logger}
}

// Create registers a new commission
func (s *CommissionService) Create(ctx context.Context, request *models.CommissionCreateRequest) (*models.Commission, error) {
	if request.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	commission := &models.Commission{
		Name:        request.Name,
		Description: request.Description,
		Status:      "active",
	}
	if request.Status != nil && *request.Status != "" {
		commission.Status = *request.Status
	}

	id, err := s.commissionDAO.Create(ctx, commission)
	if err != nil {
		return nil, err
	}
	commission.ID = id

	s.logger.WithField("commissionID", id).Info("Commission created")
	return commission, nil
}

// Get retrieves a commission by id
func (s *CommissionService) Get(ctx context.Context, id int64) (*models.Commission, error) {
	return s.commissionDAO.GetByID(ctx, id)
}

// List retrieves all commissions
func (s *CommissionService) List(ctx context.Context) ([]models.Commission, error) {
	return s.commissionDAO.List(ctx)
}

// Update applies a sparse patch to a commission
func (s *CommissionService) Update(ctx context.Context, id int64, request *models.CommissionUpdateRequest) (*models.Commission, error) {
	if !request.HasUpdatableField() {
		return nil, fmt.Errorf("%w: no updatable field provided", ErrValidation)
	}

	commission, err := s.commissionDAO.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.Name != nil {
		commission.Name = *request.Name
	}
	if request.Description != nil {
		commission.Description = request.Description
	}
	if request.Status != nil {
		commission.Status = *request.Status
	}

	if err := s.commissionDAO.Update(ctx, commission); err != nil {
		return nil, err
	}

	s.logger.WithField("commissionID", id).Info("Commission updated")
	return commission, nil
}

// Delete removes a commission
func (s *CommissionService) Delete(ctx context.Context, id int64) error {
	if err := s.commissionDAO.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithField("commissionID", id).Info("Commission deleted")
	return nil
}
