package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/dao"
	"github.com/opencommune/mairie-api/internal/models"
	"github.com/opencommune/mairie-api/pkg/utils"
)

// DeliberationService handles business logic for published deliberations
type DeliberationService struct {
	deliberationDAO *dao.DeliberationDAO
	logger          *logrus.Logger
}

// NewDeliberationService creates a new deliberation service instance
func NewDeliberationService(deliberationDAO *dao.DeliberationDAO, logger *logrus.Logger) *DeliberationService {
	return &DeliberationService{deliberationDAO: deliberationDAO, logger: logger}
}

// Get retrieves a deliberation by id
func (s *DeliberationService) Get(ctx context.Context, id int64) (*models.Deliberation, error) {
	return s.deliberationDAO.GetByID(ctx, id)
}

// Search retrieves deliberations matching the filter
func (s *DeliberationService) Search(ctx context.Context, filter *models.DeliberationListFilter) ([]models.Deliberation, int, error) {
	filter.SearchTerm = utils.SanitizeString(filter.SearchTerm)
	filter.Limit = utils.ValidateLimit(filter.Limit)
	filter.Offset = utils.ValidateOffset(filter.Offset)

	return s.deliberationDAO.Search(ctx, filter)
}

// Create publishes a new deliberation
func (s *DeliberationService) Create(ctx context.Context, d *models.Deliberation) (*models.Deliberation, error) {
	if d.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if d.ReferenceCode == "" {
		return nil, fmt.Errorf("%w: reference code is required", ErrValidation)
	}
	if d.SessionDate.IsZero() {
		return nil, fmt.Errorf("%w: session date is required", ErrValidation)
	}
	if d.Status == "" {
		d.Status = "published"
	}

	id, err := s.deliberationDAO.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	d.ID = id

	s.logger.WithFields(logrus.Fields{
		"deliberationID": id,
		"referenceCode":  d.ReferenceCode,
	}).Info("Deliberation published")

	return d, nil
}
