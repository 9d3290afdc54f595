package service

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/dao"
	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/ledger"
	"github.com/opencommune/mairie-api/internal/metrics"
	"github.com/opencommune/mairie-api/internal/models"
	"github.com/opencommune/mairie-api/pkg/utils"
)

// InterventionService handles business logic for technical-service
// interventions. Like doleances, status transitions commit relationally
// first and anchor on the ledger best-effort afterwards; interventions
// additionally anchor validated final costs.
type InterventionService struct {
	interventionDAO *dao.InterventionDAO
	historyDAO      *dao.InterventionHistoryDAO
	anchorDAO       *dao.AnchorDAO
	db              *database.DB
	ledgerClient    ledger.Client
	logger          *logrus.Logger
}

// NewInterventionService creates a new intervention service instance
func NewInterventionService(
	interventionDAO *dao.InterventionDAO,
	historyDAO *dao.InterventionHistoryDAO,
	anchorDAO *dao.AnchorDAO,
	db *database.DB,
	ledgerClient ledger.Client,
	logger *logrus.Logger,
) *InterventionService {
	return &InterventionService{
		interventionDAO: interventionDAO,
		historyDAO:      historyDAO,
		anchorDAO:       anchorDAO,
		db:              db,
		ledgerClient:    ledgerClient,
		logger:          logger,
	}
}

// Create registers a work order together with its initial history row
func (s *InterventionService) Create(ctx context.Context, request *models.InterventionCreateRequest) (*models.Intervention, error) {
	if request.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if request.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}

	status := models.InterventionStatusCreated
	if request.Status != nil {
		if utils.ValidateInterventionStatus(*request.Status) != nil {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *request.Status)
		}
		status = *request.Status
	}

	priority := models.PriorityMedium
	if request.Priority != nil {
		if utils.ValidatePriority(*request.Priority) != nil {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *request.Priority)
		}
		priority = *request.Priority
	}

	intervention := &models.Intervention{
		ReferenceCode:         utils.GenerateInterventionReference(),
		Title:                 request.Title,
		Description:           request.Description,
		TypeID:                request.TypeID,
		Status:                status,
		Priority:              priority,
		Address:               request.Address,
		Latitude:              request.Latitude,
		Longitude:             request.Longitude,
		PlannedStartDate:      request.PlannedStartDate,
		PlannedEndDate:        request.PlannedEndDate,
		AssignedAgentID:       request.AssignedAgentID,
		EstimatedCost:         request.EstimatedCost,
		OriginatingDoleanceID: request.OriginatingDoleanceID,
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id, err := s.interventionDAO.CreateWithTx(ctx, tx, intervention)
	if err != nil {
		return nil, err
	}
	intervention.ID = id

	seedNote := "Intervention créée"
	history := &models.InterventionStatusHistory{
		InterventionID: id,
		Status:         status,
		Notes:          &seedNote,
	}
	if err := s.historyDAO.CreateWithTx(ctx, tx, history); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"interventionID": id,
		"referenceCode":  intervention.ReferenceCode,
	}).Info("Intervention created")

	// An intervention opened directly in a critical state is anchored too.
	if models.IsCriticalInterventionStatus(status) {
		if txHash := s.anchorStatus(ctx, id, intervention.ReferenceCode, status); txHash != "" {
			intervention.BlockchainTxHash = &txHash
		}
	}

	return intervention, nil
}

// Update applies a sparse patch to an intervention. Critical status changes
// and newly validated final costs are anchored after commit; the scalar tx
// hash on the record is last-write-wins while the anchor journal keeps both
// facts.
func (s *InterventionService) Update(ctx context.Context, id int64, request *models.InterventionUpdateRequest) (*models.Intervention, error) {
	if !request.HasUpdatableField() {
		return nil, fmt.Errorf("%w: no updatable field provided", ErrValidation)
	}
	if request.Status != nil && utils.ValidateInterventionStatus(*request.Status) != nil {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *request.Status)
	}
	if request.Priority != nil && utils.ValidatePriority(*request.Priority) != nil {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *request.Priority)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	intervention, err := s.interventionDAO.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	previousStatus := intervention.Status
	costWasValidated := intervention.CostValidated

	statusChanged := request.Status != nil && *request.Status != previousStatus

	if request.Title != nil {
		intervention.Title = *request.Title
	}
	if request.Description != nil {
		intervention.Description = *request.Description
	}
	if request.TypeID != nil {
		intervention.TypeID = request.TypeID
	}
	if request.Status != nil {
		intervention.Status = *request.Status
	}
	if request.Priority != nil {
		intervention.Priority = *request.Priority
	}
	if request.Address != nil {
		intervention.Address = request.Address
	}
	if request.Latitude != nil {
		intervention.Latitude = request.Latitude
	}
	if request.Longitude != nil {
		intervention.Longitude = request.Longitude
	}
	if request.PlannedStartDate != nil {
		intervention.PlannedStartDate = request.PlannedStartDate
	}
	if request.PlannedEndDate != nil {
		intervention.PlannedEndDate = request.PlannedEndDate
	}
	if request.ActualStartDate != nil {
		intervention.ActualStartDate = request.ActualStartDate
	}
	if request.ActualEndDate != nil {
		intervention.ActualEndDate = request.ActualEndDate
	}
	if request.AssignedAgentID != nil {
		intervention.AssignedAgentID = request.AssignedAgentID
	}
	if request.EstimatedCost != nil {
		intervention.EstimatedCost = request.EstimatedCost
	}
	if request.FinalCost != nil {
		intervention.FinalCost = request.FinalCost
	}
	if request.CostValidated != nil {
		intervention.CostValidated = *request.CostValidated
	}

	// The cost fact is anchored once, when validation flips on with a
	// final cost present. Re-sending cost_validated=true is a no-op.
	costNewlyValidated := !costWasValidated && intervention.CostValidated && intervention.FinalCost != nil

	if err := s.interventionDAO.UpdateWithTx(ctx, tx, intervention); err != nil {
		return nil, err
	}

	if statusChanged {
		note := fmt.Sprintf("Statut changé de %s à %s", previousStatus, intervention.Status)
		history := &models.InterventionStatusHistory{
			InterventionID:  id,
			Status:          intervention.Status,
			Notes:           &note,
			ChangedByUserID: request.ChangedByUserID,
		}
		if err := s.historyDAO.CreateWithTx(ctx, tx, history); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"interventionID": id,
		"previousStatus": previousStatus,
		"status":         intervention.Status,
	}).Info("Intervention updated")

	if statusChanged && models.IsCriticalInterventionStatus(intervention.Status) {
		if txHash := s.anchorStatus(ctx, id, intervention.ReferenceCode, intervention.Status); txHash != "" {
			intervention.BlockchainTxHash = &txHash
		}
	}
	if costNewlyValidated {
		costCents := int64(math.Round(*intervention.FinalCost * 100))
		if txHash := s.anchorCost(ctx, id, intervention.ReferenceCode, costCents); txHash != "" {
			intervention.BlockchainTxHash = &txHash
		}
	}

	return intervention, nil
}

func (s *InterventionService) anchorStatus(ctx context.Context, id int64, referenceCode, status string) string {
	txHash, err := s.ledgerClient.RecordInterventionStatus(ctx, referenceCode, status)
	metrics.ObserveAnchorAttempt(ledger.FactInterventionStatus, err)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"interventionID": id,
			"status":         status,
		}).Error("Ledger anchoring failed, record committed without anchor")
		return ""
	}
	if txHash == "" {
		return ""
	}

	s.reconcileAnchor(ctx, id, ledger.FactInterventionStatus,
		ledger.RecordID(ledger.FactInterventionStatus, referenceCode, ledger.StatusPayload(status)), txHash)
	return txHash
}

func (s *InterventionService) anchorCost(ctx context.Context, id int64, referenceCode string, costCents int64) string {
	txHash, err := s.ledgerClient.RecordInterventionCost(ctx, referenceCode, costCents)
	metrics.ObserveAnchorAttempt(ledger.FactInterventionCost, err)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"interventionID": id,
			"costCents":      costCents,
		}).Error("Ledger anchoring failed, record committed without anchor")
		return ""
	}
	if txHash == "" {
		return ""
	}

	s.reconcileAnchor(ctx, id, ledger.FactInterventionCost,
		ledger.RecordID(ledger.FactInterventionCost, referenceCode, ledger.CostPayload(costCents)), txHash)
	return txHash
}

func (s *InterventionService) reconcileAnchor(ctx context.Context, id int64, factKind, recordID, txHash string) {
	if err := s.interventionDAO.UpdateTxHash(ctx, id, txHash); err != nil {
		s.logger.WithError(err).WithField("interventionID", id).Error("Failed to reconcile ledger tx hash")
	}

	anchor := &models.LedgerAnchor{
		AnchorID:    utils.GenerateID(),
		SubjectType: models.AnchorSubjectIntervention,
		SubjectID:   id,
		FactKind:    factKind,
		RecordID:    recordID,
		TxHash:      txHash,
	}
	if err := s.anchorDAO.Create(ctx, anchor); err != nil {
		s.logger.WithError(err).WithField("interventionID", id).Error("Failed to journal ledger anchor")
	}
}

// Get retrieves an intervention with its status history
func (s *InterventionService) Get(ctx context.Context, id int64) (*models.InterventionDetail, error) {
	intervention, err := s.interventionDAO.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.historyDAO.GetByInterventionID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.InterventionDetail{
		Intervention:  *intervention,
		StatusHistory: history,
	}, nil
}

// List retrieves interventions for back-office listings
func (s *InterventionService) List(ctx context.Context, filter *models.InterventionListFilter) ([]models.Intervention, int, error) {
	if filter.Status != "" && utils.ValidateInterventionStatus(filter.Status) != nil {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}
	if filter.Priority != "" && utils.ValidatePriority(filter.Priority) != nil {
		return nil, 0, fmt.Errorf("%w: unknown priority %q", ErrValidation, filter.Priority)
	}
	filter.Limit = utils.ValidateLimit(filter.Limit)
	filter.Offset = utils.ValidateOffset(filter.Offset)

	return s.interventionDAO.List(ctx, filter)
}

// Delete removes an intervention
func (s *InterventionService) Delete(ctx context.Context, id int64) error {
	if err := s.interventionDAO.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithField("interventionID", id).Info("Intervention deleted")
	return nil
}

// Anchors returns the ledger anchor trail for an intervention
func (s *InterventionService) Anchors(ctx context.Context, id int64) ([]models.LedgerAnchor, error) {
	if _, err := s.interventionDAO.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.anchorDAO.ListBySubject(ctx, models.AnchorSubjectIntervention, id)
}
