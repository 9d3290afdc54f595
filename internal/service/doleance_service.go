package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/cache"
	"github.com/opencommune/mairie-api/internal/dao"
	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/ledger"
	"github.com/opencommune/mairie-api/internal/metrics"
	"github.com/opencommune/mairie-api/internal/models"
	"github.com/opencommune/mairie-api/pkg/utils"
)

// ErrValidation marks request validation failures so handlers can map them
// to a 400 instead of a 500.
var ErrValidation = errors.New("validation failed")

// referenceRetryAttempts bounds regeneration when a generated reference code
// collides with an existing row.
const referenceRetryAttempts = 3

const maxDescriptionLength = 5000

// DoleanceService handles business logic for doleance operations. Status
// transitions run in two phases: the relational transaction commits first,
// then the ledger anchor is attempted best-effort. An anchor failure never
// rolls back or fails the committed update.
type DoleanceService struct {
	doleanceDAO   *dao.DoleanceDAO
	historyDAO    *dao.DoleanceHistoryDAO
	attachmentDAO *dao.DoleanceAttachmentDAO
	anchorDAO     *dao.AnchorDAO
	db            *database.DB
	ledgerClient  ledger.Client
	statusCache   *cache.PublicStatusCache
	logger        *logrus.Logger
}

// NewDoleanceService creates a new doleance service instance
func NewDoleanceService(
	doleanceDAO *dao.DoleanceDAO,
	historyDAO *dao.DoleanceHistoryDAO,
	attachmentDAO *dao.DoleanceAttachmentDAO,
	anchorDAO *dao.AnchorDAO,
	db *database.DB,
	ledgerClient ledger.Client,
	statusCache *cache.PublicStatusCache,
	logger *logrus.Logger,
) *DoleanceService {
	return &DoleanceService{
		doleanceDAO:   doleanceDAO,
		historyDAO:    historyDAO,
		attachmentDAO: attachmentDAO,
		anchorDAO:     anchorDAO,
		db:            db,
		ledgerClient:  ledgerClient,
		statusCache:   statusCache,
		logger:        logger,
	}
}

// Create registers a citizen complaint: the record, its initial history row
// and any attachment metadata commit atomically, then the description hash
// is anchored on the ledger.
func (s *DoleanceService) Create(ctx context.Context, request *models.DoleanceCreateRequest, attachments []models.AttachmentInput) (*models.DoleanceCreateResponse, error) {
	if err := s.validateCreateRequest(request); err != nil {
		return nil, err
	}

	descriptionHash := utils.HashDescription(request.Description)

	var doleance *models.Doleance
	var err error
	for attempt := 1; attempt <= referenceRetryAttempts; attempt++ {
		doleance, err = s.createOnce(ctx, request, attachments, descriptionHash)
		if err == nil {
			break
		}
		if !dao.IsDuplicateEntry(err) {
			return nil, err
		}
		s.logger.WithField("attempt", attempt).Warn("Reference code collision, regenerating")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to allocate reference code: %w", err)
	}

	// Post-commit: anchor the creation fact. The record is durable either way.
	txHash := s.anchorDoleance(ctx, doleance.ID, doleance.ReferenceCode, ledger.FactDoleanceCreate, descriptionHash)

	response := &models.DoleanceCreateResponse{
		Message:       "Votre signalement a été enregistré avec succès.",
		ReferenceCode: doleance.ReferenceCode,
		DoleanceID:    doleance.ID,
	}
	if txHash != "" {
		response.BlockchainTxHash = &txHash
	}
	for _, a := range attachments {
		response.UploadedFiles = append(response.UploadedFiles, models.UploadedFile{
			Name: a.FileName,
			Path: a.FilePath,
		})
	}

	return response, nil
}

// createOnce runs one transactional creation attempt with a fresh reference code
func (s *DoleanceService) createOnce(ctx context.Context, request *models.DoleanceCreateRequest, attachments []models.AttachmentInput, descriptionHash string) (*models.Doleance, error) {
	doleance := &models.Doleance{
		ReferenceCode:          utils.GenerateDoleanceReference(),
		Description:            request.Description,
		CategoryID:             request.CategoryID,
		Address:                request.Address,
		Latitude:               request.Latitude,
		Longitude:              request.Longitude,
		IsAnonymous:            request.IsAnonymous,
		Status:                 models.DoleanceStatusReceived,
		Priority:               models.PriorityMedium,
		InitialDescriptionHash: descriptionHash,
	}
	if !request.IsAnonymous {
		doleance.SubmitterName = request.SubmitterName
		doleance.SubmitterEmail = request.SubmitterEmail
		doleance.SubmitterPhone = request.SubmitterPhone
	}
	doleance.SubmitterIPAddress = request.SubmitterIP

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id, err := s.doleanceDAO.CreateWithTx(ctx, tx, doleance)
	if err != nil {
		return nil, err
	}
	doleance.ID = id

	seedNote := "Signalement reçu."
	history := &models.DoleanceStatusHistory{
		DoleanceID: id,
		Status:     models.DoleanceStatusReceived,
		Notes:      &seedNote,
		IsPublic:   true,
	}
	if err := s.historyDAO.CreateWithTx(ctx, tx, history); err != nil {
		return nil, err
	}

	for _, a := range attachments {
		fileType := a.FileType
		attachment := &models.DoleanceAttachment{
			DoleanceID: id,
			FileName:   a.FileName,
			FilePath:   a.FilePath,
		}
		if fileType != "" {
			attachment.FileType = &fileType
		}
		if err := s.attachmentDAO.CreateWithTx(ctx, tx, attachment); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"doleanceID":    id,
		"referenceCode": doleance.ReferenceCode,
	}).Info("Doleance created")

	return doleance, nil
}

// Update applies a sparse patch to a doleance. A status change additionally
// appends a history row in the same transaction, derives the closure date,
// and anchors public statuses on the ledger after commit.
func (s *DoleanceService) Update(ctx context.Context, id int64, request *models.DoleanceUpdateRequest) (*models.Doleance, error) {
	if !request.HasUpdatableField() {
		return nil, fmt.Errorf("%w: no updatable field provided", ErrValidation)
	}
	if request.Status != nil && utils.ValidateDoleanceStatus(*request.Status) != nil {
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

	doleance, err := s.doleanceDAO.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	previousStatus := doleance.Status
	statusChanged := request.Status != nil && *request.Status != previousStatus

	if request.Status != nil {
		doleance.Status = *request.Status
	}
	if request.Priority != nil {
		doleance.Priority = *request.Priority
	}
	if request.AssignedAgentID != nil {
		doleance.AssignedAgentID = request.AssignedAgentID
	}
	if request.ResolutionDetails != nil {
		doleance.ResolutionDetails = request.ResolutionDetails
	}
	if request.LinkedInterventionID != nil {
		doleance.LinkedInterventionID = request.LinkedInterventionID
	}
	if request.CategoryID != nil {
		doleance.CategoryID = request.CategoryID
	}

	// Closure date follows the patched status value, not the transition:
	// re-sending a terminal status backfills a missing closure date.
	if request.Status != nil {
		if models.IsTerminalDoleanceStatus(doleance.Status) {
			if doleance.ClosureDate == nil {
				now := time.Now()
				doleance.ClosureDate = &now
			}
		} else {
			doleance.ClosureDate = nil
		}
	}

	if err := s.doleanceDAO.UpdateWithTx(ctx, tx, doleance); err != nil {
		return nil, err
	}

	if statusChanged {
		note := fmt.Sprintf("Statut changé de %s à %s", previousStatus, doleance.Status)
		history := &models.DoleanceStatusHistory{
			DoleanceID:      id,
			Status:          doleance.Status,
			Notes:           &note,
			IsPublic:        models.IsPublicDoleanceStatus(doleance.Status),
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
		"doleanceID":     id,
		"previousStatus": previousStatus,
		"status":         doleance.Status,
	}).Info("Doleance updated")

	// Post-commit phase. Public status changes get anchored; any outcome
	// here leaves the committed update intact.
	if statusChanged && models.IsPublicDoleanceStatus(doleance.Status) {
		txHash := s.anchorDoleance(ctx, id, doleance.ReferenceCode, ledger.FactDoleanceStatus, doleance.Status)
		if txHash != "" {
			doleance.BlockchainTxHash = &txHash
		}
	}

	s.statusCache.Invalidate(ctx, doleance.ReferenceCode)

	return doleance, nil
}

// anchorDoleance writes one fact to the ledger and reconciles the resulting
// transaction hash: the scalar column on the record is overwritten
// last-write-wins, while the anchor journal keeps the per-fact trail.
// Returns the tx hash, or "" when anchoring was skipped or failed.
func (s *DoleanceService) anchorDoleance(ctx context.Context, id int64, referenceCode, factKind, value string) string {
	var txHash string
	var err error
	var payload string

	switch factKind {
	case ledger.FactDoleanceCreate:
		payload = value
		txHash, err = s.ledgerClient.RecordDoleanceCreation(ctx, referenceCode, value)
	case ledger.FactDoleanceStatus:
		payload = ledger.StatusPayload(value)
		txHash, err = s.ledgerClient.RecordDoleanceStatus(ctx, referenceCode, value)
	default:
		return ""
	}

	metrics.ObserveAnchorAttempt(factKind, err)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"doleanceID": id,
			"factKind":   factKind,
		}).Error("Ledger anchoring failed, record committed without anchor")
		return ""
	}
	if txHash == "" {
		return ""
	}

	if err := s.doleanceDAO.UpdateTxHash(ctx, id, txHash); err != nil {
		s.logger.WithError(err).WithField("doleanceID", id).Error("Failed to reconcile ledger tx hash")
	}

	anchor := &models.LedgerAnchor{
		AnchorID:    utils.GenerateID(),
		SubjectType: models.AnchorSubjectDoleance,
		SubjectID:   id,
		FactKind:    factKind,
		RecordID:    ledger.RecordID(factKind, referenceCode, payload),
		TxHash:      txHash,
	}
	if err := s.anchorDAO.Create(ctx, anchor); err != nil {
		s.logger.WithError(err).WithField("doleanceID", id).Error("Failed to journal ledger anchor")
	}

	return txHash
}

// Get retrieves a doleance with its status history and attachments
func (s *DoleanceService) Get(ctx context.Context, id int64) (*models.DoleanceDetail, error) {
	doleance, err := s.doleanceDAO.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.historyDAO.GetByDoleanceID(ctx, id)
	if err != nil {
		return nil, err
	}

	attachments, err := s.attachmentDAO.GetByDoleanceID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.DoleanceDetail{
		Doleance:      *doleance,
		StatusHistory: history,
		Attachments:   attachments,
	}, nil
}

// List retrieves doleances for back-office listings
func (s *DoleanceService) List(ctx context.Context, filter *models.DoleanceListFilter) ([]models.DoleanceListItem, int, error) {
	if filter.Status != "" && utils.ValidateDoleanceStatus(filter.Status) != nil {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}
	if filter.Priority != "" && utils.ValidatePriority(filter.Priority) != nil {
		return nil, 0, fmt.Errorf("%w: unknown priority %q", ErrValidation, filter.Priority)
	}
	filter.Limit = utils.ValidateLimit(filter.Limit)
	filter.Offset = utils.ValidateOffset(filter.Offset)

	return s.doleanceDAO.List(ctx, filter)
}

// Delete removes a doleance and invalidates its public cache entry
func (s *DoleanceService) Delete(ctx context.Context, id int64) error {
	doleance, err := s.doleanceDAO.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.doleanceDAO.Delete(ctx, id); err != nil {
		return err
	}

	s.statusCache.Invalidate(ctx, doleance.ReferenceCode)
	s.logger.WithField("doleanceID", id).Info("Doleance deleted")

	return nil
}

// GetPublicStatus answers the anonymous tracking lookup, serving from the
// cache when possible.
func (s *DoleanceService) GetPublicStatus(ctx context.Context, referenceCode string) (*models.DoleancePublicStatus, error) {
	if referenceCode == "" {
		return nil, fmt.Errorf("%w: reference code is required", ErrValidation)
	}

	if status, ok := s.statusCache.Get(ctx, referenceCode); ok {
		return status, nil
	}

	status, err := s.doleanceDAO.GetPublicStatus(ctx, referenceCode)
	if err != nil {
		return nil, err
	}

	s.statusCache.Set(ctx, status)
	return status, nil
}

func (s *DoleanceService) validateCreateRequest(request *models.DoleanceCreateRequest) error {
	if err := utils.ValidateRequired("description", request.Description); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := utils.ValidateMaxLength("description", request.Description, maxDescriptionLength); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !request.IsAnonymous && request.SubmitterEmail != nil && utils.ValidateEmail(*request.SubmitterEmail) != nil {
		return fmt.Errorf("%w: invalid submitter email", ErrValidation)
	}
	return nil
}
