package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/dao"
	"github.com/opencommune/mairie-api/internal/models"
	"github.com/opencommune/mairie-api/internal/service"
	"github.com/opencommune/mairie-api/internal/utils"
	pkgutils "github.com/opencommune/mairie-api/pkg/utils"
)

// uploadDir is where attachment files are stored; only metadata goes to the
// database.
const uploadDir = "uploads/doleances"

// DoleanceHandler handles doleance-related HTTP requests
type DoleanceHandler struct {
	doleanceService *service.DoleanceService
	logger          *logrus.Logger
}

// NewDoleanceHandler creates a new doleance handler instance
func NewDoleanceHandler(doleanceService *service.DoleanceService, logger *logrus.Logger) *DoleanceHandler {
	return &DoleanceHandler{doleanceService: doleanceService, logger: logger}
}

// CreateDoleance handles POST /doleances. The public form submits
// multipart/form-data so photos can accompany the complaint.
func (h *DoleanceHandler) CreateDoleance(c *gin.Context) {
	request := &models.DoleanceCreateRequest{
		Description: pkgutils.SanitizeString(c.PostForm("description")),
		IsAnonymous: c.PostForm("is_anonymous") == "true",
	}

	if v := c.PostForm("doleance_category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.SendValidationError(c, "doleance_category_id must be an integer")
			return
		}
		request.CategoryID = &id
	}
	if v := c.PostForm("address"); v != "" {
		address := pkgutils.SanitizeString(v)
		request.Address = &address
	}
	if v := c.PostForm("latitude"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			utils.SendValidationError(c, "latitude must be a number")
			return
		}
		request.Latitude = &lat
	}
	if v := c.PostForm("longitude"); v != "" {
		lng, err := strconv.ParseFloat(v, 64)
		if err != nil {
			utils.SendValidationError(c, "longitude must be a number")
			return
		}
		request.Longitude = &lng
	}
	if v := c.PostForm("submitter_name"); v != "" {
		name := pkgutils.SanitizeString(v)
		request.SubmitterName = &name
	}
	if v := c.PostForm("submitter_email"); v != "" {
		email := pkgutils.SanitizeString(v)
		request.SubmitterEmail = &email
	}
	if v := c.PostForm("submitter_phone"); v != "" {
		phone := pkgutils.SanitizeString(v)
		request.SubmitterPhone = &phone
	}

	ip := c.ClientIP()
	if ip != "" {
		request.SubmitterIP = &ip
	}

	attachments, err := h.saveUploadedFiles(c)
	if err != nil {
		h.logger.WithError(err).WithField("correlationID", utils.GetCorrelationIDFromContext(c)).
			Error("Failed to store uploaded files")
		utils.SendInternalServerError(c, "Failed to store uploaded files", "An internal error occurred")
		return
	}

	response, err := h.doleanceService.Create(c.Request.Context(), request, attachments)
	if err != nil {
		handleServiceError(c, h.logger, err, "doleance")
		return
	}

	utils.SendCreatedResponse(c, response)
}

// saveUploadedFiles persists the multipart files and returns their metadata
func (h *DoleanceHandler) saveUploadedFiles(c *gin.Context) ([]models.AttachmentInput, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		// No multipart body at all is fine; attachments are optional.
		return nil, nil
	}

	var attachments []models.AttachmentInput
	for _, file := range form.File["files"] {
		path := filepath.Join(uploadDir, pkgutils.GenerateID()+"_"+filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, path); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", file.Filename, err)
		}
		attachments = append(attachments, models.AttachmentInput{
			FileName: file.Filename,
			FilePath: path,
			FileType: fileContentType(file),
		})
	}

	return attachments, nil
}

func fileContentType(file *multipart.FileHeader) string {
	return file.Header.Get("Content-Type")
}

// ListDoleances handles GET /doleances
func (h *DoleanceHandler) ListDoleances(c *gin.Context) {
	filter := &models.DoleanceListFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}

	if v := c.Query("doleance_category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.SendValidationError(c, "doleance_category_id must be an integer")
			return
		}
		filter.CategoryID = &id
	}
	if v := c.Query("assigned_agent_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.SendValidationError(c, "assigned_agent_id must be an integer")
			return
		}
		filter.AssignedAgentID = &id
	}

	items, total, err := h.doleanceService.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, h.logger, err, "doleance")
		return
	}

	utils.SendOKResponse(c, gin.H{
		"data":       items,
		"pagination": utils.CalculatePaginationMetadata(total, filter.Limit, filter.Offset),
	})
}

// GetDoleance handles GET /doleances/:id
func (h *DoleanceHandler) GetDoleance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.doleanceService.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err, "doleance")
		return
	}

	utils.SendOKResponse(c, detail)
}

// UpdateDoleance handles PUT /doleances/:id
func (h *DoleanceHandler) UpdateDoleance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var request models.DoleanceUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	doleance, err := h.doleanceService.Update(c.Request.Context(), id, &request)
	if err != nil {
		handleServiceError(c, h.logger, err, "doleance")
		return
	}

	utils.SendOKResponse(c, doleance)
}

// DeleteDoleance handles DELETE /doleances/:id
func (h *DoleanceHandler) DeleteDoleance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.doleanceService.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, h.logger, err, "doleance")
		return
	}

	utils.SendNoContentResponse(c)
}

// GetPublicStatus handles GET /doleances/public/:referenceCode. Anonymous,
// unauthenticated, and only ever exposes public history.
func (h *DoleanceHandler) GetPublicStatus(c *gin.Context) {
	referenceCode := c.Param("referenceCode")

	status, err := h.doleanceService.GetPublicStatus(c.Request.Context(), referenceCode)
	if err != nil {
		handleServiceError(c, h.logger, err, "doleance")
		return
	}

	utils.SendOKResponse(c, status)
}

// handleServiceError maps service errors to HTTP responses. Unexpected
// failures are logged with their internal detail; the client only ever sees
// a generic message.
func handleServiceError(c *gin.Context, logger *logrus.Logger, err error, entity string) {
	switch {
	case errors.Is(err, dao.ErrNotFound):
		utils.SendNotFoundError(c, fmt.Sprintf("%s not found", entity))
	case errors.Is(err, service.ErrValidation):
		utils.SendValidationError(c, err.Error())
	case dao.IsDuplicateEntry(err):
		utils.SendConflictError(c, fmt.Sprintf("%s already exists", entity))
	default:
		logger.WithError(err).WithFields(logrus.Fields{
			"entity":        entity,
			"path":          c.FullPath(),
			"correlationID": utils.GetCorrelationIDFromContext(c),
		}).Error("Request processing failed")
		utils.SendInternalServerError(c, fmt.Sprintf("Failed to process %s", entity), "An internal error occurred")
	}
}

// pathID parses the numeric :id path parameter
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.SendValidationError(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter, returning 0 when
// absent or malformed so validation defaults apply downstream
func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
