package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vnoc/incident-tracker/internal/api/dto"
	"github.com/vnoc/incident-tracker/internal/auth"
	"github.com/vnoc/incident-tracker/internal/config"
	"github.com/vnoc/incident-tracker/internal/service"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

// PublicUploadPrefix is where stored files are served from.
const PublicUploadPrefix = "/uploads"

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// AttachmentsHandler stores uploaded files and records their metadata.
type AttachmentsHandler struct {
	service *service.TicketService
	cfg     config.UploadConfig
	logger  *zap.Logger
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(ticketService *service.TicketService, cfg config.UploadConfig, logger *zap.Logger) *AttachmentsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentsHandler{service: ticketService, cfg: cfg, logger: logger}
}

// Upload POST /api/tickets/:tt_number/attachments (multipart field "file").
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	ttNumber := c.Params("tt_number")
	if _, err := h.service.Get(c.UserContext(), ttNumber); err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("no file uploaded", nil)
	}
	mimeType := strings.ToLower(strings.TrimSpace(strings.Split(file.Header.Get(fiber.HeaderContentType), ";")[0]))
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return apperrors.NewValidationError("invalid file type, only images are allowed", map[string]any{
			"mime_type": mimeType,
		})
	}
	if file.Size > h.cfg.MaxBytes {
		return apperrors.NewDomainError(apperrors.ErrValidation, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds %d bytes", h.cfg.MaxBytes), http.StatusRequestEntityTooLarge, nil)
	}

	ticketDir := filepath.Join(h.cfg.Dir, filepath.Base(ttNumber))
	if err := os.MkdirAll(ticketDir, 0o755); err != nil {
		return apperrors.NewInternalError(err)
	}
	storedName := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	if err := c.SaveFile(file, filepath.Join(ticketDir, storedName)); err != nil {
		return apperrors.NewInternalError(err)
	}

	attachment, err := h.service.AddAttachment(c.UserContext(), service.AttachmentInput{
		TTNumber:         ttNumber,
		OriginalFilename: filepath.Base(file.Filename),
		StoredFilename:   storedName,
		FilePath:         path.Join(PublicUploadPrefix, filepath.Base(ttNumber), storedName),
		FileSize:         file.Size,
		MimeType:         mimeType,
	}, auth.Actor(c))
	if err != nil {
		if rmErr := os.Remove(filepath.Join(ticketDir, storedName)); rmErr != nil {
			h.logger.Warn("orphaned upload", zap.String("file", storedName), zap.Error(rmErr))
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.Envelope{
		Success: true,
		Data:    attachment,
		Message: "File uploaded successfully",
	})
}

// List GET /api/tickets/:tt_number/attachments.
func (h *AttachmentsHandler) List(c *fiber.Ctx) error {
	attachments, err := h.service.ListAttachments(c.UserContext(), c.Params("tt_number"))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(attachments))
}
