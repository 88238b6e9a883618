package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/vnoc/incident-tracker/internal/domain"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id int64) (*domain.Attachment, error)
	ListByTicket(ctx context.Context, ttNumber string) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	db DB
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(db DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

const attachmentColumns = `attachment_id, tt_number, original_filename, stored_filename, file_path, file_size, mime_type, uploaded_by, uploaded_at`

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const sql = `
        INSERT INTO vnoc.ticket_attachments (tt_number, original_filename, stored_filename, file_path, file_size, mime_type, uploaded_by, uploaded_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING attachment_id`
	err := r.db.QueryRow(ctx, sql,
		attachment.TTNumber,
		attachment.OriginalFilename,
		attachment.StoredFilename,
		attachment.FilePath,
		attachment.FileSize,
		attachment.MimeType,
		attachment.UploadedBy,
		attachment.UploadedAt,
	).Scan(&attachment.ID)
	return storageError(err)
}

func (r *attachmentRepository) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	const sql = `SELECT ` + attachmentColumns + ` FROM vnoc.ticket_attachments WHERE attachment_id=$1`
	attachment, err := scanAttachment(r.db.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": id})
	}
	if err != nil {
		return nil, storageError(err)
	}
	return attachment, nil
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ttNumber string) ([]domain.Attachment, error) {
	const sql = `
        SELECT ` + attachmentColumns + `
        FROM vnoc.ticket_attachments WHERE tt_number=$1
        ORDER BY uploaded_at DESC, attachment_id DESC`
	rows, err := r.db.Query(ctx, sql, ttNumber)
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	result := []domain.Attachment{}
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, storageError(err)
		}
		result = append(result, *attachment)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err)
	}
	return result, nil
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var a domain.Attachment
	if err := row.Scan(
		&a.ID,
		&a.TTNumber,
		&a.OriginalFilename,
		&a.StoredFilename,
		&a.FilePath,
		&a.FileSize,
		&a.MimeType,
		&a.UploadedBy,
		&a.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
