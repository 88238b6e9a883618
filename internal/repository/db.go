package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Store groups the repositories of one backend.
type Store struct {
	Tickets     TicketRepository
	Activities  ActivityRepository
	Attachments AttachmentRepository
}

// NewPostgresStore wires the relational repositories onto db.
func NewPostgresStore(db DB) *Store {
	return &Store{
		Tickets:     NewTicketRepository(db),
		Activities:  NewActivityRepository(db),
		Attachments: NewAttachmentRepository(db),
	}
}

// storageError passes domain errors through and reports everything else as
// an unavailable backend.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewBackendUnavailable(err)
}
