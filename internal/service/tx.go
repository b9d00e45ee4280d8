package service

import (
	"context"
	"errors"
	"fmt"

	"stallsync/internal/ledger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Actor identifies the authenticated user performing a mutation. Both id and
// display name are denormalized into every movement row.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// txMaxRetries bounds transparent re-execution after store-level conflict
// aborts. Beyond this, the caller gets ErrContention. Overridable at boot
// via SetTxMaxRetries (TX_MAX_RETRIES).
var txMaxRetries = 3

// SetTxMaxRetries adjusts the retry bound. Values below 1 are ignored.
func SetTxMaxRetries(n int) {
	if n >= 1 {
		txMaxRetries = n
	}
}

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly when db is nil (unit test mode).
//
// Serialization and deadlock aborts (SQLSTATE 40001 / 40P01) re-run the whole
// closure: an aborted attempt committed nothing, so re-execution produces
// exactly one durable set of record mutations and movement rows.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	var err error
	for attempt := 1; attempt <= txMaxRetries; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !isConflictAbort(err) {
			return err
		}
		log.Warn().Int("attempt", attempt).Err(err).Msg("transaction aborted by conflict, retrying")
	}
	return fmt.Errorf("%w: %v", ledger.ErrContention, err)
}

// isConflictAbort reports whether the store rejected the transaction because
// of a concurrent conflicting write rather than a business rule.
func isConflictAbort(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// notFound translates gorm's sentinel into the ledger taxonomy.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ledger.ErrNotFound, what)
	}
	return err
}
