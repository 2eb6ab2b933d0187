package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/saeid-a/CoachBooking/internal/models"
)

// SlotTx is the set of writes an allocation may perform while it holds the
// slot lock. Every call runs inside the same transaction.
type SlotTx interface {
	CountActiveBookings(ctx context.Context, key models.SlotKey) (int, error)
	CreateSession(ctx context.Context, input CreateSessionInput) (*models.Session, error)
	CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error)
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SlotStore serialises allocations per (coach, date, time) with a transaction
// scoped advisory lock. Allocations for different slots never wait on each other.
type SlotStore struct {
	db          txBeginner
	lockTimeout time.Duration
}

func NewSlotStore(db txBeginner, lockTimeout time.Duration) *SlotStore {
	return &SlotStore{db: db, lockTimeout: lockTimeout}
}

type slotTx struct {
	bookings *BookingRepository
	sessions *SessionRepository
}

func (t *slotTx) CountActiveBookings(ctx context.Context, key models.SlotKey) (int, error) {
	return t.bookings.CountActiveForSlot(ctx, key)
}

func (t *slotTx) CreateSession(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	return t.sessions.Create(ctx, input)
}

func (t *slotTx) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	return t.bookings.Create(ctx, input)
}

// WithSlotLock runs fn in a transaction holding the slot's advisory lock and
// commits when fn returns nil. A serialization failure or deadlock is retried
// once; fn must therefore be safe to run twice.
func (s *SlotStore) WithSlotLock(ctx context.Context, key models.SlotKey, fn func(tx SlotTx) error) error {
	err := s.runLocked(ctx, key, fn)
	if IsRetryableConflict(err) {
		err = s.runLocked(ctx, key, fn)
	}
	return err
}

func (s *SlotStore) runLocked(ctx context.Context, key models.SlotKey, fn func(tx SlotTx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if s.lockTimeout > 0 {
		// SET LOCAL does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key.String()); err != nil {
		return err
	}

	if err := fn(&slotTx{
		bookings: NewBookingRepository(tx),
		sessions: NewSessionRepository(tx),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// IsRetryableConflict reports serialization failures and deadlocks.
func IsRetryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// IsLockTimeout reports a lock_timeout expiry while waiting for the slot lock.
func IsLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
