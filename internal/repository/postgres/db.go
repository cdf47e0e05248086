package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"events-service/internal/domain"
	"events-service/internal/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type store struct{ q querier }

func (s store) Temples() repository.TempleRepository             { return &templeRepo{q: s.q} }
func (s store) Profiles() repository.ProfileRepository           { return &profileRepo{q: s.q} }
func (s store) Events() repository.EventRepository               { return &eventRepo{q: s.q} }
func (s store) Results() repository.EventResultRepository        { return &resultRepo{q: s.q} }
func (s store) Registrations() repository.RegistrationRepository { return &registrationRepo{q: s.q} }
func (s store) Audit() repository.AuditRepository                { return &auditRepo{q: s.q} }

type DB struct {
	store
	pool *pgxpool.Pool
}

var _ repository.Database = (*DB)(nil)

func New(pool *pgxpool.Pool) *DB {
	return &DB{store: store{q: pool}, pool: pool}
}

// WithinTx runs fn in a READ COMMITTED transaction. Admission relies on the
// row locks taken by the Lock* methods rather than on isolation level.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *DB) Close() { db.pool.Close() }

const uniqueViolation = "23505"

// uniqueViolationOn reports whether err is a unique violation of the named
// constraint or index.
func uniqueViolationOn(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

func notFound(err error, nf *domain.Error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nf
	}
	return err
}

// syncSequence moves a serial sequence past explicitly inserted ids.
func syncSequence(ctx context.Context, q querier, table string) error {
	_, err := q.Exec(ctx, fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST((SELECT MAX(id) FROM %s), 1))`,
		table, table))
	return err
}
