package minijob_limit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrLimitNotFound = errors.New("minijob limit not found")

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// LockLimits blocks concurrent limit writers until the surrounding transaction ends.
	LockLimits(ctx context.Context) error
	ListLimits(ctx context.Context) ([]Limit, error)
	StoreLimit(ctx context.Context, limit Limit) (Limit, error)
	GetLimit(ctx context.Context, id int) (Limit, error)
	DeleteLimit(ctx context.Context, id int) (Limit, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) LockLimits(ctx context.Context) error {
	if r.tx == nil {
		return errors.New("limit lock requires a transaction")
	}
	_, err := r.tx.Exec(ctx, `LOCK TABLE minijob_limit IN SHARE ROW EXCLUSIVE MODE`)
	if err != nil {
		err := fmt.Errorf("could not lock minijob limits: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

const selectLimit = `SELECT id, amount::text, effective_from, effective_until, description FROM minijob_limit`

func (r *RepositoryImpl) ListLimits(ctx context.Context) ([]Limit, error) {
	rows, err := r.getQueryer().Query(ctx, selectLimit+` ORDER BY effective_from, id`)
	if err != nil {
		err := fmt.Errorf("could not query minijob limits: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	limits := make([]Limit, 0, 4)
	for rows.Next() {
		limit, err := scanLimit(rows)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		limits = append(limits, limit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return limits, nil
}

func (r *RepositoryImpl) StoreLimit(ctx context.Context, limit Limit) (Limit, error) {
	query := `INSERT INTO minijob_limit (amount, effective_from, effective_until, description)
				VALUES ($1::text::numeric, $2, $3, $4) RETURNING id`
	err := r.getQueryer().QueryRow(ctx, query,
		limit.Amount.String(),
		limit.EffectiveFrom,
		limit.EffectiveUntil,
		limit.Description,
	).Scan(&limit.Id)
	if err != nil {
		err := fmt.Errorf("could not store minijob limit: %w", err)
		log.Error(err)
		return Limit{}, err
	}
	return limit, nil
}

func (r *RepositoryImpl) GetLimit(ctx context.Context, id int) (Limit, error) {
	limit, err := scanLimit(r.getQueryer().QueryRow(ctx, selectLimit+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Limit{}, ErrLimitNotFound
	} else if err != nil {
		err := fmt.Errorf("could not get minijob limit: %w", err)
		log.Error(err)
		return Limit{}, err
	}
	return limit, nil
}

func (r *RepositoryImpl) DeleteLimit(ctx context.Context, id int) (Limit, error) {
	query := `DELETE FROM minijob_limit WHERE id = $1
				RETURNING id, amount::text, effective_from, effective_until, description`
	limit, err := scanLimit(r.getQueryer().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Limit{}, ErrLimitNotFound
	} else if err != nil {
		err := fmt.Errorf("could not delete minijob limit: %w", err)
		log.Error(err)
		return Limit{}, err
	}
	return limit, nil
}

func scanLimit(row pgx.Row) (Limit, error) {
	var limit Limit
	var amount string
	var until *time.Time
	err := row.Scan(&limit.Id, &amount, &limit.EffectiveFrom, &until, &limit.Description)
	if err != nil {
		return Limit{}, err
	}
	limit.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Limit{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	limit.EffectiveFrom = dateOnly(limit.EffectiveFrom)
	if until != nil {
		u := dateOnly(*until)
		limit.EffectiveUntil = &u
	}
	return limit, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
