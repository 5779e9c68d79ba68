package time_entry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrEntryNotFound = errors.New("time entry not found")

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// LockUser serializes writes of one user's entries until the surrounding transaction ends.
	LockUser(ctx context.Context, userId int) error
	StoreEntry(ctx context.Context, userId int, entry Entry) (Entry, error)
	GetEntry(ctx context.Context, userId int, uid string) (Entry, error)
	// ListEntries returns entries dated between from and to inclusive, ordered by date and start.
	ListEntries(ctx context.Context, userId int, from, to time.Time) ([]Entry, error)
	UpdateEntry(ctx context.Context, userId int, entry Entry) (Entry, error)
	DeleteEntry(ctx context.Context, userId int, uid string) (Entry, error)
	EarliestEntryDate(ctx context.Context, userId int) (time.Time, bool, error)
	HasEntries(ctx context.Context, userId int) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
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

func (r *RepositoryImpl) LockUser(ctx context.Context, userId int) error {
	if r.tx == nil {
		return errors.New("user lock requires a transaction")
	}
	var id int
	err := r.tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userId).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not lock user %d: %w", userId, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) StoreEntry(ctx context.Context, userId int, entry Entry) (Entry, error) {
	query := `INSERT INTO time_entry (uid, user_id, entry_date, start_minute, end_minute, break_minutes, description)
				VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	if entry.Uid == "" {
		entry.Uid = uuid.NewString()
	}
	err := r.getQueryer().QueryRow(ctx, query,
		entry.Uid,
		userId,
		entry.Date,
		int(entry.Start),
		int(entry.End),
		entry.BreakMinutes,
		entry.Description,
	).Scan(&entry.Id)
	if err != nil {
		err := fmt.Errorf("could not store time entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	return entry, nil
}

const selectEntry = `SELECT id, uid, entry_date, start_minute, end_minute, break_minutes, description FROM time_entry`

func (r *RepositoryImpl) GetEntry(ctx context.Context, userId int, uid string) (Entry, error) {
	entry, err := scanEntry(r.getQueryer().QueryRow(ctx, selectEntry+` WHERE user_id = $1 AND uid = $2`, userId, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	} else if err != nil {
		err := fmt.Errorf("could not get time entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	return entry, nil
}

func (r *RepositoryImpl) ListEntries(ctx context.Context, userId int, from, to time.Time) ([]Entry, error) {
	query := selectEntry + ` WHERE user_id = $1 AND entry_date BETWEEN $2 AND $3 ORDER BY entry_date, start_minute, id`
	rows, err := r.getQueryer().Query(ctx, query, userId, from, to)
	if err != nil {
		err := fmt.Errorf("could not query time entries: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, 32)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return entries, nil
}

func (r *RepositoryImpl) UpdateEntry(ctx context.Context, userId int, entry Entry) (Entry, error) {
	query := `UPDATE time_entry SET entry_date = $1, start_minute = $2, end_minute = $3, break_minutes = $4, description = $5
				WHERE uid = $6 AND user_id = $7 RETURNING id`
	err := r.getQueryer().QueryRow(ctx, query,
		entry.Date,
		int(entry.Start),
		int(entry.End),
		entry.BreakMinutes,
		entry.Description,
		entry.Uid,
		userId,
	).Scan(&entry.Id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	} else if err != nil {
		err := fmt.Errorf("could not update time entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	return entry, nil
}

func (r *RepositoryImpl) DeleteEntry(ctx context.Context, userId int, uid string) (Entry, error) {
	query := `DELETE FROM time_entry WHERE uid = $1 AND user_id = $2
				RETURNING id, uid, entry_date, start_minute, end_minute, break_minutes, description`
	entry, err := scanEntry(r.getQueryer().QueryRow(ctx, query, uid, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	} else if err != nil {
		err := fmt.Errorf("could not delete time entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	return entry, nil
}

func (r *RepositoryImpl) EarliestEntryDate(ctx context.Context, userId int) (time.Time, bool, error) {
	var earliest *time.Time
	err := r.getQueryer().QueryRow(ctx, `SELECT MIN(entry_date) FROM time_entry WHERE user_id = $1`, userId).Scan(&earliest)
	if err != nil {
		err := fmt.Errorf("could not query earliest entry date: %w", err)
		log.Error(err)
		return time.Time{}, false, err
	}
	if earliest == nil {
		return time.Time{}, false, nil
	}
	return dateOnly(*earliest), true, nil
}

func (r *RepositoryImpl) HasEntries(ctx context.Context, userId int) (bool, error) {
	var exists bool
	err := r.getQueryer().QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM time_entry WHERE user_id = $1)`, userId).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check time entries: %w", err)
	}
	return exists, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var start, end int
	err := row.Scan(&entry.Id, &entry.Uid, &entry.Date, &start, &end, &entry.BreakMinutes, &entry.Description)
	if err != nil {
		return Entry{}, err
	}
	entry.Date = dateOnly(entry.Date)
	entry.Start = ClockTime(start)
	entry.End = ClockTime(end)
	return entry, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
