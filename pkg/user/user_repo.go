package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	WithTransaction(ctx context.Context, fn func(repo Repo) error) error
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	// GetUserForUpdate reads the user and locks its row until the surrounding transaction ends.
	GetUserForUpdate(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, userId int, user User) (User, error)
	DeleteUser(ctx context.Context, id int) error
	GetAllUsers(ctx context.Context) ([]User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const selectUser = `SELECT id, uid, username, display_name, timezone, billing_start_day, billing_end_day,
				hourly_rate::text FROM users`

func (u *UserRepoImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UserRepoImpl) WithTransaction(ctx context.Context, fn func(repo Repo) error) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&UserRepoImpl{db: u.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	query := `INSERT INTO users (uid, username, display_name, timezone, billing_start_day, billing_end_day, hourly_rate)
				VALUES ($1, $2, $3, $4, $5, $6, $7::text::numeric) RETURNING id`
	var id int
	err := u.getQueryer().QueryRow(ctx, query,
		user.Uid,
		user.Username,
		user.DisplayName,
		user.Settings.Timezone,
		user.Settings.BillingPeriod.StartDay,
		user.Settings.BillingPeriod.EndDay,
		user.Settings.HourlyRate.String(),
	).Scan(&id)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return 0, err
	}
	return id, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (u *UserRepoImpl) GetUserForUpdate(ctx context.Context, id int) (User, error) {
	return u.getOne(ctx, selectUser+` WHERE id = $1 FOR UPDATE`, id)
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.getOne(ctx, selectUser+` WHERE uid = $1`, uid)
}

func (u *UserRepoImpl) getOne(ctx context.Context, query string, arg any) (User, error) {
	user, err := scanUser(u.getQueryer().QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user %v not found", arg)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	query := `UPDATE users SET display_name = $1, timezone = $2, billing_start_day = $3, billing_end_day = $4,
				hourly_rate = $5::text::numeric WHERE id = $6`
	result, err := u.getQueryer().Exec(ctx, query,
		user.DisplayName,
		user.Settings.Timezone,
		user.Settings.BillingPeriod.StartDay,
		user.Settings.BillingPeriod.EndDay,
		user.Settings.HourlyRate.String(),
		userId,
	)
	if err != nil {
		log.Errorf("failed to update user: %v", err)
		return User{}, err
	}
	if result.RowsAffected() == 0 {
		log.Info("no rows affected of updating user")
		return User{}, ErrUserNotFound
	}
	user.Id = userId
	return user, nil
}

func (u *UserRepoImpl) DeleteUser(ctx context.Context, id int) error {
	result, err := u.getQueryer().Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		log.Info("no rows affected of deleting user")
		return ErrUserNotFound
	}
	return nil
}

func (u *UserRepoImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	rows, err := u.getQueryer().Query(ctx, selectUser+` ORDER BY id`)
	if err != nil {
		log.Errorf("failed to get users: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0, 10)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Errorf("failed to scan user: %v", err)
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return users, nil
}

func (u *UserRepoImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var count int
	err := u.getQueryer().QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count)
	if err != nil {
		log.Errorf("failed to check username availability: %v", err)
		return false, err
	}
	return count == 0, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	var startDay, endDay int
	var rate string
	err := row.Scan(
		&user.Id,
		&user.Uid,
		&user.Username,
		&user.DisplayName,
		&user.Settings.Timezone,
		&startDay,
		&endDay,
		&rate,
	)
	if err != nil {
		return User{}, err
	}
	user.Settings.BillingPeriod = billing_period.Config{StartDay: startDay, EndDay: endDay}
	user.Settings.HourlyRate, err = decimal.NewFromString(rate)
	if err != nil {
		return User{}, fmt.Errorf("invalid hourly rate %q: %w", rate, err)
	}
	return user, nil
}
