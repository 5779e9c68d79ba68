package user

import (
	"context"
	"errors"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const UserKey contextKey = "user"

var ErrNoUser = errors.New("user not found in context")

// CurrentUser returns the user the request middleware stored in ctx.
func CurrentUser(ctx context.Context) (User, error) {
	user, ok := ctx.Value(UserKey).(User)
	if !ok {
		log.Trace("user not found in context")
		return User{}, ErrNoUser
	}
	return user, nil
}

// CurrentId retrieves the current user's ID from the context. Returns ErrNoUser if ID not present in context.
func CurrentId(ctx context.Context) (int, error) {
	user, err := CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	return user.Id, nil
}

// CurrentBilling returns the billing period configuration and timezone of the current user.
func CurrentBilling(ctx context.Context) (billing_period.Config, *time.Location, error) {
	user, err := CurrentUser(ctx)
	if err != nil {
		return billing_period.Config{}, nil, err
	}
	return user.Settings.BillingPeriod, user.Settings.Location(), nil
}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}
