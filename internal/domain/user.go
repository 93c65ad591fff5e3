package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user account is inactive")
)

// User is a passwordless account identified by phone number.
type User struct {
	PhoneNumber string
	Email       *string
	Name        *string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileUpdate carries a partial profile change. nil fields are left untouched.
type ProfileUpdate struct {
	Email *string
	Name  *string
}
