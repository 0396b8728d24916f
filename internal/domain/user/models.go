package user

import (
	"errors"
	"net/mail"
	"time"
)

// Domain errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidInput = errors.New("invalid input")
)

// User represents an application user
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateParams contains parameters for creating a new user
type CreateParams struct {
	Email        string
	Name         string
	FirstName    string
	LastName     string
	PasswordHash string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return errors.New("email is not valid")
	}
	if p.FirstName == "" {
		return errors.New("first name is required")
	}
	if p.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
