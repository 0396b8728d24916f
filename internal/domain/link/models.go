package link

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Domain errors
var (
	ErrInvalidPublicToken = errors.New("public token is malformed")
	ErrDuplicateLink      = errors.New("institution already linked for this user")
	ErrLinkNotFound       = errors.New("linked account not found")
	ErrForbidden          = errors.New("access forbidden")
)

// publicTokenEnvs are the environments a public token can be issued for
var publicTokenEnvs = map[string]struct{}{
	"sandbox":     {},
	"development": {},
	"production":  {},
}

// LinkedAccount represents a durable connection to a financial institution.
// The access token never leaves the server; it is stored encrypted and
// excluded from JSON.
type LinkedAccount struct {
	ID              string     `json:"id"`
	UserID          int64      `json:"userId"`
	ItemID          string     `json:"-"`
	AccessToken     string     `json:"-"`
	InstitutionName string     `json:"institutionName"`
	RelinkRequired  bool       `json:"relinkRequired"`
	LastSyncedAt    *time.Time `json:"lastSyncedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CreateParams contains parameters for persisting a new linked account
type CreateParams struct {
	ID              string
	UserID          int64
	ItemID          string
	AccessToken     string
	InstitutionName string
}

// SyncOutcome reports which stages of an exchange-and-sync completed.
// Stages degrade independently: a failed sync still leaves a usable link.
type SyncOutcome struct {
	TokenExchanged     bool   `json:"tokenExchanged"`
	TransactionsSynced bool   `json:"transactionsSynced"`
	InsightsGenerated  bool   `json:"insightsGenerated"`
	InstitutionName    string `json:"institutionName,omitempty"`
}

// ValidatePublicToken checks the shape of a public token locally, before any
// provider call: "public-<environment>-<uuid>". A malformed token is rejected
// without spending a network round trip.
func ValidatePublicToken(token string) error {
	rest, ok := strings.CutPrefix(token, "public-")
	if !ok {
		return ErrInvalidPublicToken
	}

	env, id, ok := strings.Cut(rest, "-")
	if !ok {
		return ErrInvalidPublicToken
	}

	if _, valid := publicTokenEnvs[env]; !valid {
		return ErrInvalidPublicToken
	}

	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidPublicToken
	}

	return nil
}
