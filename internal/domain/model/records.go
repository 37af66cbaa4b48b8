package model

import (
	"errors"
	"time"
)

// ErrRecordNotFound is returned when a business record referenced by a job does not exist.
var ErrRecordNotFound = errors.New("record not found")

// Account is a tenant of the administration API.
type Account struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Membership links a user email to an account.
type Membership struct {
	ID        string    `json:"id"         db:"id"`
	AccountID string    `json:"account_id" db:"account_id"`
	UserEmail string    `json:"user_email" db:"user_email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Aggregator is a remote service that holds tasks on behalf of accounts.
type Aggregator struct {
	ID                   string `json:"id"           db:"id"`
	Name                 string `json:"name"         db:"name"`
	APIURL               string `json:"api_url"      db:"api_url"`
	EncryptedBearerToken string `json:"-"            db:"encrypted_bearer_token"`
	IsFirstParty         bool   `json:"is_first_party" db:"is_first_party"`
}
