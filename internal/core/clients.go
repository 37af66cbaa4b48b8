package core

import (
	"context"

	"github.com/target/mmk-jobqueue/internal/domain/model"
)

// IdentityProvider manages user accounts at the external identity service (Auth0).
type IdentityProvider interface {
	// CreateUser creates a password user for email and returns its provider id.
	CreateUser(ctx context.Context, email string) (string, error)
	// PasswordResetTicket returns the URL where userID can set a password.
	PasswordResetTicket(ctx context.Context, userID string) (string, error)
}

// TemplateEmail is one templated message sent through the Mailer.
type TemplateEmail struct {
	To            string
	TemplateAlias string
	Model         map[string]any
	// MessageID is attached as metadata so a replayed send can be recognised.
	MessageID string
}

// Mailer delivers transactional email (Postmark).
type Mailer interface {
	SendTemplate(ctx context.Context, msg TemplateEmail) error
}

// AggregatorAPI is the management API of a single aggregator.
type AggregatorAPI interface {
	// TaskIDs returns every task id the aggregator knows, following pagination.
	TaskIDs(ctx context.Context) ([]string, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// AggregatorClientFactory builds an AggregatorAPI for a stored aggregator and its decrypted token.
type AggregatorClientFactory interface {
	ForAggregator(agg *model.Aggregator, bearerToken string) (AggregatorAPI, error)
}
