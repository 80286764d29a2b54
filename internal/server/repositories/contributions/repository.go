// Package contributions persists the append-only supporter ledger.
package contributions

import (
	"context"

	"github.com/dmitrijs2005/tipjar/internal/server/models"
)

type Repository interface {
	// Create appends c unless a row with the same gateway payment id exists.
	// On such a replay the stored row is returned with inserted=false.
	Create(ctx context.Context, c *models.Contribution) (stored *models.Contribution, inserted bool, err error)

	GetByPaymentID(ctx context.Context, paymentID string) (*models.Contribution, error)

	// ListByRecipient returns rows whose recipient email equals email or whose
	// recipient username equals username, newest first. Empty arguments never
	// match. Each row appears once even if both match.
	ListByRecipient(ctx context.Context, email, username string) ([]*models.Contribution, error)

	// DistinctRecipients lists every (email, username) pair seen on the ledger.
	DistinctRecipients(ctx context.Context) ([]models.Recipient, error)
}
