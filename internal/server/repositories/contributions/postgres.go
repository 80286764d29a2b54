package contributions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/dbx"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
)

const contributionColumns = `id, recipient_username, recipient_email, supporter_name, amount::text, message,
	gateway_order_id, gateway_payment_id, gateway_signature, status, created_at, verified_at`

// PostgresRepository implements the ledger over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContribution(row rowScanner) (*models.Contribution, error) {
	var (
		c      models.Contribution
		amount sql.NullString
		status string
	)
	if err := row.Scan(&c.ID, &c.RecipientUsername, &c.RecipientEmail, &c.SupporterName, &amount, &c.Message,
		&c.GatewayOrderID, &c.GatewayPaymentID, &c.GatewaySignature, &status, &c.CreatedAt, &c.VerifiedAt); err != nil {
		return nil, err
	}
	c.Amount = models.ParseAmount(amount.String)
	c.Status = models.ContributionStatus(status)
	return &c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Contribution) (*models.Contribution, bool, error) {
	query := `
		INSERT INTO contributions (id, recipient_username, recipient_email, supporter_name, amount, message,
			gateway_order_id, gateway_payment_id, gateway_signature, status, created_at, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (gateway_payment_id) DO NOTHING
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.RecipientUsername, c.RecipientEmail, c.SupporterName, c.Amount.String(), c.Message,
		c.GatewayOrderID, c.GatewayPaymentID, c.GatewaySignature, string(c.Status), c.CreatedAt, c.VerifiedAt,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		existing, err := r.GetByPaymentID(ctx, c.GatewayPaymentID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	stored := *c
	stored.ID = id
	return &stored, true, nil
}

func (r *PostgresRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions WHERE gateway_payment_id = $1`

	c, err := scanContribution(r.db.QueryRowContext(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByRecipient(ctx context.Context, email, username string) ([]*models.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions
		WHERE ($1 <> '' AND recipient_email = $1) OR ($2 <> '' AND recipient_username = $2)
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, email, username)
	if err != nil {
		return nil, fmt.Errorf("failed to select contributions: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Contribution, 0)
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DistinctRecipients(ctx context.Context) ([]models.Recipient, error) {
	query := `SELECT DISTINCT recipient_email, recipient_username FROM contributions
		WHERE recipient_email <> ''
		ORDER BY recipient_email, recipient_username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select recipients: %w", err)
	}
	defer rows.Close()

	var result []models.Recipient
	for rows.Next() {
		var rc models.Recipient
		if err := rows.Scan(&rc.Email, &rc.Username); err != nil {
			return nil, err
		}
		result = append(result, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
