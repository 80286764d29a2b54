package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/dbx"
	"github.com/dmitrijs2005/tipjar/internal/logging"
	"github.com/dmitrijs2005/tipjar/internal/server/archive"
	"github.com/dmitrijs2005/tipjar/internal/server/config"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipientDirectory is the part of the identity service the ledger relies on.
type RecipientDirectory interface {
	Recipient(ctx context.Context, email string) (*models.User, error)
	TouchDisplayName(ctx context.Context, email, displayName string) error
}

// ContributionInput is a contribution whose payment evidence has already
// been verified.
type ContributionInput struct {
	RecipientEmail    string
	RecipientUsername string
	SupporterName     string
	Amount            decimal.Decimal
	Message           string
	OrderID           string
	PaymentID         string
	Signature         string
}

// Confirmation is what the client reports after paying.
type Confirmation struct {
	OrderID      string
	PaymentID    string
	Signature    string
	Contribution ContributionInput
}

// RecordResult separates the durable outcome from best-effort side effects.
// Contribution is always set when the error is nil. Replayed means the
// payment had already been recorded and nothing new was written. CacheErr and
// ArchiveErr are failures after the commit point; the contribution stands.
type RecordResult struct {
	Contribution *models.Contribution
	Replayed     bool
	CacheErr     error
	ArchiveErr   error
}

type LedgerService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	recipients   RecipientDirectory
	archiver     archive.Archiver
	secret       string
	storeTimeout time.Duration
	logger       logging.Logger
	now          func() time.Time
}

func NewLedgerService(db *sql.DB, m repomanager.RepositoryManager, recipients RecipientDirectory,
	archiver archive.Archiver, cfg *config.Config, logger logging.Logger) *LedgerService {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	return &LedgerService{
		db:           db,
		repomanager:  m,
		recipients:   recipients,
		archiver:     archiver,
		secret:       cfg.GatewayKeySecret,
		storeTimeout: cfg.StoreTimeout,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func validateInput(in *ContributionInput) error {
	in.RecipientEmail = strings.ToLower(strings.TrimSpace(in.RecipientEmail))
	in.RecipientUsername = strings.TrimSpace(in.RecipientUsername)
	in.SupporterName = strings.TrimSpace(in.SupporterName)
	in.Amount = in.Amount.Round(2)

	switch {
	case in.RecipientEmail == "":
		return common.NewValidationError("recipientEmail", "is required")
	case !in.Amount.IsPositive():
		return common.NewValidationError("amount", "must be greater than zero")
	case in.Amount.GreaterThan(MaxAmount):
		return common.NewValidationError("amount", fmt.Sprintf("must be at most %s", MaxAmount))
	case strings.TrimSpace(in.OrderID) == "":
		return common.NewValidationError("orderId", "is required")
	case strings.TrimSpace(in.PaymentID) == "":
		return common.NewValidationError("paymentId", "is required")
	case in.Signature == "":
		return common.NewValidationError("signature", "is required")
	}
	return nil
}

// VerifyAndRecord checks the gateway signature and records the contribution.
// A mismatch returns common.ErrVerificationFailed and writes nothing.
func (s *LedgerService) VerifyAndRecord(ctx context.Context, c Confirmation) (*RecordResult, error) {
	in := c.Contribution
	in.OrderID, in.PaymentID, in.Signature = c.OrderID, c.PaymentID, c.Signature

	if err := validateInput(&in); err != nil {
		return nil, err
	}

	if !Verify(in.OrderID, in.PaymentID, in.Signature, s.secret) {
		s.logger.Warn(ctx, "payment signature mismatch", "order_id", in.OrderID, "payment_id", in.PaymentID)
		return nil, common.ErrVerificationFailed
	}

	return s.Record(ctx, in)
}

// Record appends a verified contribution. The recipient must already exist.
// The insert is the commit point; refreshing the recipient's user row and
// archiving the evidence happen afterwards and never fail the call.
func (s *LedgerService) Record(ctx context.Context, in ContributionInput) (*RecordResult, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	recipient, err := s.recipients.Recipient(ctx, in.RecipientEmail)
	if err != nil {
		return nil, err
	}

	// The ledger points at the stored user; a handle naming someone else is
	// rejected so it cannot credit their stats.
	if in.RecipientUsername != "" && !strings.EqualFold(in.RecipientUsername, recipient.Username) {
		return nil, common.NewValidationError("username", "does not match recipient")
	}

	now := s.now()
	c := &models.Contribution{
		ID:                uuid.NewString(),
		RecipientUsername: recipient.Username,
		RecipientEmail:    recipient.Email,
		SupporterName:     in.SupporterName,
		Amount:            in.Amount,
		Message:           strings.TrimSpace(in.Message),
		GatewayOrderID:    in.OrderID,
		GatewayPaymentID:  in.PaymentID,
		GatewaySignature:  in.Signature,
		Status:            models.StatusCompleted,
		CreatedAt:         now,
		VerifiedAt:        now,
	}

	insCtx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	stored, inserted, err := s.repomanager.Contributions(s.db).Create(insCtx, c)
	cancel()
	if err != nil {
		return nil, storeErr("record contribution", err)
	}

	res := &RecordResult{Contribution: stored, Replayed: !inserted}
	if res.Replayed {
		s.logger.Info(ctx, "contribution replayed", "payment_id", stored.GatewayPaymentID, "contribution_id", stored.ID)
		return res, nil
	}

	s.logger.Info(ctx, "contribution recorded",
		"contribution_id", stored.ID, "recipient", stored.RecipientEmail, "amount", stored.Amount.StringFixed(2))

	if err := s.recipients.TouchDisplayName(ctx, stored.RecipientEmail, recipient.Username); err != nil {
		res.CacheErr = err
		s.logger.Warn(ctx, "recipient user refresh failed", "recipient", stored.RecipientEmail, "error", err)
	}

	if err := s.archiver.Archive(ctx, stored); err != nil {
		res.ArchiveErr = err
		s.logger.Warn(ctx, "evidence archive failed", "payment_id", stored.GatewayPaymentID, "error", err)
	}

	return res, nil
}
