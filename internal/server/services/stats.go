package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/dbx"
	"github.com/dmitrijs2005/tipjar/internal/server/config"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// UserLookup resolves a recipient identifier to a stored user.
type UserLookup interface {
	Lookup(ctx context.Context, identifier string) (*models.User, error)
	Recipient(ctx context.Context, email string) (*models.User, error)
}

// Profile is a recipient with its ledger and aggregates. User may be
// synthesized from the identifier or the ledger when no row exists, in which
// case its ID is empty.
type Profile struct {
	User          *models.User
	Contributions []*models.Contribution
	Stats         models.Stats
}

type StatsService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	users        UserLookup
	storeTimeout time.Duration
}

func NewStatsService(db *sql.DB, m repomanager.RepositoryManager, users UserLookup, cfg *config.Config) *StatsService {
	return &StatsService{db: db, repomanager: m, users: users, storeTimeout: cfg.StoreTimeout}
}

// Summarize computes the aggregates of a set of contributions. The average is
// rounded to two places and is zero for an empty set.
func Summarize(contributions []*models.Contribution) models.Stats {
	total := decimal.Zero
	for _, c := range contributions {
		total = total.Add(c.Amount)
	}

	st := models.Stats{
		TotalEarnings:  total,
		SupporterCount: len(contributions),
		AverageSupport: decimal.Zero,
	}
	if st.SupporterCount > 0 {
		st.AverageSupport = total.Div(decimal.NewFromInt(int64(st.SupporterCount))).Round(2)
	}
	return st
}

func (s *StatsService) list(ctx context.Context, email, username string) ([]*models.Contribution, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	list, err := s.repomanager.Contributions(s.db).ListByRecipient(ctx, email, username)
	if err != nil {
		return nil, storeErr("list contributions", err)
	}
	return list, nil
}

// recipientKeys turns an identifier into the (email, username) pair used to
// match ledger rows. A known user contributes its stored email and username.
func (s *StatsService) recipientKeys(ctx context.Context, identifier string) (*models.User, string, string, error) {
	user, err := s.users.Lookup(ctx, identifier)
	if err == nil {
		return user, user.Email, user.Username, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, "", "", err
	}

	email := ""
	if strings.Contains(identifier, "@") {
		email = strings.ToLower(identifier)
	}
	stub := &models.User{Email: email, Username: identifier, DisplayName: identifier}
	return stub, email, identifier, nil
}

// Profile returns the recipient's user info, contributions (newest first) and
// aggregates. Unknown identifiers yield an empty profile, not an error.
func (s *StatsService) Profile(ctx context.Context, identifier string) (*Profile, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, common.NewValidationError("identifier", "is required")
	}

	user, email, username, err := s.recipientKeys(ctx, identifier)
	if err != nil {
		return nil, err
	}

	list, err := s.list(ctx, email, username)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Contributions: list, Stats: Summarize(list)}, nil
}

// Aggregate recomputes the recipient's stats from the ledger.
func (s *StatsService) Aggregate(ctx context.Context, identifier string) (*models.Stats, error) {
	p, err := s.Profile(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return &p.Stats, nil
}

// ProfileByEmail serves the user endpoint. When no user row exists the
// profile is derived from the ledger; with neither it is common.ErrorNotFound.
func (s *StatsService) ProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Recipient(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	if user != nil {
		list, err := s.list(ctx, user.Email, user.Username)
		if err != nil {
			return nil, err
		}
		return &Profile{User: user, Contributions: list, Stats: Summarize(list)}, nil
	}

	list, err := s.list(ctx, email, "")
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.ErrorNotFound
	}

	username := list[0].RecipientUsername
	if username == "" {
		username = localPart(email)
	}
	derived := &models.User{Email: email, Username: username, DisplayName: username}
	return &Profile{User: derived, Contributions: list, Stats: Summarize(list)}, nil
}

// Contributions returns the raw ledger for a recipient, newest first.
func (s *StatsService) Contributions(ctx context.Context, email, username string) ([]*models.Contribution, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" && username == "" {
		return nil, common.NewValidationError("", "username or email is required")
	}
	return s.list(ctx, email, username)
}
