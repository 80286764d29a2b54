package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/dbx"
	"github.com/dmitrijs2005/tipjar/internal/logging"
	"github.com/dmitrijs2005/tipjar/internal/server/config"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Outcome tags how Resolve treated a principal.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeCreated  Outcome = "created"
	OutcomeRejected Outcome = "rejected"
)

type Resolution struct {
	Outcome Outcome
	User    *models.User
}

// BackfillResult reports a users rebuild from the ledger.
type BackfillResult struct {
	Scanned int
	Created int
}

type IdentityService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	storeTimeout time.Duration
	logger       logging.Logger
	now          func() time.Time
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *IdentityService {
	return &IdentityService{
		db:           db,
		repomanager:  m,
		storeTimeout: cfg.StoreTimeout,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail trims and lower-cases an address and rejects anything that
// is obviously not one.
func NormalizeEmail(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", common.NewValidationError("email", "is required")
	}
	if at := strings.IndexByte(e, '@'); at <= 0 || at == len(e)-1 {
		return "", common.NewValidationError("email", "is malformed")
	}
	return e, nil
}

func stripHandle(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// DeriveUsername picks the first non-empty candidate among the explicit
// username, the name and the email local part, each stripped to [A-Za-z0-9].
// It falls back to "user".
func DeriveUsername(p models.Principal) string {
	for _, candidate := range []string{p.Username, p.Name, localPart(p.Email)} {
		if h := stripHandle(candidate); h != "" {
			return h
		}
	}
	return "user"
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Resolve finds the user for a verified principal or creates one. An existing
// user only gets its last login bumped; username and display name stay as
// first written.
func (s *IdentityService) Resolve(ctx context.Context, p models.Principal) (*Resolution, error) {
	email, err := NormalizeEmail(p.Email)
	if err != nil {
		return &Resolution{Outcome: OutcomeRejected}, err
	}
	p.Email = email

	username := DeriveUsername(p)
	displayName := strings.TrimSpace(p.Name)
	if displayName == "" {
		displayName = username
	}

	candidate := &models.User{
		ID:          uuid.NewString(),
		Email:       email,
		Username:    username,
		DisplayName: displayName,
		Image:       optional(p.Image),
		Provider:    p.Provider,
		ProviderID:  optional(p.ProviderID),
		CreatedAt:   s.now(),
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, created, err := s.repomanager.Users(s.db).FindOrCreate(ctx, candidate)
	if err != nil {
		return nil, storeErr("resolve user", err)
	}

	outcome := OutcomeFound
	if created {
		outcome = OutcomeCreated
		s.logger.Info(ctx, "user created", "user_id", user.ID, "username", user.Username, "provider", user.Provider)
	}
	return &Resolution{Outcome: outcome, User: user}, nil
}

// Recipient returns the user a contribution may target.
func (s *IdentityService) Recipient(ctx context.Context, email string) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	return user, storeErr("get recipient", err)
}

// TouchDisplayName refreshes the denormalized copy kept on the user row: the
// display name is filled only when empty and updated_at is bumped.
func (s *IdentityService) TouchDisplayName(ctx context.Context, email, displayName string) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	err := s.repomanager.Users(s.db).TouchDisplayName(ctx, strings.ToLower(strings.TrimSpace(email)), displayName, s.now())
	return storeErr("touch user", err)
}

// Lookup finds a user by email first, then by username.
func (s *IdentityService) Lookup(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, common.NewValidationError("identifier", "is required")
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	repo := s.repomanager.Users(s.db)

	if strings.Contains(identifier, "@") {
		user, err := repo.GetByEmail(ctx, strings.ToLower(identifier))
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, storeErr("lookup user", err)
		}
	}

	user, err := repo.GetByUsername(ctx, identifier)
	return user, storeErr("lookup user", err)
}

// Upsert applies an administrative patch, creating the user when the email is
// unknown. It reports whether a row was created.
func (s *IdentityService) Upsert(ctx context.Context, email string, patch models.UserPatch) (*models.User, bool, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, false, err
	}
	if patch.Username != nil {
		h := stripHandle(*patch.Username)
		if h == "" {
			return nil, false, common.NewValidationError("username", "must contain letters or digits")
		}
		patch.Username = &h
	}

	p := models.Principal{Email: email}
	if patch.Username != nil {
		p.Username = *patch.Username
	}
	defaults := &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  DeriveUsername(p),
		UpdatedAt: s.now(),
	}
	defaults.DisplayName = defaults.Username
	if patch.DisplayName != nil {
		defaults.DisplayName = *patch.DisplayName
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, created, err := s.repomanager.Users(s.db).Upsert(ctx, defaults, patch)
	if err != nil {
		return nil, false, storeErr("upsert user", err)
	}
	return user, created, nil
}

// Backfill creates a user for every ledger recipient that has none yet.
// Existing users are left untouched.
func (s *IdentityService) Backfill(ctx context.Context) (*BackfillResult, error) {
	listCtx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	recipients, err := s.repomanager.Contributions(s.db).DistinctRecipients(listCtx)
	cancel()
	if err != nil {
		return nil, storeErr("list recipients", err)
	}

	res := &BackfillResult{}
	seen := make(map[string]struct{}, len(recipients))
	repo := s.repomanager.Users(s.db)

	for _, rc := range recipients {
		email, err := NormalizeEmail(rc.Email)
		if err != nil {
			s.logger.Warn(ctx, "skipping recipient with malformed email", "email", rc.Email)
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		res.Scanned++

		username := DeriveUsername(models.Principal{Email: email, Username: rc.Username})
		user := &models.User{
			ID:          uuid.NewString(),
			Email:       email,
			Username:    username,
			DisplayName: username,
			CreatedAt:   s.now(),
		}

		insCtx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
		created, err := repo.InsertIfAbsent(insCtx, user)
		cancel()
		if err != nil {
			return res, storeErr("backfill user", err)
		}
		if created {
			res.Created++
		}
	}

	s.logger.Info(ctx, "users backfill finished", "scanned", res.Scanned, "created", res.Created)
	return res, nil
}
