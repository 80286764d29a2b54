package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/dbx"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
)

const userColumns = `id, email, username, display_name, image, provider, provider_id, created_at, updated_at, last_login`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*models.User, error) {
	var (
		u          models.User
		image      sql.NullString
		providerID sql.NullString
		lastLogin  sql.NullTime
	)

	dest := []any{&u.ID, &u.Email, &u.Username, &u.DisplayName, &image, &u.Provider, &providerID,
		&u.CreatedAt, &u.UpdatedAt, &lastLogin}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if image.Valid {
		u.Image = &image.String
	}
	if providerID.Valid {
		u.ProviderID = &providerID.String
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

func (r *PostgresRepository) FindOrCreate(ctx context.Context, user *models.User) (*models.User, bool, error) {
	query :=
		`INSERT INTO users (id, email, username, display_name, image, provider, provider_id, created_at, updated_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $8)
		 ON CONFLICT (email) DO UPDATE SET last_login = EXCLUDED.last_login, updated_at = EXCLUDED.updated_at
		 RETURNING ` + userColumns + `, (xmax = 0) AS inserted`

	var created bool
	stored, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Username, user.DisplayName, user.Image, user.Provider, user.ProviderID, user.CreatedAt,
	), &created)
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	return stored, created, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 ORDER BY created_at LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) TouchDisplayName(ctx context.Context, email, displayName string, at time.Time) error {
	query :=
		`UPDATE users
		 SET display_name = CASE WHEN display_name = '' THEN $2 ELSE display_name END, updated_at = $3
		 WHERE email = $1`

	res, err := r.db.ExecContext(ctx, query, email, displayName, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, defaults *models.User, patch models.UserPatch) (*models.User, bool, error) {
	query :=
		`INSERT INTO users (id, email, username, display_name, image, provider, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (email) DO UPDATE SET
			username = COALESCE($8, users.username),
			display_name = COALESCE($9, users.display_name),
			image = COALESCE($5, users.image),
			updated_at = EXCLUDED.updated_at
		 RETURNING ` + userColumns + `, (xmax = 0) AS inserted`

	var created bool
	stored, err := scanUser(r.db.QueryRowContext(ctx, query,
		defaults.ID, defaults.Email, defaults.Username, defaults.DisplayName, patch.Image, defaults.Provider, defaults.UpdatedAt,
		patch.Username, patch.DisplayName,
	), &created)
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}
	return stored, created, nil
}

func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	query :=
		`INSERT INTO users (id, email, username, display_name, provider, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (email) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.DisplayName, user.Provider, user.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}
