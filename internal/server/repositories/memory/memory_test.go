package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_FindOrCreateConcurrent(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[string]struct{}{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, isNew, err := repo.FindOrCreate(ctx, &models.User{
				ID: fmt.Sprintf("u-%d", i), Email: "race@x.com", Username: "race", CreatedAt: time.Now(),
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if isNew {
				created++
			}
			ids[u.ID] = struct{}{}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
	assert.Equal(t, 1, repo.Len())
}

func TestUsers_FindOrCreateBumpsLastLogin(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	_, _, err := repo.FindOrCreate(ctx, &models.User{ID: "u-1", Email: "a@x.com", DisplayName: "First", CreatedAt: t0})
	require.NoError(t, err)

	got, isNew, err := repo.FindOrCreate(ctx, &models.User{ID: "u-2", Email: "a@x.com", DisplayName: "Second", CreatedAt: t1})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "First", got.DisplayName)
	assert.Equal(t, t0, got.CreatedAt)
	require.NotNil(t, got.LastLogin)
	assert.Equal(t, t1, *got.LastLogin)
}

func TestUsers_LookupsAndTouch(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	ok, err := repo.InsertIfAbsent(ctx, &models.User{ID: "u-2", Email: "b@x.com", Username: "dup", CreatedAt: t0.Add(time.Minute)})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.InsertIfAbsent(ctx, &models.User{ID: "u-1", Email: "a@x.com", Username: "dup", CreatedAt: t0})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.InsertIfAbsent(ctx, &models.User{ID: "u-3", Email: "a@x.com", Username: "dup", CreatedAt: t0})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByUsername(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email, "oldest wins on username collision")

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, repo.TouchDisplayName(ctx, "a@x.com", "Alice", t0.Add(time.Hour)))
	require.NoError(t, repo.TouchDisplayName(ctx, "a@x.com", "Someone Else", t0.Add(2*time.Hour)))
	got, err = repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, t0.Add(2*time.Hour), got.UpdatedAt)

	assert.ErrorIs(t, repo.TouchDisplayName(ctx, "ghost@x.com", "g", t0), common.ErrorNotFound)
}

func TestUsers_Upsert(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	name := "Alice A."
	img := "http://img"

	u, created, err := repo.Upsert(ctx, &models.User{ID: "u-1", Email: "a@x.com", Username: "a", DisplayName: "a", UpdatedAt: t0}, models.UserPatch{})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, t0, u.CreatedAt)

	u, created, err = repo.Upsert(ctx, &models.User{ID: "u-2", Email: "a@x.com", Username: "zzz", UpdatedAt: t0.Add(time.Hour)},
		models.UserPatch{DisplayName: &name, Image: &img})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "a", u.Username)
	assert.Equal(t, name, u.DisplayName)
	require.NotNil(t, u.Image)
	assert.Equal(t, img, *u.Image)
}

func TestUsers_CancelledContext(t *testing.T) {
	repo := NewUsersRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := repo.FindOrCreate(ctx, &models.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func contribution(id, payment, email, username string, at time.Time) *models.Contribution {
	return &models.Contribution{
		ID: id, GatewayPaymentID: payment, RecipientEmail: email, RecipientUsername: username,
		Amount: decimal.NewFromInt(10), Status: models.StatusCompleted, CreatedAt: at,
	}
}

func TestContributions_CreateIsIdempotentOnPaymentID(t *testing.T) {
	repo := NewContributionsRepository()
	ctx := context.Background()
	now := time.Now()

	first, inserted, err := repo.Create(ctx, contribution("c-1", "pay_1", "a@x.com", "a", now))
	require.NoError(t, err)
	assert.True(t, inserted)

	again, inserted, err := repo.Create(ctx, contribution("c-2", "pay_1", "a@x.com", "a", now.Add(time.Second)))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, again.ID)

	got, err := repo.GetByPaymentID(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.ID)

	_, err = repo.GetByPaymentID(ctx, "pay_x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestContributions_ListByRecipient(t *testing.T) {
	repo := NewContributionsRepository()
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, c := range []*models.Contribution{
		contribution("c-1", "p1", "a@x.com", "a", t0),
		contribution("c-2", "p2", "", "a", t0.Add(time.Hour)),
		contribution("c-3", "p3", "b@x.com", "b", t0.Add(2*time.Hour)),
		contribution("c-4", "p4", "a@x.com", "", t0.Add(3*time.Hour)),
	} {
		_, _, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}

	got, err := repo.ListByRecipient(ctx, "a@x.com", "a")
	require.NoError(t, err)
	var ids []string
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c-4", "c-2", "c-1"}, ids)

	none, err := repo.ListByRecipient(ctx, "", "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	recipients, err := repo.DistinctRecipients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Recipient{
		{Email: "a@x.com"},
		{Email: "a@x.com", Username: "a"},
		{Email: "b@x.com", Username: "b"},
	}, recipients)
}
