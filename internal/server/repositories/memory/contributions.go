package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
)

type ContributionsRepository struct {
	mu        sync.Mutex
	items     []*models.Contribution
	byPayment map[string]*models.Contribution
}

func NewContributionsRepository() *ContributionsRepository {
	return &ContributionsRepository{byPayment: make(map[string]*models.Contribution)}
}

func cloneContribution(c *models.Contribution) *models.Contribution {
	cp := *c
	return &cp
}

func (r *ContributionsRepository) Create(ctx context.Context, c *models.Contribution) (*models.Contribution, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byPayment[c.GatewayPaymentID]; ok {
		return cloneContribution(existing), false, nil
	}
	stored := cloneContribution(c)
	r.items = append(r.items, stored)
	r.byPayment[c.GatewayPaymentID] = stored
	return cloneContribution(stored), true, nil
}

func (r *ContributionsRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Contribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byPayment[paymentID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneContribution(c), nil
}

func (r *ContributionsRepository) ListByRecipient(ctx context.Context, email, username string) ([]*models.Contribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.Contribution, 0)
	for _, c := range r.items {
		if (email != "" && c.RecipientEmail == email) || (username != "" && c.RecipientUsername == username) {
			result = append(result, cloneContribution(c))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *ContributionsRepository) DistinctRecipients(ctx context.Context) ([]models.Recipient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[models.Recipient]struct{})
	var result []models.Recipient
	for _, c := range r.items {
		if c.RecipientEmail == "" {
			continue
		}
		rc := models.Recipient{Email: c.RecipientEmail, Username: c.RecipientUsername}
		if _, ok := seen[rc]; ok {
			continue
		}
		seen[rc] = struct{}{}
		result = append(result, rc)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Email != result[j].Email {
			return result[i].Email < result[j].Email
		}
		return result[i].Username < result[j].Username
	})
	return result, nil
}
