package httpapi

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
	"github.com/dmitrijs2005/tipjar/internal/server/services"
	"github.com/shopspring/decimal"
)

type orderRequest struct {
	Amount json.Number `json:"amount"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
}

type contributionPayload struct {
	Name           string      `json:"name"`
	Amount         json.Number `json:"amount"`
	Message        string      `json:"message"`
	RecipientEmail string      `json:"recipientEmail"`
	Username       string      `json:"username"`
}

type verifyRequest struct {
	OrderID      string              `json:"orderId"`
	PaymentID    string              `json:"paymentId"`
	Signature    string              `json:"signature"`
	Contribution contributionPayload `json:"contribution"`
}

func (v verifyRequest) confirmation() (services.Confirmation, error) {
	raw := strings.TrimSpace(v.Contribution.Amount.String())
	if raw == "" {
		return services.Confirmation{}, common.NewValidationError("amount", "is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return services.Confirmation{}, common.NewValidationError("amount", "must be numeric")
	}

	return services.Confirmation{
		OrderID:   v.OrderID,
		PaymentID: v.PaymentID,
		Signature: v.Signature,
		Contribution: services.ContributionInput{
			RecipientEmail:    v.Contribution.RecipientEmail,
			RecipientUsername: v.Contribution.Username,
			SupporterName:     v.Contribution.Name,
			Amount:            amount,
			Message:           v.Contribution.Message,
		},
	}, nil
}

type verifyResponse struct {
	Success     bool   `json:"success"`
	SupporterID string `json:"supporterId"`
	Replayed    bool   `json:"replayed"`
}

type supporterResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Amount         float64   `json:"amount"`
	Message        string    `json:"message"`
	RecipientEmail string    `json:"recipientEmail"`
	Username       string    `json:"username"`
	OrderID        string    `json:"orderId"`
	PaymentID      string    `json:"paymentId"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toSupporters(list []*models.Contribution) []supporterResponse {
	out := make([]supporterResponse, 0, len(list))
	for _, c := range list {
		out = append(out, supporterResponse{
			ID:             c.ID,
			Name:           c.SupporterName,
			Amount:         c.Amount.InexactFloat64(),
			Message:        c.Message,
			RecipientEmail: c.RecipientEmail,
			Username:       c.RecipientUsername,
			OrderID:        c.GatewayOrderID,
			PaymentID:      c.GatewayPaymentID,
			Status:         string(c.Status),
			CreatedAt:      c.CreatedAt,
		})
	}
	return out
}

type statsResponse struct {
	TotalEarnings  float64 `json:"totalEarnings"`
	SupporterCount int     `json:"supporterCount"`
	AverageSupport float64 `json:"averageSupport"`
}

func toStats(st models.Stats) statsResponse {
	return statsResponse{
		TotalEarnings:  st.TotalEarnings.InexactFloat64(),
		SupporterCount: st.SupporterCount,
		AverageSupport: st.AverageSupport.InexactFloat64(),
	}
}

type userInfo struct {
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	Image       *string `json:"image"`
}

func toUserInfo(u *models.User) userInfo {
	return userInfo{Username: u.Username, DisplayName: u.Name(), Email: u.Email, Image: u.Image}
}

type profileResponse struct {
	Success    bool                `json:"success"`
	UserInfo   userInfo            `json:"userInfo"`
	Supporters []supporterResponse `json:"supporters"`
	Stats      statsResponse       `json:"stats"`
}

func toProfile(p *services.Profile) profileResponse {
	return profileResponse{
		Success:    true,
		UserInfo:   toUserInfo(p.User),
		Supporters: toSupporters(p.Contributions),
		Stats:      toStats(p.Stats),
	}
}

type supportersResponse struct {
	Success    bool                `json:"success"`
	Supporters []supporterResponse `json:"supporters"`
}

type userResponse struct {
	ID          string     `json:"id,omitempty"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Image       *string    `json:"image"`
	Provider    string     `json:"provider,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

func toUser(u *models.User) userResponse {
	out := userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.Name(),
		Image:       u.Image,
		Provider:    u.Provider,
		LastLogin:   u.LastLogin,
	}
	if !u.CreatedAt.IsZero() {
		created := u.CreatedAt
		out.CreatedAt = &created
	}
	return out
}

// userProfileResponse is the profile envelope plus the stored user record.
type userProfileResponse struct {
	Success    bool                `json:"success"`
	UserInfo   userInfo            `json:"userInfo"`
	User       userResponse        `json:"user"`
	Supporters []supporterResponse `json:"supporters"`
	Stats      statsResponse       `json:"stats"`
}

type upsertUserRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
	Image       *string `json:"image"`
}

type upsertUserResponse struct {
	Success bool         `json:"success"`
	Created bool         `json:"created"`
	User    userResponse `json:"user"`
}

type resolveResponse struct {
	Success bool         `json:"success"`
	Outcome string       `json:"outcome"`
	User    userResponse `json:"user"`
}

type backfillResponse struct {
	Success bool `json:"success"`
	Scanned int  `json:"scanned"`
	Created int  `json:"created"`
}
