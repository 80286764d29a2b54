// Package gateway talks to the payment gateway's Orders API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/server/models"
)

type Client struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	HTTP      *http.Client
}

func New(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		KeyID:     keyID,
		KeySecret: keySecret,
		HTTP:      &http.Client{Timeout: timeout},
	}
}

// OrderRequest is a payment intent. Amount is in minor currency units.
type OrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// StatusError is returned when the gateway answers with a non-2xx status.
type StatusError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *StatusError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("gateway returned %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway returned %d: %s (%s)", e.StatusCode, e.Description, e.Code)
}

// CreateOrder registers a new order with the gateway and returns it as the
// gateway reports it.
func (c *Client) CreateOrder(ctx context.Context, in OrderRequest) (*models.Order, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/orders", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.KeyID, c.KeySecret)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		se := &StatusError{StatusCode: resp.StatusCode}
		var er errorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(body, &er) == nil {
			se.Code = er.Error.Code
			se.Description = er.Error.Description
		}
		return nil, se
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("gateway returned order without id")
	}

	return &models.Order{
		ID:       out.ID,
		Currency: out.Currency,
		Amount:   out.Amount,
		Receipt:  out.Receipt,
		Status:   out.Status,
	}, nil
}
