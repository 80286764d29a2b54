package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/logging"
	"github.com/dmitrijs2005/tipjar/internal/server/config"
	"github.com/dmitrijs2005/tipjar/internal/server/gateway"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
	"github.com/shopspring/decimal"
)

// MinOrderAmount is the smallest accepted amount in major currency units.
var MinOrderAmount = decimal.NewFromInt(1)

// MaxAmount is the largest amount the ledger column NUMERIC(12,2) holds. Its
// minor-unit value fits comfortably in int64.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// OrderGateway creates payment intents with the external gateway.
type OrderGateway interface {
	CreateOrder(ctx context.Context, in gateway.OrderRequest) (*models.Order, error)
}

type OrderService struct {
	gateway  OrderGateway
	currency string
	timeout  time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewOrderService(gw OrderGateway, cfg *config.Config, logger logging.Logger) *OrderService {
	currency := cfg.Currency
	if currency == "" {
		currency = common.DefaultCurrency
	}
	return &OrderService{
		gateway:  gw,
		currency: currency,
		timeout:  cfg.GatewayTimeout,
		logger:   logger,
		now:      time.Now,
	}
}

// ParseOrderAmount validates an amount in major units.
func ParseOrderAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, common.NewValidationError("amount", "is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, common.NewValidationError("amount", "must be numeric")
	}
	if amount.LessThan(MinOrderAmount) {
		return decimal.Zero, common.NewValidationError("amount", fmt.Sprintf("must be at least %s", MinOrderAmount))
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, common.NewValidationError("amount", fmt.Sprintf("must be at most %s", MaxAmount))
	}
	return amount, nil
}

// MinorUnits converts major units to the gateway's integer representation,
// rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// CreateOrder asks the gateway for a payment intent. Invalid amounts are
// rejected before any outbound call. Nothing is stored locally.
func (s *OrderService) CreateOrder(ctx context.Context, rawAmount string) (*models.Order, error) {
	amount, err := ParseOrderAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	req := gateway.OrderRequest{
		Amount:   MinorUnits(amount),
		Currency: s.currency,
		Receipt:  fmt.Sprintf("receipt_%d", s.now().UnixMilli()),
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	order, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		s.logger.Error(ctx, "gateway order failed", "amount", req.Amount, "error", err)
		return nil, common.NewUpstreamError("create order", err)
	}

	s.logger.Info(ctx, "order created", "order_id", order.ID, "amount", order.Amount, "currency", order.Currency)
	return order, nil
}
