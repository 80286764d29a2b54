package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/logging"
	"github.com/dmitrijs2005/tipjar/internal/server/auth"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
	"github.com/dmitrijs2005/tipjar/internal/server/services"
)

const healthTimeout = 2 * time.Second

// HealthProbe reports whether the backing store is reachable. *sql.DB
// satisfies it.
type HealthProbe interface {
	PingContext(ctx context.Context) error
}

// Deps collects what the handlers need. Health may be nil for the in-memory
// store.
type Deps struct {
	Orders     *services.OrderService
	Ledger     *services.LedgerService
	Stats      *services.StatsService
	Identity   *services.IdentityService
	Health     HealthProbe
	AuthSecret string
	AdminToken string
	Logger     logging.Logger
}

type Handlers struct {
	orders     *services.OrderService
	ledger     *services.LedgerService
	stats      *services.StatsService
	identity   *services.IdentityService
	health     HealthProbe
	authSecret []byte
	adminToken string
	logger     logging.Logger
}

func NewHandlers(d Deps) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Handlers{
		orders:     d.Orders,
		ledger:     d.Ledger,
		stats:      d.Stats,
		identity:   d.Identity,
		health:     d.Health,
		authSecret: []byte(d.AuthSecret),
		adminToken: d.AdminToken,
		logger:     logger.With("module", "http_api"),
	}
}

func (h *Handlers) healthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.health.PingContext(ctx); err != nil {
			h.logger.Error(r.Context(), "health probe failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), req.Amount.String())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{
		ID:       order.ID,
		Currency: order.Currency,
		Amount:   order.Amount,
		Receipt:  order.Receipt,
		Status:   order.Status,
	})
}

func (h *Handlers) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := req.confirmation()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.ledger.VerifyAndRecord(r.Context(), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success:     true,
		SupporterID: res.Contribution.ID,
		Replayed:    res.Replayed,
	})
}

func (h *Handlers) listSupporters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	list, err := h.stats.Contributions(r.Context(), q.Get("email"), q.Get("username"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, supportersResponse{Success: true, Supporters: toSupporters(list)})
}

func (h *Handlers) supporterProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.stats.Profile(r.Context(), pathParam(r, "identifier"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfile(p))
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	p, err := h.stats.ProfileByEmail(r.Context(), pathParam(r, "email"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userProfileResponse{
		Success:    true,
		UserInfo:   toUserInfo(p.User),
		User:       toUser(p.User),
		Supporters: toSupporters(p.Contributions),
		Stats:      toStats(p.Stats),
	})
}

func (h *Handlers) upsertUser(w http.ResponseWriter, r *http.Request) {
	var req upsertUserRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	patch := models.UserPatch{Username: req.Username, DisplayName: req.DisplayName, Image: req.Image}
	user, created, err := h.identity.Upsert(r.Context(), pathParam(r, "email"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, upsertUserResponse{Success: true, Created: created, User: toUser(user)})
}

// resolveIdentity is the sign-in hook: the login provider presents a signed
// principal and gets back the stored user.
func (h *Handlers) resolveIdentity(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	principal, err := auth.PrincipalFromToken(token, h.authSecret)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.identity.Resolve(r.Context(), principal)
	if err != nil {
		if res != nil && res.Outcome == services.OutcomeRejected {
			status, code, msg := classify(err)
			writeJSON(w, status, errorResponse{
				Error:     msg,
				Code:      code,
				Outcome:   string(res.Outcome),
				RequestID: requestIDFrom(r.Context()),
			})
			return
		}
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{Success: true, Outcome: string(res.Outcome), User: toUser(res.User)})
}

func (h *Handlers) backfillUsers(w http.ResponseWriter, r *http.Request) {
	res, err := h.identity.Backfill(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, backfillResponse{Success: true, Scanned: res.Scanned, Created: res.Created})
}
