package wallet

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/satmarket/satmarket-api/internal/middleware"
	"github.com/satmarket/satmarket-api/internal/pkg/cashu"
	"github.com/satmarket/satmarket-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type depositRequest struct {
	Token string `json:"token"`
}

type invoiceRequest struct {
	Amount int64 `json:"amount"`
}

type withdrawRequest struct {
	PaymentRequest string `json:"payment_request"`
	Amount         int64  `json:"amount"`
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.Balance(r.Context(), npub)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"balance": balance})
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txs, err := h.svc.Transactions(r.Context(), npub, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, txs)
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	balance, err := h.svc.Deposit(r.Context(), npub, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, cashu.ErrInvalidToken):
			response.BadRequest(w, "invalid or already spent token")
		case errors.Is(err, cashu.ErrNotConfigured):
			response.Error(w, http.StatusServiceUnavailable, "MINT_UNAVAILABLE", "mint gateway not configured")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"balance": balance})
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	inv, err := h.svc.CreateDepositInvoice(r.Context(), npub, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		case errors.Is(err, cashu.ErrNotConfigured):
			response.Error(w, http.StatusServiceUnavailable, "MINT_UNAVAILABLE", "mint gateway not configured")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, inv)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	balance, err := h.svc.Withdraw(r.Context(), npub, req.PaymentRequest, req.Amount)
	if err != nil {
		var insufficient *InsufficientFundsError
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		case errors.As(err, &insufficient):
			response.PaymentRequired(w, "insufficient wallet balance", map[string]string{
				"needed":    strconv.FormatInt(insufficient.Needed, 10),
				"available": strconv.FormatInt(insufficient.Available, 10),
			})
		case errors.Is(err, cashu.ErrPaymentFailed):
			response.Conflict(w, "invoice payment failed, funds returned to wallet")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"balance": balance})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	r.Get("/transactions", h.Transactions)
	r.Post("/deposit", h.Deposit)
	r.Post("/deposit/invoice", h.CreateInvoice)
	r.Post("/withdraw", h.Withdraw)
	return r
}
