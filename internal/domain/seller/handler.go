package seller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/satmarket/satmarket-api/internal/domain/wallet"
	"github.com/satmarket/satmarket-api/internal/middleware"
	"github.com/satmarket/satmarket-api/internal/pkg/response"
	"github.com/satmarket/satmarket-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type bondRequest struct {
	Category string `json:"category" validate:"required,seller_category"`
}

func (h *Handler) BuyBond(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req bondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	access, err := h.svc.BuyCategoryBond(r.Context(), npub, req.Category)
	if err != nil {
		var insufficient *wallet.InsufficientFundsError
		switch {
		case errors.Is(err, ErrInvalidCategory):
			response.BadRequest(w, "category must be digital, physical, services, or all")
		case errors.Is(err, ErrBondAlreadyPaid):
			response.Conflict(w, "category bond already paid")
		case errors.As(err, &insufficient):
			response.PaymentRequired(w, "insufficient wallet balance for bond", map[string]string{
				"needed":    strconv.FormatInt(insufficient.Needed, 10),
				"available": strconv.FormatInt(insufficient.Available, 10),
			})
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, access)
}

func (h *Handler) ListBonds(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	access, err := h.svc.List(r.Context(), npub)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, access)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/categories", h.ListBonds)
	r.Post("/categories", h.BuyBond)
	return r
}
