package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/satmarket/satmarket-api/internal/domain/listing"
	"github.com/satmarket/satmarket-api/internal/domain/wallet"
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

type cartRequest struct {
	ListingID string `json:"listing_id"`
}

type completeRequest struct {
	Method string `json:"method"`
	Token  string `json:"token,omitempty"`
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		response.BadRequest(w, "invalid listing ID")
		return
	}

	if err := h.svc.AddToCart(r.Context(), npub, listingID); err != nil {
		switch {
		case errors.Is(err, listing.ErrNotFound):
			response.NotFound(w, "listing not found")
		case errors.Is(err, listing.ErrNotAvailable):
			response.Conflict(w, "listing is not available")
		case errors.Is(err, ErrAlreadyInCart):
			response.Conflict(w, "listing already in cart")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		response.BadRequest(w, "invalid listing ID")
		return
	}

	if err := h.svc.RemoveFromCart(r.Context(), npub, listingID); err != nil {
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	items, err := h.svc.Cart(r.Context(), npub)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	session, items, err := h.svc.Start(r.Context(), npub)
	if err != nil {
		if errors.Is(err, ErrCartEmpty) {
			response.BadRequest(w, "cart has no available items")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, map[string]interface{}{"session": session, "items": items})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session ID")
		return
	}

	session, items, err := h.svc.GetSession(r.Context(), npub, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "checkout session not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"session": session, "items": items})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session ID")
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	orders, err := h.svc.Complete(r.Context(), npub, id, Payment{
		Method: PaymentMethod(req.Method),
		Token:  req.Token,
	})
	if err != nil {
		var insufficient *wallet.InsufficientFundsError
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "checkout session not found")
		case errors.Is(err, ErrAlreadyPaid):
			response.Conflict(w, "checkout session already paid")
		case errors.Is(err, ErrPriceLockExpired):
			response.Error(w, http.StatusGone, "PRICE_LOCK_EXPIRED", "price lock expired, start a new checkout")
		case errors.Is(err, ErrInvalidPayment):
			response.BadRequest(w, "payment method must be wallet or token")
		case errors.As(err, &insufficient):
			response.PaymentRequired(w, "insufficient funds to cover total and fee", map[string]string{
				"needed":    strconv.FormatInt(insufficient.Needed, 10),
				"available": strconv.FormatInt(insufficient.Available, 10),
			})
		case errors.Is(err, cashu.ErrInvalidToken):
			response.BadRequest(w, "invalid or already spent token")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"orders": orders})
}

func (h *Handler) CartRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.Cart)
	r.Post("/", h.AddToCart)
	r.Delete("/{listingID}", h.RemoveFromCart)
	return r
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Start)
	r.Get("/{id}", h.GetSession)
	r.Post("/{id}/complete", h.Complete)
	return r
}
