package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/satmarket/satmarket-api/internal/middleware"
	"github.com/satmarket/satmarket-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type shipRequest struct {
	TrackingInfo string `json:"tracking_info"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var orders []Order
	var err error
	if r.URL.Query().Get("as") == "seller" {
		orders, err = h.svc.ListBySeller(r.Context(), npub)
	} else {
		orders, err = h.svc.ListByBuyer(r.Context(), npub)
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, orders)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid order ID")
		return
	}

	o, items, err := h.svc.Get(r.Context(), npub, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "order not found")
		case errors.Is(err, ErrNotYours):
			response.Forbidden(w, "not a party to this order")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"order": o, "items": items})
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid order ID")
		return
	}

	if err := h.svc.Confirm(r.Context(), npub, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "order not found")
		case errors.Is(err, ErrNotYours):
			response.Forbidden(w, "only the buyer can confirm receipt")
		case errors.Is(err, ErrAlreadyCompleted):
			response.Conflict(w, "order already completed or refunded")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"status": StatusCompleted})
}

func (h *Handler) Ship(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid order ID")
		return
	}

	var req shipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if err := h.svc.MarkShipped(r.Context(), npub, id, req.TrackingInfo); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "order not found")
		case errors.Is(err, ErrNotYours):
			response.Forbidden(w, "only the seller can ship")
		case errors.Is(err, ErrCannotShip):
			response.Conflict(w, "order cannot be shipped in its current state")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"status": StatusShipped})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/{id}/ship", h.Ship)
	return r
}
