package escrow

import (
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

// Get returns an escrow to its buyer, its seller, or an admin.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid escrow ID")
		return
	}

	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "escrow not found")
			return
		}
		response.InternalError(w)
		return
	}

	if e.BuyerNpub != npub && e.SellerNpub != npub && middleware.GetRole(r.Context()) != "admin" {
		response.Forbidden(w, "not a party to this escrow")
		return
	}

	response.OK(w, e)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/{id}", h.Get)
	return r
}
