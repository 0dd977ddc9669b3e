package listing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(in); details != nil {
		response.ValidationError(w, details)
		return
	}

	l, err := h.svc.Create(r.Context(), npub, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrBondRequired):
			response.PaymentRequired(w, "category bond required before listing", map[string]string{
				"category": in.Category,
			})
		case errors.Is(err, ErrInvalidPrice):
			response.BadRequest(w, "price must be greater than zero")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, l)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	category := r.URL.Query().Get("category")

	listings, err := h.svc.ListActive(r.Context(), category, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, listings)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid listing ID")
		return
	}

	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "listing not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, l)
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	listings, err := h.svc.ListBySeller(r.Context(), npub)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, listings)
}

func (h *Handler) Delist(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid listing ID")
		return
	}

	if err := h.svc.Delist(r.Context(), npub, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "listing not found")
		case errors.Is(err, ErrNotYours):
			response.Forbidden(w, "listing belongs to another seller")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/mine", h.Mine)
		r.Delete("/{id}", h.Delist)
	})

	return r
}
