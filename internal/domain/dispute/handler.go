package dispute

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/satmarket/satmarket-api/internal/domain/escrow"
	"github.com/satmarket/satmarket-api/internal/domain/order"
	"github.com/satmarket/satmarket-api/internal/middleware"
	"github.com/satmarket/satmarket-api/internal/pkg/response"
	"github.com/satmarket/satmarket-api/internal/pkg/validator"
)

const maxImageSize = 5 << 20 // 5 MB

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type openRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
	Reason  string `json:"reason" validate:"required,min=10,max=2000"`
}

type textEvidenceRequest struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

type resolveRequest struct {
	Resolution string `json:"resolution" validate:"required,resolution"`
	Notes      string `json:"notes" validate:"max=2000"`
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		response.BadRequest(w, "invalid order ID")
		return
	}

	d, err := h.svc.Open(r.Context(), npub, orderID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			response.NotFound(w, "order not found")
		case errors.Is(err, ErrNotParticipant):
			response.Forbidden(w, "not a party to this order")
		case errors.Is(err, ErrCannotDispute):
			response.Conflict(w, "order cannot be disputed in its current state")
		case errors.Is(err, ErrAlreadyOpen):
			response.Conflict(w, "order already has an open dispute")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, d)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid dispute ID")
		return
	}

	isAdmin := middleware.GetRole(r.Context()) == "admin"
	d, evidence, err := h.svc.Get(r.Context(), npub, id, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "dispute not found")
		case errors.Is(err, ErrNotParticipant):
			response.Forbidden(w, "not a party to this dispute")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"dispute": d, "evidence": evidence})
}

func (h *Handler) SubmitEvidence(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())
	if npub == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid dispute ID")
		return
	}

	var e *Evidence
	if contentType := r.Header.Get("Content-Type"); contentType == "image/jpeg" || contentType == "image/png" || contentType == "image/webp" {
		e, err = h.svc.SubmitImage(r.Context(), npub, id, http.MaxBytesReader(w, r.Body, maxImageSize), contentType)
	} else {
		var req textEvidenceRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			response.BadRequest(w, "invalid JSON body")
			return
		}
		if details := validator.Validate(req); details != nil {
			response.ValidationError(w, details)
			return
		}
		e, err = h.svc.SubmitText(r.Context(), npub, id, req.Content)
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "dispute not found")
		case errors.Is(err, ErrNotParticipant):
			response.Forbidden(w, "not a party to this dispute")
		case errors.Is(err, ErrAlreadyResolved):
			response.Conflict(w, "dispute already resolved")
		case errors.Is(err, ErrInvalidEvidence):
			response.BadRequest(w, "evidence content is required")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, e)
}

func (h *Handler) ListOpen(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	disputes, err := h.svc.ListOpen(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, disputes)
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	npub := middleware.GetNpub(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid dispute ID")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	if err := h.svc.Resolve(r.Context(), npub, id, req.Resolution, req.Notes); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "dispute not found")
		case errors.Is(err, ErrAlreadyResolved):
			response.Conflict(w, "dispute already resolved")
		case errors.Is(err, escrow.ErrInvalidResolution):
			response.BadRequest(w, "invalid resolution, must be buyer_full, seller_full, burn, or split_<b>_<s> summing to 100")
		case errors.Is(err, escrow.ErrNotDisputed):
			response.Conflict(w, "escrow is no longer in disputed state")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"status": StatusResolved, "resolution": req.Resolution})
}

// Routes mounts the participant-facing dispute endpoints.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Open)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/evidence", h.SubmitEvidence)
	return r
}

// AdminRoutes mounts the adjudication queue.
func (h *Handler) AdminRoutes(authMiddleware, adminOnly func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminOnly)
	r.Get("/", h.ListOpen)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/resolve", h.Resolve)
	return r
}
