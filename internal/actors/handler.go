package actors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rutacredit/rutacredit/internal/platform/httpx"
	"github.com/rutacredit/rutacredit/internal/shared"
)

// Handler wires administrative actor endpoints. The router wraps the mount in
// an admin role guard.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers actor administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/actors", h.list)
	r.Get("/actors/{id}", h.show)
	r.Post("/actors/{id}/approve", h.approve)
	r.Post("/actors/{id}/reject", h.reject)
	r.Put("/actors/{id}/assignments", h.updateAssignments)
	r.Put("/actors/{id}/role", h.updateRole)
}

type actorResponse struct {
	ID                   int64          `json:"id"`
	Email                string         `json:"email"`
	Name                 string         `json:"name"`
	Role                 Role           `json:"role"`
	ApprovalStatus       ApprovalStatus `json:"approval_status"`
	IsActive             bool           `json:"is_active"`
	AssignedHierarchyIDs []int64        `json:"assigned_hierarchy_ids"`
	AssignedCompanyIDs   []int64        `json:"assigned_company_ids"`
	AssignedRouteIDs     []int64        `json:"assigned_route_ids"`
	AccessCodeConfirmed  bool           `json:"access_code_confirmed"`
	CreatedAt            time.Time      `json:"created_at"`
}

func toResponse(a Actor) actorResponse {
	return actorResponse{
		ID:                   a.ID,
		Email:                a.Email,
		Name:                 a.Name,
		Role:                 a.Role,
		ApprovalStatus:       a.ApprovalStatus,
		IsActive:             a.IsActive,
		AssignedHierarchyIDs: a.AssignedHierarchyIDs,
		AssignedCompanyIDs:   a.AssignedCompanyIDs,
		AssignedRouteIDs:     a.AssignedRouteIDs,
		AccessCodeConfirmed:  a.AccessCodeConfirmed,
		CreatedAt:            a.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list actors", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]actorResponse, 0, len(all))
	for _, a := range all {
		out = append(out, toResponse(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"actors": out})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actor, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "get actor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(actor))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.approval(w, r, (*Service).Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.approval(w, r, (*Service).Reject)
}

func (h *Handler) approval(w http.ResponseWriter, r *http.Request, apply func(*Service, context.Context, int64, int64) error) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	admin, ok := adminID(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := apply(h.service, r.Context(), admin, id); err != nil {
		h.respondServiceError(w, "set approval", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateAssignmentsRequest struct {
	HierarchyIDs []int64 `json:"hierarchy_ids"`
	CompanyIDs   []int64 `json:"company_ids"`
	RouteIDs     []int64 `json:"route_ids"`
}

func (h *Handler) updateAssignments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	admin, ok := adminID(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req updateAssignmentsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.service.UpdateAssignments(r.Context(), admin, id, req.HierarchyIDs, req.CompanyIDs, req.RouteIDs); err != nil {
		h.respondServiceError(w, "update assignments", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateRoleRequest struct {
	Role Role `json:"role" validate:"required"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	admin, ok := adminID(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if !req.Role.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Role", "role is not recognised")
		return
	}
	if err := h.service.UpdateRole(r.Context(), admin, id, req.Role); err != nil {
		h.respondServiceError(w, "update role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", "actor id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

// adminID reads the acting administrator's id stamped by the session
// middleware into the request context.
func adminID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(sess.Actor(), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
