package access

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rutacredit/rutacredit/internal/catalog"
	"github.com/rutacredit/rutacredit/internal/platform/httpx"
	"github.com/rutacredit/rutacredit/internal/shared"
)

// Handler wires the access-core HTTP endpoints: scope inspection, the
// cascading location selector, permission editing and access codes.
type Handler struct {
	logger    *slog.Logger
	resolver  *Resolver
	locations *Locations
	evaluator *Evaluator
	matrix    MatrixStore
	codes     *Codes
	catalog   *catalog.Service
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, resolver *Resolver, locations *Locations, evaluator *Evaluator, matrix MatrixStore, codes *Codes, cat *catalog.Service, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:    logger,
		resolver:  resolver,
		locations: locations,
		evaluator: evaluator,
		matrix:    matrix,
		codes:     codes,
		catalog:   cat,
		audit:     audit,
		validator: validator.New(),
	}
}

// MountSelfRoutes registers the routes any approved actor may use.
func (h *Handler) MountSelfRoutes(r chi.Router) {
	r.Get("/scope", h.showScope)
	r.Get("/location", h.activeLocation)
	r.Post("/location", h.selectLocation)
	r.Get("/location/companies", h.pickerCompanies)
	r.Get("/location/routes", h.pickerRoutes)
	r.Get("/can", h.canPerform)
}

// MountAdminRoutes registers permission-editing and code-issuing routes; the
// router wraps them in a role guard.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/actors/{id}/permissions", h.getPermissions)
	r.Put("/actors/{id}/permissions", h.putPermissions)
	r.Post("/actors/{id}/access-code", h.issueAccessCode)
}

// MountSignedInRoutes registers routes available before approval.
func (h *Handler) MountSignedInRoutes(r chi.Router) {
	r.Post("/access-code/confirm", h.confirmAccessCode)
}

type scopeNodeResponse struct {
	ID      int64  `json:"id"`
	Country string `json:"country"`
	Region  string `json:"region"`
}

type scopeCompanyResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	HierarchyNodeID int64  `json:"hierarchy_node_id"`
}

type scopeRouteResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CompanyID int64  `json:"company_id"`
}

type scopeResponse struct {
	Empty     bool                   `json:"empty"`
	Nodes     []scopeNodeResponse    `json:"nodes"`
	Companies []scopeCompanyResponse `json:"companies"`
	Routes    []scopeRouteResponse   `json:"routes"`
}

func (h *Handler) showScope(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	scope, err := h.resolver.Resolve(r.Context(), actor)
	if err != nil {
		h.logger.Error("resolve scope", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	resp := scopeResponse{
		Empty:     scope.Empty(),
		Nodes:     make([]scopeNodeResponse, 0, len(scope.Nodes)),
		Companies: make([]scopeCompanyResponse, 0, len(scope.Companies)),
		Routes:    make([]scopeRouteResponse, 0, len(scope.Routes)),
	}
	for _, n := range scope.Nodes {
		resp.Nodes = append(resp.Nodes, scopeNodeResponse{ID: n.ID, Country: n.Country, Region: n.Region})
	}
	for _, c := range scope.Companies {
		resp.Companies = append(resp.Companies, scopeCompanyResponse{ID: c.ID, Name: c.Name, HierarchyNodeID: c.HierarchyNodeID})
	}
	for _, rt := range scope.Routes {
		resp.Routes = append(resp.Routes, scopeRouteResponse{ID: rt.ID, Name: rt.Name, CompanyID: rt.CompanyID})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) activeLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	loc, err := h.locations.Active(r.Context(), actor)
	if err != nil {
		h.logger.Error("active location", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loc)
}

type selectLocationRequest struct {
	HierarchyNodeID *int64 `json:"hierarchy_node_id"`
	CompanyID       *int64 `json:"company_id"`
	RouteID         *int64 `json:"route_id"`
	ClearRoute      bool   `json:"clear_route"`
}

func (h *Handler) selectLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req selectLocationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}

	loc, err := h.locations.Select(r.Context(), actor, SelectionRequest{
		HierarchyNodeID: req.HierarchyNodeID,
		CompanyID:       req.CompanyID,
		RouteID:         req.RouteID,
		ClearRoute:      req.ClearRoute,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOutOfScopeSelection):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Selection Not Available", "the requested location is not available")
		case errors.Is(err, ErrEmptySelection):
			httpx.Problem(w, http.StatusBadRequest, "Empty Selection", "at least one location field is required")
		default:
			h.logger.Error("select location", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, loc)
}

func (h *Handler) pickerCompanies(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	nodeID, err := strconv.ParseInt(r.URL.Query().Get("node_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", "node_id must be an integer")
		return
	}

	scope, err := h.resolver.Resolve(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	companies, err := h.catalog.CompaniesByNode(r.Context(), nodeID)
	if err != nil {
		h.logger.Error("list companies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]scopeCompanyResponse, 0, len(companies))
	for _, c := range companies {
		if scope.HasCompany(c.ID) {
			out = append(out, scopeCompanyResponse{ID: c.ID, Name: c.Name, HierarchyNodeID: c.HierarchyNodeID})
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) pickerRoutes(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", "company_id must be an integer")
		return
	}

	scope, err := h.resolver.Resolve(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	routes, err := h.catalog.RoutesByCompany(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list routes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]scopeRouteResponse, 0, len(routes))
	for _, rt := range routes {
		if scope.HasRoute(rt.ID) {
			out = append(out, scopeRouteResponse{ID: rt.ID, Name: rt.Name, CompanyID: rt.CompanyID})
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) canPerform(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	module := Module(r.URL.Query().Get("module"))
	action := Action(r.URL.Query().Get("action"))
	allowed, err := h.evaluator.CanPerform(r.Context(), actor, module, action)
	if err != nil {
		if errors.Is(err, ErrUnknownModule) || errors.Is(err, ErrUnknownAction) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", err.Error())
			return
		}
		h.logger.Error("can perform", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

func (h *Handler) getPermissions(w http.ResponseWriter, r *http.Request) {
	actorID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", "actor id must be an integer")
		return
	}
	stored, err := h.matrix.GetModulePermissions(r.Context(), actorID)
	if err != nil {
		h.logger.Error("get permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	byModule := make(map[Module]ModulePermission, len(stored))
	for _, p := range stored {
		byModule[p.ModuleID] = p
	}
	// Emit one row per module so editors always see the full grid.
	out := make([]ModulePermission, 0, len(Modules()))
	for _, m := range Modules() {
		if p, ok := byModule[m]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, ModulePermission{ModuleID: m})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}

type putPermissionsRequest struct {
	Permissions []ModulePermission `json:"permissions" validate:"required,dive"`
}

func (h *Handler) putPermissions(w http.ResponseWriter, r *http.Request) {
	admin, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	actorID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", "actor id must be an integer")
		return
	}
	var req putPermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.matrix.UpsertModulePermissions(r.Context(), actorID, req.Permissions); err != nil {
		if errors.Is(err, ErrUnknownModule) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Module", err.Error())
			return
		}
		h.logger.Error("upsert permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if h.audit != nil {
		if err := h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  admin.ID,
			Action:   "actor.permissions_updated",
			Entity:   "actor",
			EntityID: strconv.FormatInt(actorID, 10),
			Meta:     map[string]any{"modules": moduleNames(req.Permissions)},
		}); err != nil {
			h.logger.Warn("record permissions audit", slog.Any("error", err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) issueAccessCode(w http.ResponseWriter, r *http.Request) {
	admin, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	actorID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", "actor id must be an integer")
		return
	}
	code, err := h.codes.Issue(r.Context(), admin.ID, actorID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("issue access code", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"code": code})
}

type confirmCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

func (h *Handler) confirmAccessCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req confirmCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	confirmed, err := h.codes.Confirm(r.Context(), actor.ID, req.Code)
	if err != nil {
		h.logger.Error("confirm access code", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !confirmed {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Code", "the access code does not match")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"confirmed": true})
}

func moduleNames(perms []ModulePermission) []string {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, string(p.ModuleID))
	}
	return names
}
