package v1

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-bundle-sync/internal/api/common"
	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/discovery"
	"github.com/stacklok/toolhive-bundle-sync/internal/filtering"
	"github.com/stacklok/toolhive-bundle-sync/internal/repository"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
)

const (
	// maxArtifactSize bounds uploaded local bundles
	maxArtifactSize = 256 << 20

	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// Routes holds the handlers of the control API
type Routes struct {
	svc Services
}

// NewRoutes creates a new Routes instance with the provided services
func NewRoutes(svc Services) *Routes {
	return &Routes{svc: svc}
}

// Router creates a new router for the control API
func Router(svc Services) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Route("/bundles", func(r chi.Router) {
		r.Get("/", routes.listBundles)
		r.Post("/", routes.createRemote)
		r.Post("/local", routes.createLocal)
		r.Post("/reorder", routes.reorder)
		r.Post("/reset", routes.reset)
		r.Post("/restore-default", routes.restoreDefault)
		r.Delete("/{uid}", routes.removeBundle)
		r.Patch("/{uid}", routes.updateBundle)
		r.Get("/{uid}/changelog", routes.changelog)
	})

	r.Route("/updates", func(r chi.Router) {
		r.Post("/", routes.requestUpdate)
		r.Post("/cancel", routes.cancelUpdates)
		r.Get("/progress", routes.updateProgress)
		r.Get("/manual", routes.manualUpdates)
		r.Post("/manual/check", routes.checkManualUpdates)
	})

	r.Route("/discovery", func(r chi.Router) {
		r.Post("/imports", routes.enqueueImport)
		r.Post("/imports/cancel", routes.cancelImport)
		r.Get("/progress", routes.importProgress)
		r.Get("/search", routes.searchCatalog)
	})

	r.Route("/push", func(r chi.Router) {
		r.Get("/state", routes.pushState)
		r.Put("/foreground", routes.setForeground)
	})

	r.Get("/notices", routes.notices)

	return r
}

// listBundles handles GET /v1/bundles
func (rr *Routes) listBundles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := filtering.NewNameFilter(query["include"], query["exclude"])
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	state := rr.svc.Bundles.State()
	manual := rr.svc.Updates.ManualUpdates()

	resp := ListBundlesResponse{Bundles: make([]BundleResponse, 0, len(state.Order))}
	for _, src := range filter.Apply(state.Ordered()) {
		view := BundleResponse{
			UID:          src.UID(),
			Name:         src.Name(),
			DisplayName:  src.DisplayName(),
			Title:        src.Title(),
			Origin:       src.Origin(),
			Availability: src.Availability().String(),
			Version:      src.Version(),
			Enabled:      src.Enabled(),
			IsDefault:    src.IsDefault(),
			PatchCount:   len(state.Info[src.UID()].Patches),
			CreatedAt:    src.CreatedAt(),
			UpdatedAt:    src.UpdatedAt(),
		}
		if err := src.Err(); err != nil {
			view.Error = err.Error()
		}
		if remote, ok := bundles.AsRemote(src); ok {
			view.Remote = true
			view.AutoUpdate = remote.AutoUpdate()
			view.InstalledVersion = remote.InstalledVersion()
		}
		if m, ok := manual[src.UID()]; ok {
			view.ManualUpdate = &m
		}
		resp.Bundles = append(resp.Bundles, view)
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// createRemote handles POST /v1/bundles
func (rr *Routes) createRemote(w http.ResponseWriter, r *http.Request) {
	var req CreateBundleRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		common.WriteErrorResponse(w, "url is required", http.StatusBadRequest)
		return
	}

	uid, err := rr.svc.Bundles.CreateRemote(r.Context(), req.URL, req.AutoUpdate, nil)
	switch {
	case err == nil:
		common.WriteJSONResponse(w, CreateBundleResponse{UID: uid}, http.StatusCreated)
	case uid > 0:
		slog.Warn("Bundle added but its download failed", "bundle_uid", uid, "error", err)
		common.WriteJSONResponse(w, CreateBundleResponse{UID: uid, Error: err.Error()}, http.StatusAccepted)
	default:
		slog.Error("Failed to add bundle", "endpoint", req.URL, "error", err)
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	}
}

// createLocal handles POST /v1/bundles/local; the body is the artifact
func (rr *Routes) createLocal(w http.ResponseWriter, r *http.Request) {
	uid, err := rr.svc.Bundles.CreateLocal(r.Context(), http.MaxBytesReader(w, r.Body, maxArtifactSize))
	if err != nil {
		status := http.StatusInternalServerError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, bundles.ErrUnrecognizedFormat), errors.Is(err, bundles.ErrEmptyArtifact):
			status = http.StatusBadRequest
		}
		slog.Error("Failed to import local bundle", "error", err)
		common.WriteErrorResponse(w, err.Error(), status)
		return
	}
	common.WriteJSONResponse(w, CreateBundleResponse{UID: uid}, http.StatusCreated)
}

// removeBundle handles DELETE /v1/bundles/{uid}
func (rr *Routes) removeBundle(w http.ResponseWriter, r *http.Request) {
	uid, ok := rr.knownUID(w, r)
	if !ok {
		return
	}
	if err := rr.svc.Bundles.Remove(r.Context(), uid); err != nil {
		slog.Error("Failed to remove bundle", "bundle_uid", uid, "error", err)
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateBundle handles PATCH /v1/bundles/{uid}
func (rr *Routes) updateBundle(w http.ResponseWriter, r *http.Request) {
	uid, ok := rr.knownUID(w, r)
	if !ok {
		return
	}
	var req UpdateBundleRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.DisplayName != nil {
		result, err := rr.svc.Bundles.SetDisplayName(r.Context(), uid, *req.DisplayName)
		if err != nil {
			common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
			return
		}
		switch result {
		case repository.DisplayNameDuplicate:
			common.WriteErrorResponse(w, "display name already in use", http.StatusConflict)
			return
		case repository.DisplayNameNotFound:
			common.WriteErrorResponse(w, "bundle not found", http.StatusNotFound)
			return
		}
	}

	if req.AutoUpdate != nil {
		if _, isRemote := rr.remote(uid); !isRemote {
			common.WriteErrorResponse(w, "auto update applies to remote bundles only", http.StatusBadRequest)
			return
		}
		if err := rr.svc.Bundles.SetAutoUpdate(r.Context(), uid, *req.AutoUpdate); err != nil {
			slog.Error("Failed to set auto update", "bundle_uid", uid, "error", err)
			common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// reorder handles POST /v1/bundles/reorder
func (rr *Routes) reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := rr.svc.Bundles.Reorder(r.Context(), req.Order); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reset handles POST /v1/bundles/reset
func (rr *Routes) reset(w http.ResponseWriter, r *http.Request) {
	if err := rr.svc.Bundles.Reset(r.Context()); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// restoreDefault handles POST /v1/bundles/restore-default
func (rr *Routes) restoreDefault(w http.ResponseWriter, r *http.Request) {
	if err := rr.svc.Bundles.RestoreDefault(r.Context()); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// changelog handles GET /v1/bundles/{uid}/changelog
func (rr *Routes) changelog(w http.ResponseWriter, r *http.Request) {
	uid, ok := rr.knownUID(w, r)
	if !ok {
		return
	}
	src, _ := rr.svc.Bundles.State().Source(uid)
	entries, err := rr.svc.Changelog.Read(src.Dir())
	if err != nil {
		slog.Error("Failed to read changelog", "bundle_uid", uid, "error", err)
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, entries, http.StatusOK)
}

// requestUpdate handles POST /v1/updates
func (rr *Routes) requestUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdatesRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	pass := pkgsync.Request{
		Force:              req.Force,
		ShowToast:          req.ShowToast,
		AllowUnsafeNetwork: req.AllowUnsafeNetwork,
		ReportProgress:     true,
	}
	if len(req.UIDs) > 0 {
		pass.Predicate = pkgsync.ForUIDs(req.UIDs...)
	}

	if !req.Wait {
		// the pass outlives this request
		rr.svc.Updates.Request(context.WithoutCancel(r.Context()), pass)
		w.WriteHeader(http.StatusAccepted)
		return
	}
	if err := rr.svc.Updates.RequestAndWait(r.Context(), pass); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, pkgsync.ErrNetworkUnavailable) {
			status = http.StatusServiceUnavailable
		}
		common.WriteErrorResponse(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// cancelUpdates handles POST /v1/updates/cancel
func (rr *Routes) cancelUpdates(w http.ResponseWriter, r *http.Request) {
	var req UIDsRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	rr.svc.Updates.Cancel(req.UIDs...)
	w.WriteHeader(http.StatusNoContent)
}

// updateProgress handles GET /v1/updates/progress
func (rr *Routes) updateProgress(w http.ResponseWriter, _ *http.Request) {
	p := rr.svc.Updates.Progress()
	if p == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	common.WriteJSONResponse(w, p, http.StatusOK)
}

// manualUpdates handles GET /v1/updates/manual
func (rr *Routes) manualUpdates(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, rr.svc.Updates.ManualUpdates(), http.StatusOK)
}

// checkManualUpdates handles POST /v1/updates/manual/check
func (rr *Routes) checkManualUpdates(w http.ResponseWriter, r *http.Request) {
	var req UIDsRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := rr.svc.Updates.CheckManualUpdates(r.Context(), req.UIDs...); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadGateway)
		return
	}
	common.WriteJSONResponse(w, rr.svc.Updates.ManualUpdates(), http.StatusOK)
}

// enqueueImport handles POST /v1/discovery/imports
func (rr *Routes) enqueueImport(w http.ResponseWriter, r *http.Request) {
	if rr.svc.Imports == nil {
		common.WriteErrorResponse(w, "discovery imports are disabled", http.StatusServiceUnavailable)
		return
	}
	var req ImportRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	channel, err := discovery.ParseChannel(req.Channel)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Snapshot.BundleID <= 0 && (req.Snapshot.OwnerName == "" || req.Snapshot.RepoName == "") {
		common.WriteErrorResponse(w, "snapshot needs a bundleId or an owner and repository", http.StatusBadRequest)
		return
	}

	outcome := rr.svc.Imports.Enqueue(discovery.Item{
		Snapshot:   req.Snapshot,
		Channel:    channel,
		AutoUpdate: req.AutoUpdate,
	})
	status := http.StatusAccepted
	if outcome == discovery.Duplicate {
		status = http.StatusConflict
	}
	common.WriteJSONResponse(w, ImportResponse{Outcome: string(outcome)}, status)
}

// cancelImport handles POST /v1/discovery/imports/cancel
func (rr *Routes) cancelImport(w http.ResponseWriter, _ *http.Request) {
	if rr.svc.Imports == nil {
		common.WriteErrorResponse(w, "discovery imports are disabled", http.StatusServiceUnavailable)
		return
	}
	rr.svc.Imports.CancelCurrent()
	w.WriteHeader(http.StatusNoContent)
}

// importProgress handles GET /v1/discovery/progress
func (rr *Routes) importProgress(w http.ResponseWriter, _ *http.Request) {
	if rr.svc.Imports == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	p := rr.svc.Imports.Progress()
	if p == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	common.WriteJSONResponse(w, p, http.StatusOK)
}

// searchCatalog handles GET /v1/discovery/search
func (rr *Routes) searchCatalog(w http.ResponseWriter, r *http.Request) {
	if rr.svc.Catalog == nil {
		common.WriteErrorResponse(w, "discovery search is disabled", http.StatusServiceUnavailable)
		return
	}
	limit, err := common.QueryInt(r, "limit", defaultSearchLimit, 1, maxSearchLimit)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := common.QueryInt(r, "offset", 0, 0, math.MaxInt)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	found, err := rr.svc.Catalog.Search(r.Context(), r.URL.Query().Get("package"), limit, offset)
	if err != nil {
		slog.Error("Failed to search discovery service", "error", err)
		common.WriteErrorResponse(w, err.Error(), http.StatusBadGateway)
		return
	}
	if found == nil {
		found = []bundles.ExternalSnapshot{}
	}
	common.WriteJSONResponse(w, SearchResponse{Bundles: found, Limit: limit, Offset: offset}, http.StatusOK)
}

// pushState handles GET /v1/push/state
func (rr *Routes) pushState(w http.ResponseWriter, _ *http.Request) {
	if rr.svc.Push == nil {
		common.WriteErrorResponse(w, "push delivery is disabled", http.StatusServiceUnavailable)
		return
	}
	common.WriteJSONResponse(w, rr.svc.Push.Status(), http.StatusOK)
}

// setForeground handles PUT /v1/push/foreground
func (rr *Routes) setForeground(w http.ResponseWriter, r *http.Request) {
	if rr.svc.Push == nil {
		common.WriteErrorResponse(w, "push delivery is disabled", http.StatusServiceUnavailable)
		return
	}
	var req ForegroundRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	rr.svc.Push.SetForeground(req.Foreground)
	w.WriteHeader(http.StatusNoContent)
}

// notices handles GET /v1/notices
func (rr *Routes) notices(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, rr.svc.Notices.Recent(), http.StatusOK)
}

// knownUID parses the uid parameter and writes an error unless the bundle exists
func (rr *Routes) knownUID(w http.ResponseWriter, r *http.Request) (int, bool) {
	uid, err := common.UIDParam(r, "uid")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	if _, ok := rr.svc.Bundles.State().Source(uid); !ok {
		common.WriteErrorResponse(w, "bundle not found", http.StatusNotFound)
		return 0, false
	}
	return uid, true
}

func (rr *Routes) remote(uid int) (bundles.Remote, bool) {
	src, ok := rr.svc.Bundles.State().Source(uid)
	if !ok {
		return nil, false
	}
	return bundles.AsRemote(src)
}
