// Package server exposes the allocation engine and preview sessions as a
// JSON HTTP API.
package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/iwvelando/budget-allocation/internal/allocation"
	"github.com/iwvelando/budget-allocation/internal/config"
	"github.com/iwvelando/budget-allocation/internal/profiles"
	"github.com/iwvelando/budget-allocation/internal/session"
	"github.com/iwvelando/budget-allocation/pkg/constants"
	"github.com/iwvelando/budget-allocation/pkg/output"
	"github.com/iwvelando/budget-allocation/pkg/validation"
	"go.uber.org/zap"
)

type handler struct {
	logger      *zap.Logger
	engine      *allocation.Engine
	registry    *profiles.Registry
	store       session.Store
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the allocation API.
func NewHandler(logger *zap.Logger, engine *allocation.Engine, registry *profiles.Registry, store session.Store, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = constants.DefaultMaxBodySizeBytes
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	h := &handler{
		logger:      logger,
		engine:      engine,
		registry:    registry,
		store:       store,
		maxBodySize: opts.MaxBodyBytes,
		version:     opts.Version,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/profiles", h.handleProfiles)

	// Preview lifecycle
	mux.HandleFunc("POST /api/previews", h.handleCreatePreview)
	mux.HandleFunc("GET /api/previews/{id}", h.handleGetPreview)
	mux.HandleFunc("DELETE /api/previews/{id}", h.handleDeletePreview)

	// Edits, each carrying the version the client last saw
	mux.HandleFunc("POST /api/previews/{id}/budget", h.handleBudget)
	mux.HandleFunc("POST /api/previews/{id}/adjust", h.handleAdjust)
	mux.HandleFunc("POST /api/previews/{id}/remove", h.handleRemove)
	mux.HandleFunc("POST /api/previews/{id}/lock", h.handleLock)

	mux.HandleFunc("GET /api/version", h.handleVersion)

	return mux
}

type profilesResponse struct {
	Profiles        []allocation.Profile `json:"profiles"`
	Classifications map[string]string    `json:"classifications"`
}

type previewResponse struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
	output.Report
	Removed  []int    `json:"removed,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Duration string   `json:"duration,omitempty"`
}

type budgetRequest struct {
	ExpectedVersion  int64 `json:"expectedVersion"`
	TotalBudgetCents int64 `json:"totalBudgetCents"`
}

type adjustRequest struct {
	ExpectedVersion int64   `json:"expectedVersion"`
	Index           int     `json:"index"`
	Percent         float64 `json:"percent"`
}

type removeRequest struct {
	ExpectedVersion int64 `json:"expectedVersion"`
	Index           int   `json:"index"`
}

type lockRequest struct {
	ExpectedVersion int64 `json:"expectedVersion"`
	Index           int   `json:"index"`
	Locked          bool  `json:"locked"`
}

func (h *handler) handleProfiles(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, profilesResponse{
		Profiles:        h.registry.List(),
		Classifications: h.registry.Classifications(),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleCreatePreview(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreatePreview"
	start := time.Now()

	var plan config.Plan
	if !h.decodeBody(w, r, &plan, op) {
		return
	}

	warnings, err := plan.Validate()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	profile, err := h.registry.Resolve(plan.ProfileID, plan.Classification)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}

	lines, err := plan.ToCostLines()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	preview := h.engine.BuildPreview(profile, lines, plan.TotalBudget, plan.ToStakeholders())
	snap := &session.Snapshot{
		ProfileID:        profile.ID,
		TotalBudgetCents: plan.TotalBudget,
		Lines:            preview,
	}
	if err := h.store.Create(r.Context(), snap); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to store preview: %v", err), op)
		return
	}

	h.logger.Info("preview created",
		zap.String("op", op),
		zap.String("session", snap.ID),
		zap.String("profile", profile.ID),
		zap.Int("lines", len(preview)),
	)

	resp := h.buildResponse(snap)
	resp.Warnings = warnings
	resp.Duration = time.Since(start).String()
	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *handler) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetPreview"

	snap, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, h.buildResponse(snap))
}

func (h *handler) handleDeletePreview(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeletePreview"

	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleBudget(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBudget"

	var req budgetRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}
	if err := validation.ValidateBudget(req.TotalBudgetCents); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.updatePreview(w, r, req.ExpectedVersion, op, func(snap *session.Snapshot) error {
		snap.TotalBudgetCents = req.TotalBudgetCents
		snap.Lines = allocation.RecalculateAmounts(snap.Lines, req.TotalBudgetCents)
		return nil
	})
}

func (h *handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAdjust"

	var req adjustRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}
	if err := validation.ValidatePercent(req.Percent); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.updatePreview(w, r, req.ExpectedVersion, op, func(snap *session.Snapshot) error {
		if err := allocation.CheckIndex(snap.Lines, req.Index); err != nil {
			return err
		}
		snap.Lines = allocation.AdjustLinePercent(snap.Lines, req.Index, req.Percent, snap.TotalBudgetCents)
		if req.Percent > 0 {
			snap.Removed = withoutIndex(snap.Removed, req.Index)
		}
		return nil
	})
}

func (h *handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRemove"

	var req removeRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	h.updatePreview(w, r, req.ExpectedVersion, op, func(snap *session.Snapshot) error {
		if err := allocation.CheckIndex(snap.Lines, req.Index); err != nil {
			return err
		}
		snap.Lines = allocation.RemoveLineAndRedistribute(snap.Lines, req.Index, snap.Removed, snap.TotalBudgetCents)
		if !snap.IsRemoved(req.Index) {
			snap.Removed = append(snap.Removed, req.Index)
		}
		return nil
	})
}

func (h *handler) handleLock(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLock"

	var req lockRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	h.updatePreview(w, r, req.ExpectedVersion, op, func(snap *session.Snapshot) error {
		if err := allocation.CheckIndex(snap.Lines, req.Index); err != nil {
			return err
		}
		snap.Lines = allocation.SetLineLocked(snap.Lines, req.Index, req.Locked)
		return nil
	})
}

// updatePreview loads the session, applies edit and stores the result under
// optimistic versioning. A stale expectedVersion answers 409 without
// applying the edit.
func (h *handler) updatePreview(w http.ResponseWriter, r *http.Request, expectedVersion int64, op string, edit func(*session.Snapshot) error) {
	snap, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	if snap.Version != expectedVersion {
		h.respondStoreError(w, session.ErrVersionConflict, op)
		return
	}

	if err := edit(snap); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := h.store.Update(r.Context(), snap, expectedVersion); err != nil {
		h.respondStoreError(w, err, op)
		return
	}

	h.logger.Debug("preview updated",
		zap.String("op", op),
		zap.String("session", snap.ID),
		zap.Int64("version", snap.Version),
	)
	h.writeJSON(w, http.StatusOK, h.buildResponse(snap))
}

func (h *handler) buildResponse(snap *session.Snapshot) previewResponse {
	// A profile dropped from the registry since the session began still
	// renders, only without variance.
	profile, _ := h.registry.Lookup(snap.ProfileID)
	report := output.NewReport(profile, snap.TotalBudgetCents, snap.Lines)
	report.ProfileID = snap.ProfileID

	return previewResponse{
		ID:      snap.ID,
		Version: snap.Version,
		Report:  report,
		Removed: snap.Removed,
	}
}

func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondStoreError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
	case errors.Is(err, session.ErrVersionConflict):
		h.respondErrorWithOp(w, http.StatusConflict, err.Error(), op)
	default:
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("allocation request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func withoutIndex(indices []int, index int) []int {
	out := indices[:0:0]
	for _, i := range indices {
		if i != index {
			out = append(out, i)
		}
	}
	return out
}
