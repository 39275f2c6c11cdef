package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Dosada05/fencing-bracket/models"
	"github.com/Dosada05/fencing-bracket/services"
)

type RoundHandler struct {
	responder
	roundService   services.RoundService
	seedingService services.SeedingService
	exportService  services.ExportService
}

func NewRoundHandler(rs services.RoundService, ss services.SeedingService, es services.ExportService, logger *slog.Logger) *RoundHandler {
	return &RoundHandler{
		responder:      newResponder(logger),
		roundService:   rs,
		seedingService: ss,
		exportService:  es,
	}
}

// GetRound godoc
// @Summary Round overview
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 200 {object} services.RoundOverview
// @Failure 404 {object} map[string]string
// @Router /rounds/{roundID} [get]
func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	overview, err := h.roundService.GetRound(r.Context(), roundID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, overview)
}

// GetSeeding godoc
// @Summary Round seeding
// @Description kind is "initial" (default) or "result".
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Param kind query string false "initial or result"
// @Success 200 {object} map[string]interface{}
// @Router /rounds/{roundID}/seeding [get]
func (h *RoundHandler) GetSeeding(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	kind := models.SeedingKind(r.URL.Query().Get("kind"))
	switch kind {
	case "":
		kind = models.SeedingInitial
	case models.SeedingInitial, models.SeedingResult:
	default:
		h.badRequestResponse(w, r, fmt.Errorf("unknown seeding kind %q", kind))
		return
	}

	seeding, err := h.seedingService.GetSeeding(r.Context(), roundID, kind)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, jsonResponse{"kind": kind, "seeding": seeding})
}

// GetPools godoc
// @Summary Pools of a pool round with their bouts and fencing order
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Not a pool round"
// @Router /rounds/{roundID}/pools [get]
func (h *RoundHandler) GetPools(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	pools, err := h.roundService.GetPools(r.Context(), roundID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, jsonResponse{"pools": pools})
}

// GetBracket godoc
// @Summary Elimination tree of a DE round
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 200 {object} services.BracketView
// @Failure 409 {object} map[string]string "Not an elimination round"
// @Router /rounds/{roundID}/bracket [get]
func (h *RoundHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	view, err := h.roundService.GetBracket(r.Context(), roundID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, view)
}

// Initialize godoc
// @Summary Seed a round and build its pools or bracket
// @Description Repeating the call on an initialized round changes nothing.
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 200 {object} services.InitializeResult "Already initialized"
// @Success 201 {object} services.InitializeResult
// @Failure 422 {object} map[string]string "Bad round configuration"
// @Security BearerAuth
// @Router /rounds/{roundID}/initialize [post]
func (h *RoundHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	result, err := h.roundService.Initialize(r.Context(), roundID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	status := http.StatusCreated
	if result.AlreadyInitialized {
		status = http.StatusOK
	}
	h.ok(w, r, status, result)
}

// CalculateResults godoc
// @Summary Rank a round from its decided bouts
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /rounds/{roundID}/results/seeding [post]
func (h *RoundHandler) CalculateResults(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	seeding, err := h.seedingService.CalculateFromResults(r.Context(), roundID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, jsonResponse{"kind": models.SeedingResult, "seeding": seeding})
}

// Export godoc
// @Summary Archive a JSON snapshot of the round to object storage
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 201 {object} services.ExportResult
// @Failure 503 {object} map[string]string "Export not configured"
// @Security BearerAuth
// @Router /rounds/{roundID}/export [post]
func (h *RoundHandler) Export(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	result, err := h.exportService.ExportRound(r.Context(), roundID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusCreated, result)
}
