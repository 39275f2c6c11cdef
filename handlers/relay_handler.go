package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/fencing-bracket/services"
)

type RelayHandler struct {
	responder
	relayService services.RelayService
}

func NewRelayHandler(rs services.RelayService, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{responder: newResponder(logger), relayService: rs}
}

type legScoreRequest struct {
	ScoreA *int `json:"score_a"`
	ScoreB *int `json:"score_b"`
}

func (in legScoreRequest) validate() error {
	if in.ScoreA == nil || in.ScoreB == nil {
		return errors.New("score_a and score_b are required")
	}
	return nil
}

type rotationRequest struct {
	TeamID   int `json:"team_id"`
	FencerID int `json:"fencer_id"`
}

// Start godoc
// @Summary Open the relay of a team bout
// @Tags relay
// @Produce json
// @Param boutID path int true "Team bout ID"
// @Success 201 {object} services.RelayView
// @Failure 409 {object} map[string]string "Relay already started"
// @Security BearerAuth
// @Router /bouts/{boutID}/relay [post]
func (h *RelayHandler) Start(w http.ResponseWriter, r *http.Request) {
	boutID, err := getIDFromURL(r, "boutID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	view, err := h.relayService.Start(r.Context(), boutID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusCreated, view)
}

// Get godoc
// @Summary Relay state with its leg ledger
// @Tags relay
// @Produce json
// @Param boutID path int true "Team bout ID"
// @Success 200 {object} services.RelayView
// @Failure 404 {object} map[string]string
// @Router /bouts/{boutID}/relay [get]
func (h *RelayHandler) Get(w http.ResponseWriter, r *http.Request) {
	boutID, err := getIDFromURL(r, "boutID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	view, err := h.relayService.Get(r.Context(), boutID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, view)
}

// RecordLeg godoc
// @Summary Record the touches of the next leg
// @Tags relay
// @Accept json
// @Produce json
// @Param boutID path int true "Team bout ID"
// @Param body body legScoreRequest true "Leg touches"
// @Success 200 {object} services.RelayView
// @Failure 409 {object} map[string]string "Relay complete"
// @Security BearerAuth
// @Router /bouts/{boutID}/relay/legs [post]
func (h *RelayHandler) RecordLeg(w http.ResponseWriter, r *http.Request) {
	boutID, err := getIDFromURL(r, "boutID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input legScoreRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if err := input.validate(); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	view, err := h.relayService.RecordLeg(r.Context(), boutID, *input.ScoreA, *input.ScoreB)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, view)
}

// CorrectLeg godoc
// @Summary Rewrite a recorded leg of an unfinished relay
// @Tags relay
// @Accept json
// @Produce json
// @Param boutID path int true "Team bout ID"
// @Param legNumber path int true "Leg number 1..9"
// @Param body body legScoreRequest true "Leg touches"
// @Success 200 {object} services.RelayView
// @Security BearerAuth
// @Router /bouts/{boutID}/relay/legs/{legNumber} [put]
func (h *RelayHandler) CorrectLeg(w http.ResponseWriter, r *http.Request) {
	boutID, err := getIDFromURL(r, "boutID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	legNumber, err := getIDFromURL(r, "legNumber")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input legScoreRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if err := input.validate(); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	view, err := h.relayService.CorrectLeg(r.Context(), boutID, legNumber, *input.ScoreA, *input.ScoreB)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, view)
}

// ForceRotation godoc
// @Summary Replace a team's fencer on the strip
// @Tags relay
// @Accept json
// @Produce json
// @Param boutID path int true "Team bout ID"
// @Param body body rotationRequest true "Team and starter"
// @Success 200 {object} services.RelayView
// @Failure 400 {object} map[string]string "Not a starter of that team"
// @Security BearerAuth
// @Router /bouts/{boutID}/relay/rotation [post]
func (h *RelayHandler) ForceRotation(w http.ResponseWriter, r *http.Request) {
	boutID, err := getIDFromURL(r, "boutID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input rotationRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.TeamID <= 0 || input.FencerID <= 0 {
		h.badRequestResponse(w, r, errors.New("team_id and fencer_id are required"))
		return
	}

	view, err := h.relayService.ForceRotation(r.Context(), boutID, input.TeamID, input.FencerID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, view)
}
