package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/fencing-bracket/middleware"
	"github.com/Dosada05/fencing-bracket/services"
)

type BoutHandler struct {
	responder
	boutService    services.BoutService
	bracketService services.BracketService
}

func NewBoutHandler(bs services.BoutService, brs services.BracketService, logger *slog.Logger) *BoutHandler {
	return &BoutHandler{
		responder:      newResponder(logger),
		boutService:    bs,
		bracketService: brs,
	}
}

type scoreBoutRequest struct {
	LeftScore  *int `json:"left_score"`
	RightScore *int `json:"right_score"`
	WinnerID   *int `json:"winner_id,omitempty"`
}

type advanceRequest struct {
	WinnerID int `json:"winner_id"`
}

// ScoreBout godoc
// @Summary Record a bout's touches and advance its winner
// @Description winner_id is required only when the scores are level.
// @Tags bouts
// @Accept json
// @Produce json
// @Param boutID path int true "Bout ID"
// @Param body body scoreBoutRequest true "Scores"
// @Success 200 {object} services.AdvanceResult
// @Failure 409 {object} map[string]string "Bout already decided"
// @Failure 422 {object} map[string]string "Level score without a winner"
// @Security BearerAuth
// @Router /bouts/{boutID}/score [post]
func (h *BoutHandler) ScoreBout(w http.ResponseWriter, r *http.Request) {
	boutID, err := getIDFromURL(r, "boutID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input scoreBoutRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.LeftScore == nil || input.RightScore == nil {
		h.badRequestResponse(w, r, errors.New("left_score and right_score are required"))
		return
	}

	res, err := h.boutService.ScoreBout(r.Context(), boutID, *input.LeftScore, *input.RightScore, input.WinnerID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.audit(r, "bout scored", boutID)
	h.ok(w, r, http.StatusOK, res)
}

// Advance godoc
// @Summary Record a bout's winner without scores
// @Tags bouts
// @Accept json
// @Produce json
// @Param boutID path int true "Bout ID"
// @Param body body advanceRequest true "Winner"
// @Success 200 {object} services.AdvanceResult
// @Failure 400 {object} map[string]string "Winner not in the bout"
// @Failure 409 {object} map[string]string "Bout already decided"
// @Security BearerAuth
// @Router /bouts/{boutID}/advance [post]
func (h *BoutHandler) Advance(w http.ResponseWriter, r *http.Request) {
	boutID, err := getIDFromURL(r, "boutID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input advanceRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.WinnerID <= 0 {
		h.badRequestResponse(w, r, errors.New("winner_id is required"))
		return
	}

	res, err := h.bracketService.Advance(r.Context(), boutID, input.WinnerID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.audit(r, "winner recorded", boutID)
	h.ok(w, r, http.StatusOK, res)
}

// audit notes who changed a result when the route is token protected.
func (h *BoutHandler) audit(r *http.Request, msg string, boutID int) {
	scorer, err := middleware.ScorerFromContext(r.Context())
	if err != nil {
		return
	}
	h.logger.Info(msg, "bout_id", boutID, "scorer", scorer.Subject)
}
