package brackets

import (
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
)

const (
	RelayLegs   = 9
	RelayTarget = 45
)

// relayOrder holds, per leg, the starter index of team A and of team B. Each
// starter meets each opposing starter exactly once; leg 1 opens with both
// third starters.
var relayOrder = [RelayLegs][2]int{
	{2, 2},
	{0, 1},
	{1, 0},
	{0, 2},
	{2, 0},
	{1, 1},
	{0, 0},
	{1, 2},
	{2, 1},
}

// RelayPairing returns the starter indexes that meet in leg (1-based).
func RelayPairing(leg int) (a, b int, ok bool) {
	if leg < 1 || leg > RelayLegs {
		return 0, 0, false
	}
	p := relayOrder[leg-1]
	return p[0], p[1], true
}

// NewRelayState opens a relay between two teams with leg 1's fencers on the
// strip and nothing scored.
func NewRelayState(teamBoutID int, teamA, teamB *models.Entrant) (*models.RelayState, error) {
	if teamA == nil || teamB == nil {
		return nil, fmt.Errorf("%w: relay needs two teams", ErrValidation)
	}
	if len(teamA.Starters) != models.TeamStarters || len(teamB.Starters) != models.TeamStarters {
		return nil, fmt.Errorf("%w: both teams must register exactly %d starters (got %d and %d)",
			ErrValidation, models.TeamStarters, len(teamA.Starters), len(teamB.Starters))
	}
	state := &models.RelayState{
		TeamBoutID: teamBoutID,
		TeamA:      teamA.ID,
		TeamB:      teamB.ID,
	}
	copy(state.StartersA[:], teamA.Starters)
	copy(state.StartersB[:], teamB.Starters)
	a, b, _ := RelayPairing(1)
	state.CurrentFencerA = state.StartersA[a]
	state.CurrentFencerB = state.StartersB[b]
	return state, nil
}

// RelayMachine drives a relay state over its append-only ledger.
type RelayMachine struct {
	State  *models.RelayState
	Ledger []models.RelayLeg
}

func NewRelayMachine(state *models.RelayState, ledger []models.RelayLeg) *RelayMachine {
	return &RelayMachine{State: state, Ledger: ledger}
}

// RecordLeg appends a leg fenced by the active fencers and recomputes the
// totals. While the relay is open the next leg's fencers are set up front so
// the upcoming matchup can be shown before it starts.
func (r *RelayMachine) RecordLeg(scoreA, scoreB int) (models.RelayLeg, error) {
	if r.State.Complete {
		return models.RelayLeg{}, fmt.Errorf("%w: relay %d is complete", ErrInvalidState, r.State.TeamBoutID)
	}
	if scoreA < 0 || scoreB < 0 {
		return models.RelayLeg{}, fmt.Errorf("%w: leg scores must not be negative", ErrValidation)
	}

	leg := models.RelayLeg{
		TeamBoutID: r.State.TeamBoutID,
		LegNumber:  len(r.Ledger) + 1,
		FencerA:    r.State.CurrentFencerA,
		FencerB:    r.State.CurrentFencerB,
		ScoreA:     scoreA,
		ScoreB:     scoreB,
	}
	r.Ledger = append(r.Ledger, leg)
	r.Recalculate()

	if !r.State.Complete {
		r.setNextFencers()
	}
	return leg, nil
}

func (r *RelayMachine) setNextFencers() {
	a, b, ok := RelayPairing(r.State.LegsPlayed + 1)
	if !ok {
		return
	}
	r.State.CurrentFencerA = r.State.StartersA[a]
	r.State.CurrentFencerB = r.State.StartersB[b]
}

// Recalculate rebuilds totals, leg count, completion and winner from the
// ledger alone. A relay tied at the leg cap completes without a winner.
func (r *RelayMachine) Recalculate() {
	scoreA, scoreB := 0, 0
	for _, leg := range r.Ledger {
		scoreA += leg.ScoreA
		scoreB += leg.ScoreB
	}
	s := r.State
	s.ScoreA, s.ScoreB = scoreA, scoreB
	s.LegsPlayed = len(r.Ledger)
	s.Complete = scoreA >= RelayTarget || scoreB >= RelayTarget || s.LegsPlayed >= RelayLegs
	s.WinnerID = nil
	if !s.Complete {
		return
	}
	switch {
	case scoreA > scoreB:
		w := s.TeamA
		s.WinnerID = &w
	case scoreB > scoreA:
		w := s.TeamB
		s.WinnerID = &w
	}
}

// CorrectLeg rewrites the scores of a recorded leg and recalculates. Closed
// relays are not reopened here.
func (r *RelayMachine) CorrectLeg(legNumber, scoreA, scoreB int) (models.RelayLeg, error) {
	if r.State.Complete {
		return models.RelayLeg{}, fmt.Errorf("%w: relay %d is complete", ErrInvalidState, r.State.TeamBoutID)
	}
	if legNumber < 1 || legNumber > len(r.Ledger) {
		return models.RelayLeg{}, fmt.Errorf("%w: leg %d has not been recorded", ErrValidation, legNumber)
	}
	if scoreA < 0 || scoreB < 0 {
		return models.RelayLeg{}, fmt.Errorf("%w: leg scores must not be negative", ErrValidation)
	}
	leg := &r.Ledger[legNumber-1]
	leg.ScoreA, leg.ScoreB = scoreA, scoreB
	r.Recalculate()
	return *leg, nil
}

// ForceRotation puts newFencerID on the strip for teamID outside the normal
// cadence. Scores, leg count and ledger stay untouched.
func (r *RelayMachine) ForceRotation(teamID, newFencerID int) error {
	s := r.State
	if s.Complete {
		return fmt.Errorf("%w: relay %d is complete", ErrInvalidState, s.TeamBoutID)
	}
	var starters [models.TeamStarters]int
	switch teamID {
	case s.TeamA:
		starters = s.StartersA
	case s.TeamB:
		starters = s.StartersB
	default:
		return fmt.Errorf("%w: team %d is not in relay %d", ErrValidation, teamID, s.TeamBoutID)
	}
	found := false
	for _, id := range starters {
		if id == newFencerID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: fencer %d is not a starter of team %d", ErrValidation, newFencerID, teamID)
	}
	if teamID == s.TeamA {
		s.CurrentFencerA = newFencerID
	} else {
		s.CurrentFencerB = newFencerID
	}
	return nil
}
