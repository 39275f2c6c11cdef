package models

// RelayLeg is one ledger entry of a relay team bout. Scores are the touches
// each side scored during that leg.
type RelayLeg struct {
	TeamBoutID int `json:"team_bout_id" db:"team_bout_id"`
	LegNumber  int `json:"leg_number" db:"leg_number"`
	FencerA    int `json:"fencer_a" db:"fencer_a_id"`
	FencerB    int `json:"fencer_b" db:"fencer_b_id"`
	ScoreA     int `json:"score_a" db:"score_a"`
	ScoreB     int `json:"score_b" db:"score_b"`
}

// RelayState is the mutable cursor over a relay ledger.
type RelayState struct {
	TeamBoutID     int               `json:"team_bout_id" db:"team_bout_id"`
	TeamA          int               `json:"team_a" db:"team_a_id"`
	TeamB          int               `json:"team_b" db:"team_b_id"`
	StartersA      [TeamStarters]int `json:"starters_a" db:"-"`
	StartersB      [TeamStarters]int `json:"starters_b" db:"-"`
	CurrentFencerA int               `json:"current_fencer_a" db:"current_fencer_a_id"`
	CurrentFencerB int               `json:"current_fencer_b" db:"current_fencer_b_id"`
	LegsPlayed     int               `json:"legs_played" db:"legs_played"`
	ScoreA         int               `json:"score_a" db:"score_a"`
	ScoreB         int               `json:"score_b" db:"score_b"`
	WinnerID       *int              `json:"winner_id,omitempty" db:"winner_id"`
	Complete       bool              `json:"complete" db:"is_complete"`
}
