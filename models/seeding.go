package models

// SeedingKind separates the seeding a round starts from and the seeding its
// results produce for the next round.
type SeedingKind string

const (
	SeedingInitial SeedingKind = "initial"
	SeedingResult  SeedingKind = "result"
)

// SeedingEntry places an entrant at a seed for a round. Seeds run 1..N with 1
// the strongest.
type SeedingEntry struct {
	RoundID   int      `json:"round_id" db:"round_id"`
	EntrantID int      `json:"entrant_id" db:"entrant_id"`
	Seed      int      `json:"seed" db:"seed"`
	Entrant   *Entrant `json:"entrant,omitempty" db:"-"`
}

// BoutStats aggregates an entrant's decided bouts in a round.
type BoutStats struct {
	EntrantID       int `json:"entrant_id" db:"entrant_id"`
	Wins            int `json:"wins" db:"wins"`
	BoutsPlayed     int `json:"bouts_played" db:"bouts_played"`
	TouchesScored   int `json:"touches_scored" db:"touches_scored"`
	TouchesReceived int `json:"touches_received" db:"touches_received"`
}

// WinRatio is wins over bouts played, 0 when nothing was fenced.
func (s BoutStats) WinRatio() float64 {
	if s.BoutsPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.BoutsPlayed)
}

// Indicator is touches scored minus touches received.
func (s BoutStats) Indicator() int {
	return s.TouchesScored - s.TouchesReceived
}
