package models

import "time"

// Bout is a single match between two entrants. In the first level of a
// bracket either slot may be empty (a bye); deeper levels start empty and are
// filled as winners advance.
type Bout struct {
	ID         int       `json:"id" db:"id"`
	RoundID    int       `json:"round_id" db:"round_id"`
	LeftID     *int      `json:"left_id,omitempty" db:"left_entrant_id"`
	RightID    *int      `json:"right_id,omitempty" db:"right_entrant_id"`
	WinnerID   *int      `json:"winner_id,omitempty" db:"winner_id"`
	LeftScore  int       `json:"left_score" db:"left_score"`
	RightScore int       `json:"right_score" db:"right_score"`
	TableOf    int       `json:"table_of" db:"table_of"`
	PoolID     *int      `json:"pool_id,omitempty" db:"pool_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func (b *Bout) IsDecided() bool {
	return b.WinnerID != nil
}

// IsBye reports whether exactly one slot is filled and the bout was decided
// without being fenced.
func (b *Bout) IsBye() bool {
	return (b.LeftID == nil) != (b.RightID == nil) && b.WinnerID != nil
}

// HasEntrant reports whether id occupies either slot.
func (b *Bout) HasEntrant(id int) bool {
	return (b.LeftID != nil && *b.LeftID == id) || (b.RightID != nil && *b.RightID == id)
}

// Slot selects the side of a bout an advancing winner lands in.
type Slot string

const (
	SlotLeft  Slot = "left"
	SlotRight Slot = "right"
)

// BracketLink connects a bout to the bout its winner moves into. Order is the
// bout's 0-based position within its level; NextBoutID is nil for the final.
type BracketLink struct {
	RoundID    int  `json:"round_id" db:"round_id"`
	BoutID     int  `json:"bout_id" db:"bout_id"`
	NextBoutID *int `json:"next_bout_id,omitempty" db:"next_bout_id"`
	Order      int  `json:"order" db:"bout_order"`
}
