package models

// EntrantKind tells individual fencers and teams apart. Bracket and pool logic
// treat both the same way; only relay scoring cares about the difference.
type EntrantKind string

const (
	EntrantIndividual EntrantKind = "individual"
	EntrantTeam       EntrantKind = "team"
)

// Rating letters used for preliminary strength, strongest first.
const (
	RatingA       = "A"
	RatingB       = "B"
	RatingC       = "C"
	RatingD       = "D"
	RatingE       = "E"
	RatingUnrated = "U"
)

// TeamStarters is the number of registered starters a relay team fields.
const TeamStarters = 3

// Entrant is a fencer or a team registered for an event.
type Entrant struct {
	ID         int         `json:"id" db:"id"`
	EventID    int         `json:"event_id" db:"event_id"`
	Kind       EntrantKind `json:"kind" db:"kind"`
	Name       string      `json:"name" db:"name"`
	ClubID     *int        `json:"club_id,omitempty" db:"club_id"`
	Rating     string      `json:"rating,omitempty" db:"rating"`
	RatingYear int         `json:"rating_year,omitempty" db:"rating_year"`

	// Starters holds the three registered starter fencer ids of a team, in
	// position order. Empty for individuals.
	Starters []int `json:"starters,omitempty" db:"-"`
}

func (e *Entrant) IsTeam() bool {
	return e != nil && e.Kind == EntrantTeam
}

// HasStarter reports whether fencerID is one of the team's registered starters.
func (e *Entrant) HasStarter(fencerID int) bool {
	if e == nil {
		return false
	}
	for _, id := range e.Starters {
		if id == fencerID {
			return true
		}
	}
	return false
}
