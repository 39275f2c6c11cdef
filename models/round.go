package models

type RoundType string

const (
	RoundTypePool RoundType = "pool"
	RoundTypeDE   RoundType = "de"
)

// DE formats. Only single elimination is built; the others are recognised so
// that requests for them fail with a clear error.
const (
	DEFormatSingle  = "single"
	DEFormatDouble  = "double"
	DEFormatCompass = "compass"
)

// Round is one stage of an event: either a pool round or a DE round.
type Round struct {
	ID               int         `json:"id" db:"id"`
	EventID          int         `json:"event_id" db:"event_id"`
	Kind             EntrantKind `json:"kind" db:"kind"`
	Type             RoundType   `json:"type" db:"type"`
	Order            int         `json:"order" db:"rorder"`
	PoolCount        int         `json:"pool_count,omitempty" db:"pool_count"`
	PoolSize         int         `json:"pool_size,omitempty" db:"pool_size"`
	PromotionPercent int         `json:"promotion_percent" db:"promotion_percent"`
	TargetBracket    *int        `json:"target_bracket,omitempty" db:"target_bracket"`
	DEFormat         string      `json:"de_format,omitempty" db:"de_format"`
	DETableSize      int         `json:"de_table_size,omitempty" db:"de_table_size"`
	IsStarted        bool        `json:"is_started" db:"is_started"`
	IsComplete       bool        `json:"is_complete" db:"is_complete"`
}
