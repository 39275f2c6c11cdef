package models

// PoolMember is an entrant with its 1-based position inside a pool.
type PoolMember struct {
	Entrant  *Entrant `json:"entrant"`
	Position int      `json:"position"`
}

// Pool is one round-robin group of a pool round.
type Pool struct {
	PoolID  int          `json:"pool_id"`
	Members []PoolMember `json:"members"`
}

// PoolAssignment is the persisted form of a pool membership.
type PoolAssignment struct {
	RoundID   int `json:"round_id" db:"round_id"`
	PoolID    int `json:"pool_id" db:"pool_id"`
	EntrantID int `json:"entrant_id" db:"entrant_id"`
	Position  int `json:"position" db:"position"`
}
