package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
)

// BracketMatch is a bout of a planned bracket, addressed by level and order
// instead of a database id. Level 0 is the first level (table of TableOf).
type BracketMatch struct {
	Level   int
	Order   int
	TableOf int

	LeftID   *int
	RightID  *int
	WinnerID *int

	LeftSeed  int
	RightSeed int

	IsBye bool

	// A slot is alive when some entrant can still reach it. Dead slots sit
	// under sub-trees without entrants.
	leftAlive  bool
	rightAlive bool
}

// IsFinal reports whether the match is the last one of the bracket.
func (m *BracketMatch) IsFinal() bool {
	return m.TableOf == 2
}

// Dead reports a match no entrant can ever reach.
func (m *BracketMatch) Dead() bool {
	return !m.leftAlive && !m.rightAlive
}

func (m *BracketMatch) alive() bool {
	return m.leftAlive || m.rightAlive
}

// Bracket is a full single elimination tree, one slice per level from the
// first level down to the final.
type Bracket struct {
	TableSize int
	Levels    [][]*BracketMatch
}

// Matches returns every match, level by level, in order within each level.
func (b *Bracket) Matches() []*BracketMatch {
	out := make([]*BracketMatch, 0, b.TableSize)
	for _, level := range b.Levels {
		out = append(out, level...)
	}
	return out
}

// Final returns the last match, or nil for an empty bracket.
func (b *Bracket) Final() *BracketMatch {
	if len(b.Levels) == 0 {
		return nil
	}
	return b.Levels[len(b.Levels)-1][0]
}

// Next returns the match the winner of m moves into and the slot it takes.
func (b *Bracket) Next(m *BracketMatch) (*BracketMatch, models.Slot, bool) {
	if m == nil || m.Level+1 >= len(b.Levels) {
		return nil, "", false
	}
	return b.Levels[m.Level+1][NextOrder(m.Order)], SlotForOrder(m.Order), true
}

// NextOrder is the position, in the following level, of the bout fed by the
// bout at order.
func NextOrder(order int) int {
	return order / 2
}

// SlotForOrder maps a bout's order within its level to the slot its winner
// takes in the next bout: even orders go left, odd orders go right.
func SlotForOrder(order int) models.Slot {
	if order%2 == 0 {
		return models.SlotLeft
	}
	return models.SlotRight
}

// Advance records a winner for m and places it into the next match. It fails
// when m is already decided or the winner is not in m.
func (b *Bracket) Advance(m *BracketMatch, winnerID int) error {
	if m.WinnerID != nil {
		return fmt.Errorf("%w: match %d/%d already decided", ErrInvalidState, m.TableOf, m.Order)
	}
	if !(m.LeftID != nil && *m.LeftID == winnerID) && !(m.RightID != nil && *m.RightID == winnerID) {
		return fmt.Errorf("%w: entrant %d is not in match %d/%d", ErrValidation, winnerID, m.TableOf, m.Order)
	}
	w := winnerID
	m.WinnerID = &w
	b.place(m)
	return nil
}

func (b *Bracket) place(m *BracketMatch) {
	next, slot, ok := b.Next(m)
	if !ok || m.WinnerID == nil {
		return
	}
	w := *m.WinnerID
	seed := m.LeftSeed
	if m.RightID != nil && *m.RightID == w {
		seed = m.RightSeed
	}
	if slot == models.SlotLeft {
		next.LeftID, next.LeftSeed = &w, seed
	} else {
		next.RightID, next.RightSeed = &w, seed
	}
}

// resolveByes decides every match whose only live slot is filled and pushes
// the winners forward, repeating until nothing changes. Byes chain across
// levels when a whole sub-tree of a forced larger table is empty.
func (b *Bracket) resolveByes() int {
	resolved := 0
	for changed := true; changed; {
		changed = false
		for _, level := range b.Levels {
			for _, m := range level {
				if m.WinnerID != nil || m.leftAlive == m.rightAlive {
					continue
				}
				var w *int
				if m.leftAlive {
					w = m.LeftID
				} else {
					w = m.RightID
				}
				if w == nil {
					continue
				}
				id := *w
				m.WinnerID = &id
				m.IsBye = true
				b.place(m)
				resolved++
				changed = true
			}
		}
	}
	return resolved
}

type GenerateBracketParams struct {
	RoundID int
	// Seeding must hold seeds 1..N.
	Seeding []*models.SeedingEntry
	// MinTableSize forces a larger table than the field needs. Zero means the
	// smallest table that fits.
	MinTableSize int
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket lays out every level of the tree at once. First-level slots
// come from the seeding table; seeds above N are byes and resolve straight
// away, so later levels already hold the entrants that advanced on a bye.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	entries := sortedBySeed(params.Seeding)
	n := len(entries)

	tableSize, err := TableSize(n)
	if err != nil {
		return nil, err
	}
	if params.MinTableSize > tableSize && n > 0 {
		if _, ok := seedingPositions[params.MinTableSize]; !ok {
			return nil, fmt.Errorf("%w: minimum table size %d is not supported", ErrConfiguration, params.MinTableSize)
		}
		tableSize = params.MinTableSize
	}
	bracket := &Bracket{TableSize: tableSize}
	if n == 0 {
		bracket.Levels = [][]*BracketMatch{}
		return bracket, nil
	}

	bySeed := make(map[int]int, n)
	for i, e := range entries {
		if e.Seed != i+1 {
			return nil, fmt.Errorf("%w: seeding must run 1..%d, found seed %d at rank %d", ErrConfiguration, n, e.Seed, i+1)
		}
		bySeed[e.Seed] = e.EntrantID
	}

	positions, err := Positions(tableSize)
	if err != nil {
		return nil, err
	}

	levels := LevelCount(tableSize)
	bracket.Levels = make([][]*BracketMatch, levels)
	for level, tableOf := 0, tableSize; level < levels; level, tableOf = level+1, tableOf/2 {
		matches := make([]*BracketMatch, tableOf/2)
		for order := range matches {
			matches[order] = &BracketMatch{Level: level, Order: order, TableOf: tableOf}
		}
		bracket.Levels[level] = matches
	}

	for order, pair := range positions {
		m := bracket.Levels[0][order]
		if id, ok := bySeed[pair.Left]; ok {
			m.LeftID, m.LeftSeed, m.leftAlive = &id, pair.Left, true
		}
		if id, ok := bySeed[pair.Right]; ok {
			m.RightID, m.RightSeed, m.rightAlive = &id, pair.Right, true
		}
	}
	for level := 1; level < levels; level++ {
		for _, m := range bracket.Levels[level] {
			m.leftAlive = bracket.Levels[level-1][2*m.Order].alive()
			m.rightAlive = bracket.Levels[level-1][2*m.Order+1].alive()
		}
	}

	bracket.resolveByes()
	return bracket, nil
}
