package brackets

import (
	"fmt"

	"github.com/Dosada05/fencing-bracket/models"
)

// BuildPools spreads seeded entrants over pools in a snake: seeds 1..P go
// left to right, seeds P+1..2P right to left, and so on. Pool strength stays
// balanced and the grouping is reproducible for a given seeding.
//
// A non-positive poolCount is derived from perPool. Members keep their seed
// order inside a pool and get 1-based positions.
func BuildPools(seeded []*models.SeedingEntry, poolCount, perPool int) ([]*models.Pool, error) {
	entries := sortedBySeed(seeded)
	n := len(entries)
	if n == 0 {
		return []*models.Pool{}, nil
	}
	if perPool <= 0 {
		return nil, fmt.Errorf("%w: entrants per pool must be positive, got %d", ErrConfiguration, perPool)
	}
	if poolCount <= 0 {
		poolCount = (n + perPool - 1) / perPool
	}
	if n > poolCount*perPool {
		return nil, fmt.Errorf("%w: %d entrants do not fit %d pools of %d", ErrConfiguration, n, poolCount, perPool)
	}

	pools := make([]*models.Pool, poolCount)
	for i := range pools {
		pools[i] = &models.Pool{PoolID: i, Members: make([]models.PoolMember, 0, perPool)}
	}

	for i, entry := range entries {
		row, col := i/poolCount, i%poolCount
		target := col
		if row%2 == 1 {
			target = poolCount - 1 - col
		}
		entrant := entry.Entrant
		if entrant == nil {
			entrant = &models.Entrant{ID: entry.EntrantID}
		}
		pool := pools[target]
		pool.Members = append(pool.Members, models.PoolMember{
			Entrant:  entrant,
			Position: len(pool.Members) + 1,
		})
	}
	return pools, nil
}

// Assignments flattens pools into their persisted rows.
func Assignments(roundID int, pools []*models.Pool) []*models.PoolAssignment {
	out := make([]*models.PoolAssignment, 0)
	for _, pool := range pools {
		for _, m := range pool.Members {
			out = append(out, &models.PoolAssignment{
				RoundID:   roundID,
				PoolID:    pool.PoolID,
				EntrantID: m.Entrant.ID,
				Position:  m.Position,
			})
		}
	}
	return out
}
