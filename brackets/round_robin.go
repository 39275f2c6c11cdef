package brackets

import "github.com/Dosada05/fencing-bracket/models"

// PoolBoutTableOf marks pool bouts. Pools have no elimination structure, so
// every bout is decided on its own.
const PoolBoutTableOf = 2

// PositionPair is a bout between two 1-based pool positions.
type PositionPair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// RoundRobinPairs returns every unordered pair of positions 1..k once, in
// ascending (i, then j) order: k(k-1)/2 pairs.
func RoundRobinPairs(k int) []PositionPair {
	if k < 2 {
		return []PositionPair{}
	}
	pairs := make([]PositionPair, 0, k*(k-1)/2)
	for i := 1; i <= k; i++ {
		for j := i + 1; j <= k; j++ {
			pairs = append(pairs, PositionPair{Left: i, Right: j})
		}
	}
	return pairs
}

// PoolBouts expands a pool into its round-robin bouts, numbered in
// RoundRobinPairs order.
func PoolBouts(roundID int, pool *models.Pool) []*models.Bout {
	if pool == nil {
		return []*models.Bout{}
	}
	byPosition := make(map[int]*models.Entrant, len(pool.Members))
	for _, m := range pool.Members {
		byPosition[m.Position] = m.Entrant
	}

	poolID := pool.PoolID
	pairs := RoundRobinPairs(len(pool.Members))
	bouts := make([]*models.Bout, 0, len(pairs))
	for _, p := range pairs {
		left, right := byPosition[p.Left].ID, byPosition[p.Right].ID
		bouts = append(bouts, &models.Bout{
			RoundID: roundID,
			LeftID:  &left,
			RightID: &right,
			TableOf: PoolBoutTableOf,
			PoolID:  &poolID,
		})
	}
	return bouts
}

// Standard fencing order of pool bouts by pool size. Consecutive bouts avoid
// sending the same fencer back on the strip.
var fencingOrders = map[int][]PositionPair{
	4: {
		{1, 4}, {2, 3}, {1, 3}, {2, 4}, {3, 4}, {1, 2},
	},
	5: {
		{1, 2}, {3, 4}, {5, 1}, {2, 3}, {5, 4}, {1, 3}, {2, 5}, {4, 1}, {3, 5}, {4, 2},
	},
	6: {
		{1, 2}, {4, 5}, {2, 3}, {5, 6}, {3, 1}, {6, 4}, {2, 5}, {1, 4}, {5, 3}, {1, 6},
		{4, 2}, {3, 6}, {5, 1}, {3, 4}, {6, 2},
	},
	7: {
		{1, 4}, {2, 5}, {3, 6}, {7, 1}, {5, 4}, {2, 3}, {6, 7}, {5, 1}, {4, 3}, {6, 2},
		{5, 7}, {3, 1}, {4, 6}, {7, 2}, {3, 5}, {1, 6}, {2, 4}, {7, 3}, {6, 5}, {1, 2},
		{4, 7},
	},
	8: {
		{2, 3}, {1, 5}, {7, 4}, {6, 8}, {1, 2}, {3, 4}, {5, 6}, {8, 7}, {4, 1}, {5, 2},
		{8, 3}, {6, 7}, {4, 2}, {8, 1}, {7, 5}, {3, 6}, {2, 8}, {5, 4}, {6, 1}, {3, 7},
		{4, 8}, {2, 6}, {3, 5}, {1, 7}, {4, 6}, {8, 5}, {7, 2}, {1, 3},
	},
	9: {
		{1, 9}, {2, 8}, {3, 7}, {4, 6}, {1, 5}, {2, 9}, {8, 3}, {7, 4}, {6, 5}, {1, 2},
		{9, 3}, {8, 4}, {7, 5}, {6, 1}, {3, 2}, {9, 4}, {5, 8}, {7, 6}, {3, 1}, {2, 4},
		{5, 9}, {8, 6}, {7, 1}, {4, 3}, {5, 2}, {6, 9}, {8, 7}, {4, 1}, {5, 3}, {6, 2},
		{9, 7}, {1, 8}, {4, 5}, {3, 6}, {2, 7}, {9, 8},
	},
}

// FencingOrder returns the order in which a pool of size k is fenced. Sizes
// without a standard table fall back to RoundRobinPairs.
func FencingOrder(k int) []PositionPair {
	order, ok := fencingOrders[k]
	if !ok {
		return RoundRobinPairs(k)
	}
	out := make([]PositionPair, len(order))
	copy(out, order)
	return out
}
