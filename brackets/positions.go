package brackets

import (
	"fmt"
	"sort"
)

// MaxTableSize is the largest bracket the engine builds. Larger fields have to
// be split before they reach the DE round.
const MaxTableSize = 128

// seedingPositions lists, per table size, the seeds in bracket order. Adjacent
// pairs meet in the first level and the top seeds are kept apart until the
// latest possible level.
var seedingPositions = map[int][]int{
	2: {
		1, 2,
	},
	4: {
		1, 4, 3, 2,
	},
	8: {
		1, 8, 5, 4, 3, 6, 7, 2,
	},
	16: {
		1, 16, 9, 8, 5, 12, 13, 4, 3, 14, 11, 6, 7, 10, 15, 2,
	},
	32: {
		1, 32, 17, 16, 9, 24, 25, 8, 5, 28, 21, 12, 13, 20, 29, 4,
		3, 30, 19, 14, 11, 22, 27, 6, 7, 26, 23, 10, 15, 18, 31, 2,
	},
	64: {
		1, 64, 33, 32, 17, 48, 49, 16, 9, 56, 41, 24, 25, 40, 57, 8,
		5, 60, 37, 28, 21, 44, 53, 12, 13, 52, 45, 20, 29, 36, 61, 4,
		3, 62, 35, 30, 19, 46, 51, 14, 11, 54, 43, 22, 27, 38, 59, 6,
		7, 58, 39, 26, 23, 42, 55, 10, 15, 50, 47, 18, 31, 34, 63, 2,
	},
	128: {
		1, 128, 65, 64, 33, 96, 97, 32, 17, 112, 81, 48, 49, 80, 113, 16,
		9, 120, 73, 56, 41, 88, 105, 24, 25, 104, 89, 40, 57, 72, 121, 8,
		5, 124, 69, 60, 37, 92, 101, 28, 21, 108, 85, 44, 53, 76, 117, 12,
		13, 116, 77, 52, 45, 84, 109, 20, 29, 100, 93, 36, 61, 68, 125, 4,
		3, 126, 67, 62, 35, 94, 99, 30, 19, 110, 83, 46, 51, 78, 115, 14,
		11, 118, 75, 54, 43, 86, 107, 22, 27, 102, 91, 38, 59, 70, 123, 6,
		7, 122, 71, 58, 39, 90, 103, 26, 23, 106, 87, 42, 55, 74, 119, 10,
		15, 114, 79, 50, 47, 82, 111, 18, 31, 98, 95, 34, 63, 66, 127, 2,
	},
}

// SeedPair is one first-level pairing of seeds.
type SeedPair struct {
	Left  int
	Right int
}

// SupportedTableSizes returns the table sizes with a fixed seeding order,
// smallest first.
func SupportedTableSizes() []int {
	sizes := make([]int, 0, len(seedingPositions))
	for size := range seedingPositions {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}

// SeedOrder returns a copy of the seeding permutation for tableSize.
func SeedOrder(tableSize int) ([]int, error) {
	perm, ok := seedingPositions[tableSize]
	if !ok {
		return nil, fmt.Errorf("%w: no seeding table for size %d", ErrConfiguration, tableSize)
	}
	out := make([]int, len(perm))
	copy(out, perm)
	return out, nil
}

// Positions returns the first-level pairings for tableSize: pair i is
// (perm[2i], perm[2i+1]).
func Positions(tableSize int) ([]SeedPair, error) {
	perm, ok := seedingPositions[tableSize]
	if !ok {
		return nil, fmt.Errorf("%w: no seeding table for size %d", ErrConfiguration, tableSize)
	}
	pairs := make([]SeedPair, 0, tableSize/2)
	for i := 0; i+1 < len(perm); i += 2 {
		pairs = append(pairs, SeedPair{Left: perm[i], Right: perm[i+1]})
	}
	return pairs, nil
}

// TableSize returns the smallest supported table that fits n entrants. Zero
// entrants need no table.
func TableSize(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative entrant count %d", ErrConfiguration, n)
	}
	if n == 0 {
		return 0, nil
	}
	for _, size := range SupportedTableSizes() {
		if size >= n {
			return size, nil
		}
	}
	return 0, fmt.Errorf("%w: %d entrants exceed the largest table of %d", ErrConfiguration, n, MaxTableSize)
}

// LevelCount is the number of bracket levels for a table, log2(tableSize).
func LevelCount(tableSize int) int {
	levels := 0
	for size := tableSize; size > 1; size /= 2 {
		levels++
	}
	return levels
}

// RoundName returns the display name of a bracket level.
func RoundName(tableOf int) string {
	switch tableOf {
	case 2:
		return "Finals"
	case 4:
		return "Semi-Finals"
	case 8:
		return "Quarter-Finals"
	default:
		return fmt.Sprintf("Round of %d", tableOf)
	}
}
