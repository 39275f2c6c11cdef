package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/fencing-bracket/models"
)

var ratingStrength = map[string]int{
	models.RatingA:       0,
	models.RatingB:       1,
	models.RatingC:       2,
	models.RatingD:       3,
	models.RatingE:       4,
	models.RatingUnrated: 5,
}

func ratingRank(rating string) int {
	if r, ok := ratingStrength[rating]; ok {
		return r
	}
	return ratingStrength[models.RatingUnrated]
}

// AggregateStats folds decided bouts into per-entrant aggregates. Byes and
// undecided bouts are skipped; wins follow the recorded winner, not the score.
func AggregateStats(bouts []*models.Bout) []models.BoutStats {
	byEntrant := make(map[int]*models.BoutStats)
	get := func(id int) *models.BoutStats {
		s, ok := byEntrant[id]
		if !ok {
			s = &models.BoutStats{EntrantID: id}
			byEntrant[id] = s
		}
		return s
	}

	for _, b := range bouts {
		if b == nil || b.WinnerID == nil || b.LeftID == nil || b.RightID == nil {
			continue
		}
		left, right := get(*b.LeftID), get(*b.RightID)
		left.BoutsPlayed++
		right.BoutsPlayed++
		left.TouchesScored += b.LeftScore
		left.TouchesReceived += b.RightScore
		right.TouchesScored += b.RightScore
		right.TouchesReceived += b.LeftScore
		switch *b.WinnerID {
		case *b.LeftID:
			left.Wins++
		case *b.RightID:
			right.Wins++
		}
	}

	out := make([]models.BoutStats, 0, len(byEntrant))
	for _, s := range byEntrant {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntrantID < out[j].EntrantID })
	return out
}

// Rank orders entrants by their results and assigns seeds 1..N.
//
// Order: win ratio desc, indicator desc, touches scored desc, entrant id asc.
// When no entrant has fenced a bout the preliminary strength is used instead:
// rating letter, then the more recent rating year, then entrant id.
func Rank(roundID int, entrants []*models.Entrant, stats []models.BoutStats) []*models.SeedingEntry {
	if len(entrants) == 0 {
		return []*models.SeedingEntry{}
	}

	byEntrant := make(map[int]models.BoutStats, len(stats))
	hasResults := false
	for _, s := range stats {
		byEntrant[s.EntrantID] = s
		if s.BoutsPlayed > 0 {
			hasResults = true
		}
	}

	ordered := make([]*models.Entrant, 0, len(entrants))
	for _, e := range entrants {
		if e != nil {
			ordered = append(ordered, e)
		}
	}

	if hasResults {
		sort.SliceStable(ordered, func(i, j int) bool {
			a, b := byEntrant[ordered[i].ID], byEntrant[ordered[j].ID]
			if ra, rb := a.WinRatio(), b.WinRatio(); ra != rb {
				return ra > rb
			}
			if ia, ib := a.Indicator(), b.Indicator(); ia != ib {
				return ia > ib
			}
			if a.TouchesScored != b.TouchesScored {
				return a.TouchesScored > b.TouchesScored
			}
			return ordered[i].ID < ordered[j].ID
		})
	} else {
		sort.SliceStable(ordered, func(i, j int) bool {
			a, b := ordered[i], ordered[j]
			if ra, rb := ratingRank(a.Rating), ratingRank(b.Rating); ra != rb {
				return ra < rb
			}
			if a.RatingYear != b.RatingYear {
				return a.RatingYear > b.RatingYear
			}
			return a.ID < b.ID
		})
	}

	seeding := make([]*models.SeedingEntry, len(ordered))
	for i, e := range ordered {
		seeding[i] = &models.SeedingEntry{
			RoundID:   roundID,
			EntrantID: e.ID,
			Seed:      i + 1,
			Entrant:   e,
		}
	}
	return seeding
}

// Promote keeps the top ceil(percent/100 * N) entries in rank order.
func Promote(ranked []*models.SeedingEntry, percent int) ([]*models.SeedingEntry, error) {
	if percent <= 0 || percent > 100 {
		return nil, fmt.Errorf("%w: promotion percent %d outside (0, 100]", ErrConfiguration, percent)
	}
	sorted := sortedBySeed(ranked)
	if percent == 100 {
		return sorted, nil
	}
	cutoff := (percent*len(sorted) + 99) / 100
	return sorted[:cutoff], nil
}

// PromoteToTarget keeps the top target entries, or all of them when the field
// is smaller than the target.
func PromoteToTarget(ranked []*models.SeedingEntry, target int) ([]*models.SeedingEntry, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: target bracket %d must be positive", ErrConfiguration, target)
	}
	sorted := sortedBySeed(ranked)
	if target >= len(sorted) {
		return sorted, nil
	}
	return sorted[:target], nil
}

// Reseed copies entries for another round, renumbering seeds 1..N in their
// current seed order.
func Reseed(roundID int, entries []*models.SeedingEntry) []*models.SeedingEntry {
	sorted := sortedBySeed(entries)
	out := make([]*models.SeedingEntry, len(sorted))
	for i, e := range sorted {
		out[i] = &models.SeedingEntry{
			RoundID:   roundID,
			EntrantID: e.EntrantID,
			Seed:      i + 1,
			Entrant:   e.Entrant,
		}
	}
	return out
}

func sortedBySeed(entries []*models.SeedingEntry) []*models.SeedingEntry {
	out := make([]*models.SeedingEntry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seed < out[j].Seed })
	return out
}
