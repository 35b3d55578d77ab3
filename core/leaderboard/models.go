package leaderboard

import (
	"sort"

	"github.com/trezcool/edupoints/core/activity"
)

type Entry struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	TotalPoints int    `json:"totalPoints"`
	Rank        int    `json:"rank"` // derived by Rank
}

// Rank returns a copy of entries sorted by TotalPoints descending, each ranked by its 1-based position.
// Ties keep their input order and still get distinct ranks: this is positional ranking, not competition ranking.
func Rank(entries []Entry) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalPoints > ranked[j].TotalPoints
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// podiumOrder is the display order of the top 3: 2nd, 1st, 3rd.
var podiumOrder = [3]int{1, 0, 2}

// Podium returns the top 3 of a ranked board in display order, skipping missing places.
func Podium(ranked []Entry) []Entry {
	podium := make([]Entry, 0, len(podiumOrder))
	for _, pos := range podiumOrder {
		if pos < len(ranked) {
			podium = append(podium, ranked[pos])
		}
	}
	return podium
}

// Filter narrows the points a board is computed from.
type Filter string

// Filters
const (
	FilterAll        Filter = "all"
	FilterAttendance        = Filter(activity.CategoryAttendance)
	FilterAssignment        = Filter(activity.CategoryAssignment)
	FilterTest              = Filter(activity.CategoryTest)
)

type FilterOption struct {
	ID    Filter `json:"id"`
	Label string `json:"label"`
}

var FilterOptions = []FilterOption{
	{ID: FilterAll, Label: "All Points"},
	{ID: FilterAttendance, Label: "Attendance"},
	{ID: FilterAssignment, Label: "Assignments"},
	{ID: FilterTest, Label: "Tests"},
}

func (f Filter) Valid() bool {
	for _, opt := range FilterOptions {
		if f == opt.ID {
			return true
		}
	}
	return false
}

// Query is bound from the leaderboard request.
type Query struct {
	Category Filter `query:"category" validate:"omitempty,lbcategory"`
}

func (q *Query) Filter() Filter {
	if q.Category == "" {
		return FilterAll
	}
	return q.Category
}
