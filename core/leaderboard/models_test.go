package leaderboard

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edupoints/core"
)

func entries(points ...int) []Entry {
	res := make([]Entry, len(points))
	for i, p := range points {
		res[i] = Entry{StudentID: string(rune('a' + i)), TotalPoints: p, Rank: 99}
	}
	return res
}

func ids(entries []Entry) string {
	var s string
	for _, e := range entries {
		s += e.StudentID
	}
	return s
}

func ranks(entries []Entry) []int {
	res := make([]int, len(entries))
	for i, e := range entries {
		res[i] = e.Rank
	}
	return res
}

func TestRank(t *testing.T) {
	tests := []struct {
		name      string
		points    []int
		wantOrder string
	}{
		{name: "empty", points: nil, wantOrder: ""},
		{name: "single", points: []int{7}, wantOrder: "a"},
		{name: "ties keep input order", points: []int{10, 90, 50, 90, 0}, wantOrder: "bdcae"},
		{name: "all equal", points: []int{5, 5, 5}, wantOrder: "abc"},
		{name: "already sorted", points: []int{3, 2, 1}, wantOrder: "abc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := entries(tc.points...)
			ranked := Rank(in)

			assert.Equal(t, tc.wantOrder, ids(ranked))
			for i, e := range ranked {
				assert.Equal(t, i+1, e.Rank)
				if i > 0 {
					assert.GreaterOrEqual(t, ranked[i-1].TotalPoints, e.TotalPoints)
				}
			}
			// input untouched
			for _, e := range in {
				assert.Equal(t, 99, e.Rank)
			}
		})
	}
}

func TestRank_ties(t *testing.T) {
	ranked := Rank(entries(10, 90, 50, 90, 0))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ranks(ranked))
	assert.Equal(t, []int{90, 90, 50, 10, 0}, []int{
		ranked[0].TotalPoints, ranked[1].TotalPoints, ranked[2].TotalPoints, ranked[3].TotalPoints, ranked[4].TotalPoints,
	})
}

func TestRank_idempotent(t *testing.T) {
	once := Rank(entries(4, 8, 15, 16, 23, 42, 8))
	assert.Equal(t, once, Rank(once))
}

func TestPodium(t *testing.T) {
	tests := []struct {
		name   string
		points []int
		want   string
	}{
		{name: "empty", want: ""},
		{name: "one", points: []int{1}, want: "a"},
		{name: "two", points: []int{1, 2}, want: "ab"},
		{name: "full", points: []int{1, 2, 3, 4}, want: "cdb"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Podium(Rank(entries(tc.points...)))))
		})
	}
}

func TestQuery_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	tests := []struct {
		category   Filter
		wantFilter Filter
		wantErr    string
	}{
		{category: "", wantFilter: FilterAll},
		{category: "all", wantFilter: FilterAll},
		{category: " Attendance ", wantFilter: FilterAttendance},
		{category: "assignment", wantFilter: FilterAssignment},
		{category: "test", wantFilter: FilterTest},
		{category: "participation", wantErr: "unknown leaderboard category"},
	}
	for _, tc := range tests {
		t.Run(string(tc.category), func(t *testing.T) {
			q := Query{Category: tc.category}
			err := q.Validate(validate)
			if tc.wantErr != "" {
				require.Error(t, err)
				vErrs, ok := err.(validator.ValidationErrors)
				require.True(t, ok)
				assert.Equal(t, "category", vErrs[0].Field())
				assert.Equal(t, tc.wantErr, vErrs[0].Translate(translator))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantFilter, q.Filter())
		})
	}
}
