// Package mockgen generates the sample data served in place of a real backend.
//
// Every value comes from the Generator's random source: plug a fixed-seed source to get
// reproducible data in tests, use NewUnseeded in production.
package mockgen

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/trezcool/edupoints/core/activity"
	"github.com/trezcool/edupoints/core/leaderboard"
	"github.com/trezcool/edupoints/core/reward"
	"github.com/trezcool/edupoints/core/user"
)

const (
	tokenLen      = 7
	tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	avatarURLFmt = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s-%d"
	imageURLFmt  = "https://source.unsplash.com/random/300x200?sig=%v"

	teacherName = "Professor Smith"
	studentName = "Student Doe"

	teacherClassCount = 3
	maxStudentPoints  = 500
	maxStudentRank    = 30
	maxBoardPoints    = 1000
	maxRewardQuantity = 10
	activityWindow    = 30 // days

	day = 24 * time.Hour
)

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand

	Now func() time.Time // mockable
}

func New(src rand.Source) *Generator {
	return &Generator{
		rnd: rand.New(src),
		Now: time.Now,
	}
}

func NewSeeded(seed int64) *Generator {
	return New(rand.NewSource(seed))
}

func NewUnseeded() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Intn(n)
}

func (g *Generator) float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()
}

// token returns an opaque id such as "user-k3x9a0b".
func (g *Generator) token(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := make([]byte, tokenLen)
	for i := range b {
		b[i] = tokenAlphabet[g.rnd.Intn(len(tokenAlphabet))]
	}
	return prefix + "-" + string(b)
}

func (g *Generator) avatarURL(seed string) string {
	return fmt.Sprintf(avatarURLFmt, seed, g.intn(1000))
}

func (g *Generator) letter() string {
	return string(rune('A' + g.intn(26)))
}

func (g *Generator) User(role user.Role) user.User {
	name := studentName
	if role == user.RoleTeacher {
		name = teacherName
	}
	return user.User{
		ID:        g.token("user"),
		Name:      name,
		Email:     fmt.Sprintf("%s@example.com", role),
		Role:      role,
		AvatarURL: g.avatarURL(string(role)),
	}
}

func (g *Generator) Student() *user.Student {
	rank := g.intn(maxStudentRank) + 1
	return &user.Student{
		User:        g.User(user.RoleStudent),
		TotalPoints: g.intn(maxStudentPoints),
		Rank:        &rank,
		ClassID:     g.token("class"),
	}
}

func (g *Generator) Teacher() *user.Teacher {
	classIDs := make([]string, teacherClassCount)
	for i := range classIDs {
		classIDs[i] = g.token("class")
	}
	return &user.Teacher{
		User:     g.User(user.RoleTeacher),
		ClassIDs: classIDs,
	}
}

// Account returns a Teacher for the teacher role, a Student otherwise.
func (g *Generator) Account(role user.Role) user.Account {
	if role == user.RoleTeacher {
		return g.Teacher()
	}
	return g.Student()
}

func (g *Generator) Class(teacherID string, studentIDs ...string) user.Class {
	return user.Class{
		ID:        g.token("class"),
		Name:      "Class " + g.letter(),
		TeacherID: teacherID,
		Students:  append([]string{}, studentIDs...),
		CreatedAt: g.Now().UTC(),
	}
}

// Activity picks the activity type and the category independently:
// a "Test Score A" activity may well be filed under attendance.
func (g *Generator) Activity(studentID, teacherID, classID string) activity.Activity {
	typ := activity.Templates[g.intn(len(activity.Templates))]
	category := activity.AllCategories[g.intn(len(activity.AllCategories))]
	daysAgo := time.Duration(g.intn(activityWindow))

	return activity.Activity{
		ID:           g.token("activity"),
		StudentID:    studentID,
		TeacherID:    teacherID,
		ClassID:      classID,
		ActivityType: typ,
		Category:     category,
		Points:       typ.PointsValue,
		Date:         g.Now().Add(-daysAgo * day),
		Description:  typ.Name + " activity",
	}
}

func (g *Generator) Activities(n int, studentID, teacherID, classID string) []activity.Activity {
	if n < 0 {
		n = 0
	}
	activities := make([]activity.Activity, n)
	for i := range activities {
		activities[i] = g.Activity(studentID, teacherID, classID)
	}
	return activities
}

func (g *Generator) Reward() reward.Reward {
	tmpl := reward.Templates[g.intn(len(reward.Templates))]
	rwd := reward.Reward{
		ID:          g.token("reward"),
		Name:        tmpl.Name,
		Description: tmpl.Description,
		PointsCost:  tmpl.PointsCost,
		Limited:     g.float64() > 0.5,
		ImageURL:    fmt.Sprintf(imageURLFmt, g.float64()),
	}
	if rwd.Limited {
		qty := g.intn(maxRewardQuantity) + 1
		rwd.Quantity = &qty
	}
	return rwd
}

func (g *Generator) Rewards(n int) []reward.Reward {
	if n < 0 {
		n = 0
	}
	rewards := make([]reward.Reward, n)
	for i := range rewards {
		rewards[i] = g.Reward()
	}
	return rewards
}

// Leaderboard returns count ranked entries. The rank set at construction is discarded by the ranking.
func (g *Generator) Leaderboard(count int) []leaderboard.Entry {
	if count < 0 {
		count = 0
	}
	entries := make([]leaderboard.Entry, count)
	for i := range entries {
		entries[i] = leaderboard.Entry{
			StudentID:   g.token("student"),
			StudentName: "Student " + g.letter(),
			AvatarURL:   g.avatarURL("student"),
			TotalPoints: g.intn(maxBoardPoints),
			Rank:        i + 1,
		}
	}
	return leaderboard.Rank(entries)
}

// sample teacher totals
const (
	sampleTotalStudents        = 32
	sampleTotalClasses         = 4
	sampleTotalPointsAwarded   = 2540
	sampleTotalRewardsRedeemed = 18
)

// DashboardStats fills the account's stat set. Teachers get sample totals, students their own record.
// rewardsRedeemed and nextRewardCost only apply to students.
func (g *Generator) DashboardStats(acct user.Account, rewardsRedeemed, nextRewardCost int) user.DashboardStats {
	intp := func(i int) *int { return &i }

	switch a := acct.(type) {
	case *user.Teacher:
		return user.DashboardStats{
			TotalStudents:        intp(sampleTotalStudents),
			TotalClasses:         intp(sampleTotalClasses),
			TotalPointsAwarded:   intp(sampleTotalPointsAwarded),
			TotalRewardsRedeemed: intp(sampleTotalRewardsRedeemed),
		}
	case *user.Student:
		rank := 0
		if a.Rank != nil {
			rank = *a.Rank
		}
		return user.DashboardStats{
			PointsEarned:    intp(a.TotalPoints),
			CurrentRank:     intp(rank),
			RewardsRedeemed: intp(rewardsRedeemed),
			NextRewardCost:  intp(nextRewardCost),
		}
	}
	return user.DashboardStats{}
}
