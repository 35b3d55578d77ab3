package user

import (
	"time"

	"github.com/trezcool/edupoints/core"
)

type Role string

// Roles
const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var (
	AllRoles = []Role{RoleTeacher, RoleStudent}

	Roles = []RoleInfo{
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Student", Value: RoleStudent},
	}
)

func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

type Student struct {
	User
	TotalPoints int    `json:"totalPoints"`
	Rank        *int   `json:"rank,omitempty"`
	ClassID     string `json:"classId"`
}

type Teacher struct {
	User
	ClassIDs []string `json:"classIds"`
}

// Account is the role-discriminated identity held by a session: a *Student or a *Teacher.
type Account interface {
	Identity() User
	SetEmail(email string)
	Clone() Account
}

var (
	_ Account = (*Student)(nil)
	_ Account = (*Teacher)(nil)
)

func (s *Student) Identity() User        { return s.User }
func (s *Student) SetEmail(email string) { s.Email = email }

func (s *Student) Clone() Account {
	c := *s
	if s.Rank != nil {
		rank := *s.Rank
		c.Rank = &rank
	}
	return &c
}

func (t *Teacher) Identity() User        { return t.User }
func (t *Teacher) SetEmail(email string) { t.Email = email }

func (t *Teacher) Clone() Account {
	c := *t
	c.ClassIDs = append([]string(nil), t.ClassIDs...)
	return &c
}

type Class struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TeacherID string    `json:"teacherId"`
	Students  []string  `json:"students"`
	CreatedAt time.Time `json:"createdAt"` // UTC
}

// DashboardStats holds the role dependent dashboard figures; unset fields are not part of the role's stat set.
type DashboardStats struct {
	TotalStudents        *int `json:"totalStudents,omitempty"`
	TotalClasses         *int `json:"totalClasses,omitempty"`
	TotalPointsAwarded   *int `json:"totalPointsAwarded,omitempty"`
	TotalRewardsRedeemed *int `json:"totalRewardsRedeemed,omitempty"`
	PointsEarned         *int `json:"pointsEarned,omitempty"`
	CurrentRank          *int `json:"currentRank,omitempty"`
	RewardsRedeemed      *int `json:"rewardsRedeemed,omitempty"`
	NextRewardCost       *int `json:"nextRewardCost,omitempty"`
}

// LoginRequest carries the login form triple.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,role"`
}

func (lr *LoginRequest) Clean() {
	lr.Email = core.CleanString(lr.Email) // kept as typed
	lr.Role = Role(core.CleanString(string(lr.Role), true /* lower */))
}
