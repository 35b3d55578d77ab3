package user

type Stat string

// Dashboard stats
const (
	StatTotalStudents        Stat = "totalStudents"
	StatTotalClasses         Stat = "totalClasses"
	StatTotalPointsAwarded   Stat = "totalPointsAwarded"
	StatTotalRewardsRedeemed Stat = "totalRewardsRedeemed"
	StatPointsEarned         Stat = "pointsEarned"
	StatCurrentRank          Stat = "currentRank"
	StatRewardsRedeemed      Stat = "rewardsRedeemed"
	StatNextRewardCost       Stat = "nextRewardCost"
)

type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Capabilities is what a role can see: its navigation menu and its dashboard stat set.
type Capabilities struct {
	Role       Role      `json:"role"`
	Navigation []NavItem `json:"navigation"`
	Stats      []Stat    `json:"stats"`
}

var capabilities = map[Role]Capabilities{
	RoleTeacher: {
		Role: RoleTeacher,
		Navigation: []NavItem{
			{Label: "Dashboard", Path: "/"},
			{Label: "Students", Path: "/students"},
			{Label: "Classes", Path: "/classes"},
			{Label: "Rewards", Path: "/rewards"},
			{Label: "Leaderboard", Path: "/leaderboard"},
		},
		Stats: []Stat{StatTotalStudents, StatTotalClasses, StatTotalPointsAwarded, StatTotalRewardsRedeemed},
	},
	RoleStudent: {
		Role: RoleStudent,
		Navigation: []NavItem{
			{Label: "Dashboard", Path: "/"},
			{Label: "Leaderboard", Path: "/leaderboard"},
			{Label: "Rewards", Path: "/rewards"},
			{Label: "Progress", Path: "/progress"},
		},
		Stats: []Stat{StatPointsEarned, StatCurrentRank, StatRewardsRedeemed, StatNextRewardCost},
	},
}

// CapabilitiesFor returns a copy of the role's capabilities. Unknown roles get none.
func CapabilitiesFor(role Role) Capabilities {
	c, ok := capabilities[role]
	if !ok {
		return Capabilities{Role: role}
	}
	return Capabilities{
		Role:       c.Role,
		Navigation: append([]NavItem(nil), c.Navigation...),
		Stats:      append([]Stat(nil), c.Stats...),
	}
}

// Has reports whether the stat belongs to the capability set.
func (c Capabilities) Has(stat Stat) bool {
	for _, s := range c.Stats {
		if s == stat {
			return true
		}
	}
	return false
}
