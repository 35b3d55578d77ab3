package reward

import "time"

type Reward struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PointsCost  int    `json:"pointsCost"`
	Limited     bool   `json:"limited"`
	Quantity    *int   `json:"quantity,omitempty"` // only set when Limited
	ImageURL    string `json:"imageUrl,omitempty"`
}

// InStock reports whether the reward can still be redeemed.
func (r *Reward) InStock() bool {
	return !r.Limited || (r.Quantity != nil && *r.Quantity > 0)
}

type Template struct {
	Name        string
	Description string
	PointsCost  int
}

// Templates are the fixed rewards the catalog is built from.
var Templates = []Template{
	{Name: "Extra Study Materials", Description: "Access to premium study resources", PointsCost: 50},
	{Name: "Mentorship Session", Description: "30-minute one-on-one session with a professor", PointsCost: 100},
	{Name: "Project Guidance", Description: "Personalized feedback on a project", PointsCost: 75},
	{Name: "Homework Extension", Description: "48-hour extension on any assignment", PointsCost: 40},
}

type Status string

// Redemption statuses
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Redemption struct {
	ID           string     `json:"id"`
	StudentID    string     `json:"studentId"`
	RewardID     string     `json:"rewardId"`
	RedeemedAt   time.Time  `json:"redeemedAt"` // UTC
	Status       Status     `json:"status"`
	TeacherID    string     `json:"teacherId,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"` // UTC
	StudentName  string     `json:"studentName,omitempty"`
	StudentEmail string     `json:"-"`
}

func (r *Redemption) IsPending() bool { return r.Status == StatusPending }

// resolve moves a pending redemption to its final status. It never reverts.
func (r *Redemption) resolve(status Status, teacherID string, at time.Time) error {
	if !r.IsPending() {
		return ErrAlreadyResolved
	}
	r.Status = status
	r.TeacherID = teacherID
	r.ResolvedAt = &at
	return nil
}

// Item pairs a redemption with the reward it is for.
type Item struct {
	Redemption Redemption `json:"redemption"`
	Reward     Reward     `json:"reward"`
}
