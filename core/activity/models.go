package activity

import "time"

type Category string

// Categories
const (
	CategoryAttendance    Category = "attendance"
	CategoryAssignment    Category = "assignment"
	CategoryTest          Category = "test"
	CategoryParticipation Category = "participation"
	CategoryOther         Category = "other"
)

var AllCategories = []Category{
	CategoryAttendance,
	CategoryAssignment,
	CategoryTest,
	CategoryParticipation,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, cat := range AllCategories {
		if c == cat {
			return true
		}
	}
	return false
}

type Type struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PointsValue int    `json:"pointsValue"`
	Description string `json:"description,omitempty"`
}

// Templates are the fixed activity types points are awarded for.
var Templates = []Type{
	{ID: "1", Name: "Class Attendance", PointsValue: 5},
	{ID: "2", Name: "Homework Completion", PointsValue: 10},
	{ID: "3", Name: "Test Score A", PointsValue: 20},
	{ID: "4", Name: "Class Participation", PointsValue: 5},
}

type Activity struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"studentId"`
	TeacherID    string    `json:"teacherId"`
	ClassID      string    `json:"classId"`
	ActivityType Type      `json:"activityType"`
	Category     Category  `json:"category"`
	Points       int       `json:"points"` // mirrors ActivityType.PointsValue
	Date         time.Time `json:"date"`
	Description  string    `json:"description,omitempty"`
}
