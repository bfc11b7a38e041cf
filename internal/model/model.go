package model

import "time"

// Role is the access role assigned to an API account.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleStaff Role = "Staff"
)

// ResolveRole maps a requested role name onto one of the fixed roles.
// An empty or unknown value falls back to Staff.
func ResolveRole(requested string) Role {
	if requested == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleStaff
}

type User struct {
	ID           int64
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

type Student struct {
	ID               int64
	StudentID        string
	FirstName        string
	LastName         string
	DateOfBirth      time.Time
	Gender           string
	Address          *string
	Email            *string
	Phone            *string
	RegistrationDate time.Time
	IsActive         bool
}

type Course struct {
	ID          int64
	Code        string
	Name        string
	Description *string
	CreditHours int
	IsActive    bool
}

// TimetableSlot is a single weekly occurrence of a course.
// DayOfWeek runs 1 (Monday) through 7 (Sunday); times are "HH:MM:SS".
type TimetableSlot struct {
	ID           int64
	CourseID     int64
	CourseName   string
	DayOfWeek    int
	StartTime    string
	EndTime      string
	RoomNumber   *string
	AcademicYear string
	Semester     string
}

// DayName returns the English weekday name for a 1..7 day index.
func DayName(dayOfWeek int) string {
	switch dayOfWeek {
	case 1:
		return "Monday"
	case 2:
		return "Tuesday"
	case 3:
		return "Wednesday"
	case 4:
		return "Thursday"
	case 5:
		return "Friday"
	case 6:
		return "Saturday"
	case 7:
		return "Sunday"
	default:
		return "Unknown"
	}
}
