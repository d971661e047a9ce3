package profile

import (
	"strings"
	"time"
)

// Semester bounds for student profiles.
const (
	MinSemester = 1
	MaxSemester = 12
)

// StudentProfile is the academic record of a student account.
type StudentProfile struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	RollNumber   string    `json:"roll_number"`
	Major        string    `json:"major"`
	Semester     int       `json:"semester"`
	ContactEmail string    `json:"contact_email"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns "First Last".
func (p *StudentProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// FacultyProfile is the staff record of a faculty account.
type FacultyProfile struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	EmployeeID        string    `json:"employee_id"`
	Department        string    `json:"department"`
	Designation       string    `json:"designation"`
	ContactEmail      string    `json:"contact_email"`
	PhoneNumber       string    `json:"phone_number,omitempty"`
	OfficeLocation    string    `json:"office_location,omitempty"`
	ResearchInterests []string  `json:"research_interests"`
	OfficeHours       string    `json:"office_hours,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// FullName returns "First Last".
func (p *FacultyProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// ParseInterests splits a comma-separated list, dropping blanks.
func ParseInterests(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
