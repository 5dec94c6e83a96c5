package models

import "gorm.io/gorm"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is a person who can sign in. Students are identified by roll number,
// admins by username. Roll numbers are stored upper-cased and are unique.
// Stops reference students by roll number only.
type User struct {
	gorm.Model
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role" gorm:"index"` // "student", "admin"

	RollNumber string `json:"rollNumber,omitempty" gorm:"uniqueIndex:idx_users_roll_number,where:roll_number <> ''"`
	Username   string `json:"username,omitempty" gorm:"index"`

	Password string `json:"-"` // bcrypt hash
}

// IsStudent reports whether the user has the student role.
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
