package models

import "strings"

type UserRole string

const (
	UserRoleStudent UserRole = "STUDENT"
	UserRoleFaculty UserRole = "FACULTY"
	UserRoleAdmin   UserRole = "ADMIN"
)

// ParseUserRole normalises a role received from the portal or from storage.
// Unknown values are returned with ok=false and must never match an allow-list.
func ParseUserRole(value string) (UserRole, bool) {
	switch role := UserRole(strings.ToUpper(strings.TrimSpace(value))); role {
	case UserRoleStudent, UserRoleFaculty, UserRoleAdmin:
		return role, true
	default:
		return "", false
	}
}

type User struct {
	UserID int64    `json:"userId"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}

// Profile is the portal's view of a user as returned by GET /users/{id}.
type Profile struct {
	UserID          int64    `json:"userId"`
	StudentID       string   `json:"studentId,omitempty"`
	PhoneNumber     string   `json:"phoneNumber,omitempty"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Role            UserRole `json:"role"`
	Department      string   `json:"department,omitempty"`
	IsActive        bool     `json:"isActive"`
	IsEmailVerified bool     `json:"isEmailVerified"`
}
