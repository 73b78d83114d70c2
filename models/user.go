package models

// UserRole is the role claim carried by board session tokens.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
)
