package auth

import "time"

// Roles, in decreasing privilege. Staff and admins see everything;
// clients only see what the visibility policy lets through.
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleClient = "client"
)

type User struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	FullName     string    `gorm:"column:full_name" json:"full_name"`
	Phone        string    `gorm:"column:phone" json:"phone"`
	Role         string    `gorm:"column:role;default:client" json:"role"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// IsStaff reports whether the role grants unrestricted media visibility.
func IsStaff(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
