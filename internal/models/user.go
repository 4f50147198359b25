package models

import "time"

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

type User struct {
	BaseModel
	Name          string     `json:"name" gorm:"type:varchar(100);not null"`
	Email         string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash  string     `json:"-" gorm:"type:text;not null"`
	Subdomain     string     `json:"subdomain" gorm:"type:varchar(30);uniqueIndex;not null"`
	Role          UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	IsSuspended   bool       `json:"isSuspended" gorm:"not null;default:false;index"`
	SuspendedAt   *time.Time `json:"suspendedAt,omitempty"`
	SuspendReason *string    `json:"suspendReason,omitempty" gorm:"type:text"`

	Portfolio *Portfolio `json:"-" gorm:"foreignKey:UserID"`
	Projects  []Project  `json:"-" gorm:"foreignKey:UserID"`
}
