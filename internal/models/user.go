/**
 * @description
 * User database model.
 * Maps to the 'users' table in PostgreSQL.
 * Users are anonymous session identities; an email is attached later to receive alerts.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a subscriber identified by a session UUID
type User struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserUUID string  `gorm:"column:user_uuid;type:varchar(36);uniqueIndex;not null" json:"user_uuid"`
	Email    *string `gorm:"uniqueIndex" json:"email"` // Nil until the user submits one
	IsActive bool    `gorm:"column:is_active;default:true" json:"is_active"`

	Tracking []Tracking `gorm:"foreignKey:UserID" json:"tracking,omitempty"`
}

// TableName overrides the table name used by User to `users`
func (User) TableName() string {
	return "users"
}

// BeforeCreate ensures a session UUID is assigned if not present
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.UserUUID == "" {
		u.UserUUID = uuid.NewString()
	}
	return
}
