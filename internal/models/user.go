package models

import "time"

type User struct {
	ID           string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"column:username;type:text;uniqueIndex" json:"username"`
	Email        string    `gorm:"column:email;type:text;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;type:text" json:"-"`
	IsStaff      bool      `gorm:"column:is_staff" json:"is_staff"`
	IsActive     bool      `gorm:"column:is_active;default:true" json:"is_active"`
	DateJoined   time.Time `gorm:"column:date_joined" json:"date_joined"`
}

func (User) TableName() string { return "users" }
