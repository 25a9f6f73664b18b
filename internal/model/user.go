package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"size:20;default:'student'" json:"role"`
	// 可消费余额，只允许通过奖励发放网关单调递增
	Coins int `gorm:"default:0" json:"coins"`
	XP    int `gorm:"default:0" json:"xp"`
	// 第三方课堂平台的学生标识，为空表示未绑定同步
	ClassroomStudentID string    `gorm:"size:100;index" json:"classroomStudentId,omitempty"`
	Language           string    `gorm:"size:10;default:'en'" json:"language"`
	Avatar             string    `gorm:"size:255" json:"avatar"`
	Disabled           bool      `gorm:"default:false" json:"disabled"`
	LastLogin          time.Time `gorm:"autoCreateTime" json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
