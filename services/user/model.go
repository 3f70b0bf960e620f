package user

import "time"

type Role string

const (
	RoleTraveler Role = "TRAVELER"
	RoleHost     Role = "HOST"
	RoleAdmin    Role = "ADMIN"
)

type User struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Role         Role      `gorm:"column:role;type:varchar(20);default:'TRAVELER'" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
