package models

import (
	"time"
)

type ProvisionStatus string

const (
	ProvisionPending     ProvisionStatus = "pending"
	ProvisionProvisioned ProvisionStatus = "provisioned"
)

type User struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"uid"`
	Username        string          `gorm:"size:60;uniqueIndex" json:"username"`
	Name            string          `gorm:"size:255" json:"name"`
	Handle          string          `gorm:"size:255" json:"handle"`
	DID             string          `gorm:"size:255;column:did" json:"did"`
	Bio             string          `gorm:"size:500" json:"bio,omitempty"`
	AvatarURI       string          `gorm:"size:500" json:"avatar_uri,omitempty"`
	Password        string          `gorm:"size:255" json:"-"`
	ProvisionStatus ProvisionStatus `gorm:"size:20" json:"provision_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type UserTokens struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64  `gorm:"index:user_token_idx,unique" json:"user_id"`
	Token  string `gorm:"size:255;index:user_token_idx,unique" json:"token"`
}

func (UserTokens) TableName() string {
	return "user_tokens"
}
