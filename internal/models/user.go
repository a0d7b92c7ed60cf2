package models

import (
	"time"
)

// UserName maps an OpenStreetMap user id to its last known display name.
type UserName struct {
	UserID   int64  `gorm:"column:userid;primaryKey;autoIncrement:false" json:"user_id"`
	Username string `gorm:"column:username;not null;index" json:"username"`
}

// TableName specifies the table name for UserName model.
func (UserName) TableName() string {
	return "user_names"
}

// Contribution types.
const (
	ContributionAdd    = "add"
	ContributionEdit   = "edit"
	ContributionDelete = "delete"
)

// Contribution is one user action logged against a project. Rows are append-only.
type Contribution struct {
	Project      string    `gorm:"column:project;not null;index" json:"project"`
	UserID       int64     `gorm:"column:userid;not null;index" json:"user_id"`
	Timestamp    time.Time `gorm:"column:ts;not null" json:"ts"`
	Contribution string    `gorm:"column:contribution;not null" json:"contribution"`
	Verified     bool      `gorm:"column:verified;not null;default:false" json:"verified"`
	Points       int       `gorm:"column:points" json:"points"`
}

// TableName specifies the table name for Contribution model.
func (Contribution) TableName() string {
	return "user_contributions"
}
