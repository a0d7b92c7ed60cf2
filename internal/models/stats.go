package models

import (
	"time"
)

// NoteCount is one sample of open and closed notes for a project.
type NoteCount struct {
	Project   string    `gorm:"column:project;index" json:"-"`
	Timestamp time.Time `gorm:"column:ts" json:"ts"`
	Open      int       `gorm:"column:open" json:"open"`
	Closed    int       `gorm:"column:closed" json:"closed"`
}

// TableName specifies the table name for NoteCount model.
func (NoteCount) TableName() string {
	return "note_counts"
}

// FeatureCount is one sample of the number of features of a project.
type FeatureCount struct {
	Project   string    `gorm:"column:project;index" json:"-"`
	Timestamp time.Time `gorm:"column:ts" json:"ts"`
	Amount    int64     `gorm:"column:amount" json:"amount"`
}

// TableName specifies the table name for FeatureCount model.
func (FeatureCount) TableName() string {
	return "feature_counts"
}

// LeaderboardRow is the stored projection maintained by the database.
type LeaderboardRow struct {
	Project string `gorm:"column:project;index"`
	UserID  int64  `gorm:"column:userid"`
	Pos     int    `gorm:"column:pos"`
	Score   int    `gorm:"column:score"`
}

// TableName specifies the table name for LeaderboardRow model.
func (LeaderboardRow) TableName() string {
	return "leaderboard"
}

// LeaderboardEntry is a leaderboard row joined with the user's display name.
type LeaderboardEntry struct {
	Project  string `gorm:"column:project" json:"project,omitempty"`
	UserID   int64  `gorm:"column:userid" json:"userid"`
	Username string `gorm:"column:username" json:"username"`
	Pos      int    `gorm:"column:pos" json:"pos"`
	Score    int    `gorm:"column:score" json:"score"`
}

// TagKeyCount is the number of project features carrying a tag key.
type TagKeyCount struct {
	Key   string `gorm:"column:k" json:"k"`
	Count int64  `gorm:"column:nb" json:"nb"`
}
