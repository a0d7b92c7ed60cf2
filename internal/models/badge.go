package models

// BadgeState is the acquisition state of one badge for one user, as computed by get_badges.
// Acquired 0 means not acquired; a positive value is the acquired tier.
type BadgeState struct {
	Project  string `gorm:"column:project" json:"project"`
	ID       string `gorm:"column:id" json:"id"`
	Acquired int    `gorm:"column:acquired" json:"acquired"`
}

// Key identifies the badge across projects.
func (b BadgeState) Key() string {
	return b.Project + "/" + b.ID
}

// BadgeChange is a badge whose state changed during a contribution.
type BadgeChange struct {
	Project     string `json:"project"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Acquired    int    `json:"acquired"`
	Previous    int    `json:"previous"`
	New         bool   `json:"new"`
}
