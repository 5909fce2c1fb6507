package cases

import "time"

// MissingCase is a missing-child report. Rows stay after closure; closing
// sets Status and ClosedAt rather than deleting.
type MissingCase struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ChildID          uint       `gorm:"index;not null" json:"child_id"`
	ReportedBy       uint       `gorm:"index" json:"reported_by"`
	Description      string     `json:"description"`
	LastSeenLocation string     `json:"last_seen_location"`
	LastSeenTime     *time.Time `json:"last_seen_time"`
	Status           string     `gorm:"default:'active';index" json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ClosedAt         *time.Time `json:"closed_at"`
}

func (MissingCase) TableName() string { return "cases.missing_cases" }
