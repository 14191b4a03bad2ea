package models

import "time"

// StoryHistory is one field change in a story's audit trail.
type StoryHistory struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	StoryID   uint    `gorm:"index;not null"`
	Field     string  `gorm:"size:100;not null"`
	OldValue  *string `gorm:"type:text"`
	NewValue  *string `gorm:"type:text"`
	ChangedAt time.Time

	Story Story `gorm:"foreignKey:StoryID"`
}
