package models

import "time"

// Epic is a container for related stories.
type Epic struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Title       string `gorm:"size:200;not null"`
	Description string `gorm:"type:text"`
	Archived    bool   `gorm:"default:false;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Stories []Story `gorm:"foreignKey:EpicID"`
}
