package models

import "time"

// LabelCategory groups labels (e.g. "Team", "Quarter").
type LabelCategory struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:100;not null;uniqueIndex"`
	CreatedAt time.Time

	Labels []Label `gorm:"foreignKey:CategoryID"`
}

// Label tags stories within a category.
type Label struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	CategoryID uint   `gorm:"uniqueIndex:idx_category_label;not null"`
	Name       string `gorm:"size:100;uniqueIndex:idx_category_label;not null"`
	CreatedAt  time.Time

	Category LabelCategory `gorm:"foreignKey:CategoryID"`
	Stories  []Story       `gorm:"many2many:story_labels"`
}
