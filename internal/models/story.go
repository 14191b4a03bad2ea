package models

import "time"

// Story is the unit of work in the backlog.
//
// The workflow stage is never stored: it is derived from the planned/started/
// finished timestamps and the blocked reason (see internal/scoring). Archived
// is a soft delete; stories are never hard-deleted through the app.
type Story struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	EpicID    uint   `gorm:"index;not null"`
	Title     string `gorm:"size:200;not null"`
	Goal      string `gorm:"size:200"`
	Workitems string `gorm:"type:text"`

	Planned  *time.Time
	Started  *time.Time
	Finished *time.Time

	// Blocked holds the reason; non-empty means the story is blocked.
	Blocked string `gorm:"type:text"`

	Archived       bool `gorm:"default:false;index"`
	ReviewRequired bool `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Epic         Epic              `gorm:"foreignKey:EpicID"`
	Scores       []FactorScore     `gorm:"foreignKey:StoryID"`
	Labels       []Label           `gorm:"many2many:story_labels"`
	Dependencies []StoryDependency `gorm:"foreignKey:StoryID"`
	History      []StoryHistory    `gorm:"foreignKey:StoryID"`
}

// StoryDependency says Story depends on DependsOn: the latter should finish
// before work on the former begins.
type StoryDependency struct {
	StoryID     uint `gorm:"primaryKey"`
	DependsOnID uint `gorm:"primaryKey"`
	CreatedAt   time.Time

	Story     Story `gorm:"foreignKey:StoryID"`
	DependsOn Story `gorm:"foreignKey:DependsOnID"`
}
