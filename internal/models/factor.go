package models

import "time"

// Section groups scoring factors on the value or cost side of the WSJF ratio.
type Section struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:200;not null"`
	Kind        string `gorm:"size:8;not null;index"` // value, cost
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Factors []Factor `gorm:"foreignKey:SectionID"`
}

// Factor is one scored dimension within a section.
type Factor struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	SectionID   uint   `gorm:"index;not null"`
	Name        string `gorm:"size:200;not null"`
	Description string `gorm:"type:text"`
	Mode        string `gorm:"size:8;default:absolute"` // absolute, relative
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Section Section  `gorm:"foreignKey:SectionID"`
	Answers []Answer `gorm:"foreignKey:FactorID"`
}

// Answer is a selectable score option for a factor. The factor's answer
// scores also define its min/max range for relative-rank normalization.
type Answer struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	FactorID    uint   `gorm:"index;not null"`
	Score       int    `gorm:"not null"`
	Description string `gorm:"size:400"`
	CreatedAt   time.Time

	Factor Factor `gorm:"foreignKey:FactorID"`
}

// FactorScore links a story to a factor with the selected answer and, for
// relative factors, the story's rank.
//
// AnswerID nil means undefined (not yet scored) — never conflated with a
// stored score of 0. Rank nil means unranked, 0 means "does not apply",
// N > 0 is the position among ranked stories for the factor.
type FactorScore struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	StoryID   uint  `gorm:"uniqueIndex:idx_story_factor;not null"`
	FactorID  uint  `gorm:"uniqueIndex:idx_story_factor;not null"`
	AnswerID  *uint `gorm:"index"`
	Rank      *int  `gorm:"column:relative_rank"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Story  Story   `gorm:"foreignKey:StoryID"`
	Factor Factor  `gorm:"foreignKey:FactorID"`
	Answer *Answer `gorm:"foreignKey:AnswerID"`
}
