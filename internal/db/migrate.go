package db

import (
	"fmt"

	"github.com/askelund/storyrank/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Epic{},
		&models.Story{},
		&models.Section{},
		&models.Factor{},
		&models.Answer{},
		&models.FactorScore{},
		&models.LabelCategory{},
		&models.Label{},
		&models.StoryDependency{},
		&models.StoryHistory{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// seedSection describes one section of the default scoring configuration.
type seedSection struct {
	Name    string
	Kind    string
	Factors []seedFactor
}

type seedFactor struct {
	Name        string
	Description string
	Answers     []seedAnswer
}

type seedAnswer struct {
	Score       int
	Description string
}

// fibAnswers is the default 1/2/3/5/8 answer scale.
var fibAnswers = []seedAnswer{
	{1, "Minimal"},
	{2, "Low"},
	{3, "Moderate"},
	{5, "High"},
	{8, "Very high"},
}

// defaultSections is the scoring configuration installed by Seed.
var defaultSections = []seedSection{
	{Name: "Business Value", Kind: "value", Factors: []seedFactor{
		{Name: "Revenue impact", Description: "Direct effect on revenue or cost savings", Answers: fibAnswers},
		{Name: "Strategic fit", Description: "Alignment with current strategy", Answers: fibAnswers},
	}},
	{Name: "Time Criticality", Kind: "value", Factors: []seedFactor{
		{Name: "Decay", Description: "How fast the value decays if we wait", Answers: fibAnswers},
	}},
	{Name: "Effort", Kind: "cost", Factors: []seedFactor{
		{Name: "Implementation", Description: "Relative size of the build", Answers: fibAnswers},
		{Name: "Rollout", Description: "Migration, training and release work", Answers: fibAnswers},
	}},
	{Name: "Risk", Kind: "cost", Factors: []seedFactor{
		{Name: "Technical risk", Description: "Unknowns and failure modes", Answers: fibAnswers},
	}},
}

// Seed installs the default scoring configuration. Sections and factors are
// upserted by name so re-running seed is safe; existing answers are kept.
func Seed(gdb *gorm.DB) error {
	for _, ss := range defaultSections {
		section := models.Section{Name: ss.Name, Kind: ss.Kind}
		if err := gdb.Where(models.Section{Name: ss.Name, Kind: ss.Kind}).
			FirstOrCreate(&section).Error; err != nil {
			return fmt.Errorf("db: seed section %q: %w", ss.Name, err)
		}
		for _, sf := range ss.Factors {
			factor := models.Factor{SectionID: section.ID, Name: sf.Name, Description: sf.Description, Mode: "absolute"}
			if err := gdb.Where(models.Factor{SectionID: section.ID, Name: sf.Name}).
				Attrs(models.Factor{Description: sf.Description, Mode: "absolute"}).
				FirstOrCreate(&factor).Error; err != nil {
				return fmt.Errorf("db: seed factor %q: %w", sf.Name, err)
			}
			var count int64
			if err := gdb.Model(&models.Answer{}).Where("factor_id = ?", factor.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("db: seed answers for %q: %w", sf.Name, err)
			}
			if count > 0 {
				continue
			}
			for _, sa := range sf.Answers {
				answer := models.Answer{FactorID: factor.ID, Score: sa.Score, Description: sa.Description}
				if err := gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&answer).Error; err != nil {
					return fmt.Errorf("db: seed answer %d for %q: %w", sa.Score, sf.Name, err)
				}
			}
		}
	}
	return nil
}
