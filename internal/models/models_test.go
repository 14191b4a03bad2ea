package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestStory_Fields(t *testing.T) {
	typ := reflect.TypeOf(Story{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "EpicID", "index")
	assertGormTag(t, typ, "Title", "not null")
	assertGormTag(t, typ, "Title", "size:200")
	assertGormTag(t, typ, "Goal", "size:200")
	assertGormTag(t, typ, "Workitems", "type:text")
	assertGormTag(t, typ, "Blocked", "type:text")
	assertGormTag(t, typ, "Archived", "default:false")
	assertGormTag(t, typ, "Labels", "many2many:story_labels")

	// Stage timestamps must be nullable: unset is meaningful.
	assertFieldType(t, typ, "Planned", "*time.Time")
	assertFieldType(t, typ, "Started", "*time.Time")
	assertFieldType(t, typ, "Finished", "*time.Time")
}

func TestFactorScore_Fields(t *testing.T) {
	typ := reflect.TypeOf(FactorScore{})

	assertGormTag(t, typ, "StoryID", "uniqueIndex:idx_story_factor")
	assertGormTag(t, typ, "FactorID", "uniqueIndex:idx_story_factor")
	assertGormTag(t, typ, "Rank", "column:relative_rank")

	// Undefined-vs-zero lives in the type system, not in sentinel values.
	assertFieldType(t, typ, "AnswerID", "*uint")
	assertFieldType(t, typ, "Rank", "*int")
	assertFieldType(t, typ, "Answer", "*models.Answer")
}

func TestSection_Fields(t *testing.T) {
	typ := reflect.TypeOf(Section{})
	assertGormTag(t, typ, "Name", "not null")
	assertGormTag(t, typ, "Kind", "size:8")
	assertGormTag(t, typ, "Kind", "index")
}

func TestFactor_Fields(t *testing.T) {
	typ := reflect.TypeOf(Factor{})
	assertGormTag(t, typ, "SectionID", "index")
	assertGormTag(t, typ, "Mode", "default:absolute")
}

func TestStoryDependency_CompositeKey(t *testing.T) {
	typ := reflect.TypeOf(StoryDependency{})
	assertGormTag(t, typ, "StoryID", "primaryKey")
	assertGormTag(t, typ, "DependsOnID", "primaryKey")
}

func TestStoryHistory_NullableValues(t *testing.T) {
	typ := reflect.TypeOf(StoryHistory{})
	assertFieldType(t, typ, "OldValue", "*string")
	assertFieldType(t, typ, "NewValue", "*string")
}
