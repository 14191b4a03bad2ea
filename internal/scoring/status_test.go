package scoring

import (
	"testing"
	"time"
)

func ts() *time.Time {
	t := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestDeriveStatus_Priority(t *testing.T) {
	tests := []struct {
		name string
		in   StatusInput
		want Status
	}{
		{"empty story", StatusInput{}, StatusIdea},
		{"finished wins over everything", StatusInput{
			Finished: ts(), Started: ts(), Planned: ts(), BlockedReason: "waiting",
		}, StatusDone},
		{"blocked beats started", StatusInput{
			Started: ts(), BlockedReason: "legal review",
		}, StatusBlocked},
		{"blocked reason of whitespace does not count", StatusInput{
			Started: ts(), BlockedReason: "   ",
		}, StatusStarted},
		{"started beats planned", StatusInput{Started: ts(), Planned: ts()}, StatusStarted},
		{"started without planned still counts", StatusInput{Started: ts()}, StatusStarted},
		{"planned alone", StatusInput{Planned: ts()}, StatusPlanned},
		{"refined and fully scored", StatusInput{
			HasGoal: true, HasWorkitems: true,
		}, StatusReady},
		{"undefined score keeps it an idea", StatusInput{
			HasGoal: true, HasWorkitems: true, HasUndefinedScore: true,
		}, StatusIdea},
		{"missing workitems keeps it an idea", StatusInput{HasGoal: true}, StatusIdea},
		{"missing goal keeps it an idea", StatusInput{HasWorkitems: true}, StatusIdea},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.in); got != tt.want {
				t.Errorf("DeriveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveStatus_FinishedAlwaysDone(t *testing.T) {
	// Any combination of the other fields must not override finished.
	inputs := []StatusInput{
		{Finished: ts()},
		{Finished: ts(), BlockedReason: "x"},
		{Finished: ts(), HasUndefinedScore: true},
		{Finished: ts(), Started: ts(), Planned: ts(), HasGoal: true, HasWorkitems: true},
	}
	for i, in := range inputs {
		if got := DeriveStatus(in); got != StatusDone {
			t.Errorf("case %d: DeriveStatus() = %q, want %q", i, got, StatusDone)
		}
	}
}

func TestStatusOrder_CoversAllStatuses(t *testing.T) {
	if len(StatusOrder) != len(AllStatuses) {
		t.Fatalf("StatusOrder has %d entries, AllStatuses has %d", len(StatusOrder), len(AllStatuses))
	}
	for i, s := range AllStatuses {
		if StatusOrder[s] != i {
			t.Errorf("StatusOrder[%q] = %d, want %d", s, StatusOrder[s], i)
		}
	}
}
