package models

import (
	"testing"
	"time"
)

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1", "2", -1},
		{"2", "12", -1},
		{"12", "2", 1},
		{"7", "7", 0},
		{"20240101120000", "20240101115959", 1},
		{"99", "abc", -1},
		{"abc", "99", 1},
		{"abc", "abd", -1},
	}
	for _, tt := range tests {
		if got := CompareIDs(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareIDs(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSort_ByID(t *testing.T) {
	notes := []*Note{{ID: "12"}, {ID: "2"}, {ID: "1"}}
	Sort(notes, OrderID)
	if notes[0].ID != "1" || notes[1].ID != "2" || notes[2].ID != "12" {
		t.Errorf("order = %s %s %s", notes[0].ID, notes[1].ID, notes[2].ID)
	}
}

func TestSort_ByUpdatedWithIDTieBreak(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	notes := []*Note{
		{ID: "3", LastUpdated: base},
		{ID: "1", LastUpdated: base.Add(time.Hour)},
		{ID: "2", LastUpdated: base},
	}
	Sort(notes, OrderUpdated)
	got := notes[0].ID + notes[1].ID + notes[2].ID
	if got != "123" {
		t.Errorf("order = %s, want 123", got)
	}
}

func TestCompare_NilAndIDLessSortFirst(t *testing.T) {
	n := &Note{ID: "1"}
	if Compare(n, nil, OrderID) <= 0 {
		t.Error("nil should sort before a note")
	}
	if Compare(nil, n, OrderID) >= 0 {
		t.Error("nil should sort before a note")
	}
	if Compare(n, &Note{}, OrderUpdated) <= 0 {
		t.Error("id-less note should sort before a note with an id")
	}
	if Compare(nil, nil, OrderID) != 0 {
		t.Error("nil vs nil should be equal")
	}
}

func TestParseOrder(t *testing.T) {
	if o, err := ParseOrder(""); err != nil || o != OrderID {
		t.Errorf("ParseOrder(\"\") = %q, %v", o, err)
	}
	if o, err := ParseOrder("Updated"); err != nil || o != OrderUpdated {
		t.Errorf("ParseOrder(Updated) = %q, %v", o, err)
	}
	if _, err := ParseOrder("title"); err == nil {
		t.Error("ParseOrder(title) should fail")
	}
}
