package core

import (
	"reflect"
	"testing"
)

func TestDiff_SelfIsEmpty(t *testing.T) {
	f := validFields()
	f.Email = strp("jane@example.com")
	f.BudgetMin = intp(10)
	f.Tags = []string{"a", "b"}

	got := Diff(f, f)
	if got == nil || len(got) != 0 {
		t.Errorf("Diff(f, f) = %v, want empty non-nil", got)
	}
}

func TestDiff_StatusOnly(t *testing.T) {
	old := validFields()
	old.Status = "New"
	next := old
	next.Status = "Contacted"

	got := Diff(old, next)
	want := ChangeSet{"status": {Old: "New", New: "Contacted"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
}

func TestDiff_Optionals(t *testing.T) {
	old := validFields()
	next := validFields()
	next.Email = strp("jane@example.com")
	old.BudgetMax = intp(500)
	next.BudgetMax = intp(600)
	old.Notes = strp("x")

	got := Diff(old, next)
	want := ChangeSet{
		"email":     {Old: nil, New: "jane@example.com"},
		"budgetMax": {Old: 500, New: 600},
		"notes":     {Old: "x", New: nil},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
}

func TestDiff_TagsCompareAsSet(t *testing.T) {
	old := validFields()
	next := validFields()
	old.Tags = []string{"hot", "nri"}
	next.Tags = []string{"nri", "hot"}
	if got := Diff(old, next); len(got) != 0 {
		t.Errorf("reordered tags produced %v", got)
	}

	next.Tags = []string{"hot"}
	got := Diff(old, next)
	want := FieldChange{Old: []string{"hot", "nri"}, New: []string{"hot"}}
	if !reflect.DeepEqual(got["tags"], want) {
		t.Errorf("tags change = %v, want %v", got["tags"], want)
	}

	old.Tags = nil
	next.Tags = []string{}
	if got := Diff(old, next); len(got) != 0 {
		t.Errorf("nil vs empty tags produced %v", got)
	}
}

func TestChangeSet_Fields(t *testing.T) {
	cs := ChangeSet{"status": {}, "fullName": {}, "tags": {}}
	want := []string{"fullName", "tags", "status"}
	if got := cs.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestHistoryEntry_IsCreation(t *testing.T) {
	if !(HistoryEntry{Diff: creationChangeSet(CreatedByImport)}).IsCreation() {
		t.Error("import entry should be a creation")
	}
	if (HistoryEntry{Diff: ChangeSet{"status": {}}}).IsCreation() {
		t.Error("status edit is not a creation")
	}
}
