package core

import "slices"

// Diff compares a stored buyer's fields to a validated update.
//
// Every user-editable field is compared; id, owner and updatedAt are not part
// of BuyerFields and never appear. Absent optional values are reported as nil.
// Tags compare as sets. The result is empty, never nil, when nothing changed.
func Diff(old, next BuyerFields) ChangeSet {
	cs := ChangeSet{}

	diffValue(cs, "fullName", old.FullName, next.FullName)
	diffOptional(cs, "email", old.Email, next.Email)
	diffValue(cs, "phone", old.Phone, next.Phone)
	diffValue(cs, "city", old.City, next.City)
	diffValue(cs, "propertyType", old.PropertyType, next.PropertyType)
	diffOptional(cs, "bhk", old.BHK, next.BHK)
	diffValue(cs, "purpose", old.Purpose, next.Purpose)
	diffOptional(cs, "budgetMin", old.BudgetMin, next.BudgetMin)
	diffOptional(cs, "budgetMax", old.BudgetMax, next.BudgetMax)
	diffValue(cs, "timeline", old.Timeline, next.Timeline)
	diffValue(cs, "source", old.Source, next.Source)
	diffOptional(cs, "notes", old.Notes, next.Notes)
	diffValue(cs, "status", old.Status, next.Status)

	if !sameTags(old.Tags, next.Tags) {
		cs["tags"] = FieldChange{Old: tagValue(old.Tags), New: tagValue(next.Tags)}
	}

	return cs
}

func diffValue[T comparable](cs ChangeSet, field string, old, next T) {
	if old != next {
		cs[field] = FieldChange{Old: old, New: next}
	}
}

func diffOptional[T comparable](cs ChangeSet, field string, old, next *T) {
	switch {
	case old == nil && next == nil:
		return
	case old != nil && next != nil && *old == *next:
		return
	}
	cs[field] = FieldChange{Old: deref(old), New: deref(next)}
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func sameTags(a, b []string) bool {
	return slices.Equal(tagSet(a), tagSet(b))
}

// tagSet returns the sorted distinct tags.
func tagSet(tags []string) []string {
	s := slices.Clone(tags)
	slices.Sort(s)
	return slices.Compact(s)
}

func tagValue(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}
