package interp

import "testing"

func TestLegendAddDedupesBySameDescriptionAndBlock(t *testing.T) {
	l := NewLegend()
	l.Add(LegendEntry{Kind: LegendPoint, Description: "town", BlockName: "drawTown"})
	l.Add(LegendEntry{Kind: LegendPoint, Description: "town", BlockName: "drawTown"})
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (duplicate description+block should merge)", l.Len())
	}
	if l.Entries()[0].RefCount != 2 {
		t.Fatalf("RefCount = %d, want 2", l.Entries()[0].RefCount)
	}
}

func TestLegendAddKeepsDistinctEntriesForDifferentDescriptions(t *testing.T) {
	l := NewLegend()
	l.Add(LegendEntry{Kind: LegendPoint, Description: "town", BlockName: "drawTown"})
	l.Add(LegendEntry{Kind: LegendLine, Description: "road", BlockName: "drawRoad"})
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
}

func TestLegendEntriesPreserveFirstAddedOrder(t *testing.T) {
	l := NewLegend()
	l.Add(LegendEntry{Description: "b", BlockName: "b"})
	l.Add(LegendEntry{Description: "a", BlockName: "a"})
	entries := l.Entries()
	if entries[0].Description != "b" || entries[1].Description != "a" {
		t.Fatalf("entries in wrong order: %+v", entries)
	}
}

func TestLegendIgnoreAdditionsSuppressesAdd(t *testing.T) {
	l := NewLegend()
	l.IgnoreAdditions()
	l.Add(LegendEntry{Description: "x", BlockName: "x"})
	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 while additions are ignored", l.Len())
	}
	l.AcceptAdditions()
	l.Add(LegendEntry{Description: "x", BlockName: "x"})
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after AcceptAdditions", l.Len())
	}
}
