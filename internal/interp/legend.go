package interp

import "mapyrus/internal/value"

// LegendKind identifies the drawing shape a legend entry's synthetic path
// should take when its block is re-invoked.
type LegendKind int

const (
	LegendPoint LegendKind = iota
	LegendLine
	LegendZigzag
	LegendBox
)

// LegendEntry is one accumulated `key` command: a description, the kind
// of synthetic path to draw it against, the target procedure block name,
// the actual argument values captured at `key` time, and a reference
// count (multiple `key` calls for the same description/block accumulate
// into one entry, per the original's de-duplication behaviour).
type LegendEntry struct {
	Kind        LegendKind
	Description string
	BlockName   string
	Args        []value.Value
	RefCount    int
}

// Legend is purely an entry list with the three operations §4.J
// describes: new entries normally append, but while legend rendering is
// in progress (ignoreAdditions), further `key` calls are dropped so that
// labels drawn by the legend itself do not recurse into the list they are
// being rendered from.
type Legend struct {
	entries []*LegendEntry
	ignore  bool
}

// NewLegend returns an empty legend.
func NewLegend() *Legend { return &Legend{} }

// Add appends entry, or increments the reference count of an existing
// entry with the same description and block name. No-op while additions
// are being ignored.
func (l *Legend) Add(entry LegendEntry) {
	if l.ignore {
		return
	}
	for _, e := range l.entries {
		if e.Description == entry.Description && e.BlockName == entry.BlockName {
			e.RefCount++
			return
		}
	}
	entry.RefCount = 1
	e := entry
	l.entries = append(l.entries, &e)
}

// Entries returns the accumulated entries in the order they were first
// added.
func (l *Legend) Entries() []*LegendEntry { return l.entries }

// Len reports the number of distinct entries.
func (l *Legend) Len() int { return len(l.entries) }

// IgnoreAdditions suppresses further Add calls, used while `legend` is
// re-invoking stored blocks so their own `key`/label calls don't recurse.
func (l *Legend) IgnoreAdditions() { l.ignore = true }

// AcceptAdditions re-enables Add, called once legend rendering completes.
func (l *Legend) AcceptAdditions() { l.ignore = false }
