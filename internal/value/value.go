// Package value implements the tagged Value used throughout expression
// evaluation and variable storage: numbers, strings, variable references,
// geometries and associative maps, modeled on a tagged runtime value
// design (a Map/Array pair) but collapsed into one discriminated struct
// rather than a family of interface{} wrappers, since Mapyrus's value set
// is fixed and small.
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	mapyruserr "mapyrus/internal/errors"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindVariableRef
	KindGeometry
	KindMap
)

// Value is the tagged union shared by the expression evaluator and the
// variable tables in Context.
type Value struct {
	kind    Kind
	num     float64
	str     string
	geom    *Geometry
	m       *Map
}

// Zero and One are the canonical boolean-ish results of comparisons and
// logical operators: results of 0.0 and 1.0 are canonicalised to shared
// constants.
var (
	Zero = Number(0)
	One  = Number(1)
)

// Number constructs a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// String constructs a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// VariableRef constructs a value that names a variable rather than holding
// one directly. The parser produces no such value; VariableName reads the
// name back.
func VariableRef(name string) Value { return Value{kind: KindVariableRef, str: name} }

// FromGeometry wraps a Geometry as a Value.
func FromGeometry(g *Geometry) Value { return Value{kind: KindGeometry, geom: g} }

// FromMap wraps a Map as a Value.
func FromMap(m *Map) Value { return Value{kind: KindMap, m: m} }

// Bool maps a Go bool to the canonical Zero/One value.
func Bool(b bool) Value {
	if b {
		return One
	}
	return Zero
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsTrue() bool {
	return v.kind == KindNumber && v.num != 0
}

// AsNumber coerces the value to a float64. Strings parse as decimal;
// unparsable strings yield 0, a lossy string/number interconversion.
func (v Value) AsNumber() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// AsString renders the canonical decimal form of a number (no trailing
// zeros/point for integral values) or returns the string/variable-name
// payload directly.
func (v Value) AsString() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindString, KindVariableRef:
		return v.str
	case KindGeometry:
		return fmt.Sprintf("<geometry %v>", v.geom.Type)
	case KindMap:
		return "<map>"
	}
	return ""
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && !math.IsInf(n, 0) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// AsGeometry returns the geometry payload, or nil if this value is not a
// geometry.
func (v Value) AsGeometry() *Geometry {
	if v.kind == KindGeometry {
		return v.geom
	}
	return nil
}

// AsMap returns the map payload, or nil if this value is not a map.
func (v Value) AsMap() *Map {
	if v.kind == KindMap {
		return v.m
	}
	return nil
}

// VariableName returns the referenced name for a KindVariableRef value.
func (v Value) VariableName() string {
	if v.kind == KindVariableRef {
		return v.str
	}
	return ""
}

// CheckFinite fails with NumericOverflow if n is NaN or infinite, per the
// rule that numeric results must never silently become ±Inf/NaN.
func CheckFinite(n float64) error {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return mapyruserr.New(mapyruserr.NumericOverflow, "numeric result is not finite")
	}
	return nil
}

// GeomType enumerates the nested geometry shapes a Geometry value can hold.
type GeomType int

const (
	GeomPoint GeomType = iota
	GeomLineString
	GeomPolygon
	GeomMultiPoint
	GeomMultiLineString
	GeomMultiPolygon
	GeomCollection
)

// VertexTag marks whether a vertex starts a new sub-path (MoveTo) or
// continues the current one (LineTo), exactly as Path vertices are tagged.
type VertexTag int

const (
	VertexMoveTo VertexTag = iota
	VertexLineTo
)

// Vertex is one coordinate pair of a geometry's flat vertex buffer.
type Vertex struct {
	X, Y float64
	Tag  VertexTag
}

// Geometry is the flat, tagged coordinate buffer described in the data
// model: Point/LineString/Polygon carry their vertices directly in
// Vertices (ring and sub-path boundaries are implied by MoveTo tags,
// exactly as in Path); the Multi* and Collection kinds carry their parts
// contiguously in Children.
type Geometry struct {
	Type     GeomType
	Vertices []Vertex
	Children []*Geometry
}

// Validate checks the counts-match-totals invariant from the data model:
// a flat (non-multi) geometry's first vertex must be a MoveTo, and a
// multi/collection geometry carries no vertices of its own.
func (g *Geometry) Validate() error {
	switch g.Type {
	case GeomMultiPoint, GeomMultiLineString, GeomMultiPolygon, GeomCollection:
		if len(g.Vertices) != 0 {
			return mapyruserr.New(mapyruserr.UnexpectedValues, "multi/collection geometry must not carry direct vertices")
		}
		for _, c := range g.Children {
			if err := c.Validate(); err != nil {
				return err
			}
		}
	default:
		if len(g.Vertices) > 0 && g.Vertices[0].Tag != VertexMoveTo {
			return mapyruserr.New(mapyruserr.UnexpectedValues, "geometry vertex buffer must begin with a MoveTo")
		}
	}
	return nil
}

// Map is the ordered associative value: insertion order is preserved for
// `for` loops and `map_keys_in_insertion_order`, while puts of a Value
// that is itself a map clone it (map-by-copy, not by-reference).
type Map struct {
	mu    sync.RWMutex
	order []string
	data  map[string]Value
}

// NewMap returns an empty, ready-to-use Map.
func NewMap() *Map {
	return &Map{data: make(map[string]Value)}
}

// Get returns the value stored at key and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Put stores v at key, appending key to the insertion order on first
// write. If v wraps a Map, the map is deep-cloned before storage so later
// mutation of the source map is not observable through this one.
func (m *Map) Put(key string, v Value) {
	if v.kind == KindMap && v.m != nil {
		v = FromMap(v.m.Clone())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; !exists {
		m.order = append(m.order, key)
	}
	m.data[key] = v
}

// Clone performs a deep copy, used by Put's copy-on-insert rule and for
// nested maps while cloning.
func (m *Map) Clone() *Map {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := &Map{
		order: append([]string(nil), m.order...),
		data:  make(map[string]Value, len(m.data)),
	}
	for k, v := range m.data {
		if v.kind == KindMap && v.m != nil {
			v = FromMap(v.m.Clone())
		}
		out.data[k] = v
	}
	return out
}

// KeysInsertionOrder returns a snapshot of keys in the order they were
// first inserted. The snapshot is independent of later mutation, which is
// what makes for-loop-over-a-map iteration stable against concurrent
// inserts during the loop body.
func (m *Map) KeysInsertionOrder() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// KeysSortedByValue returns keys ordered by their value's numeric value
// (falling back to string comparison for non-numeric values), used by
// commands that want a stable rendering order distinct from insertion.
func (m *Map) KeysSortedByValue() []string {
	keys := m.KeysInsertionOrder()
	m.mu.RLock()
	data := m.data
	m.mu.RUnlock()
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := data[keys[i]], data[keys[j]]
		if a.kind == KindNumber && b.kind == KindNumber {
			return a.num < b.num
		}
		return a.AsString() < b.AsString()
	})
	return keys
}

// Len reports the number of entries currently stored.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
