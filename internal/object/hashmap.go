package object

import (
	"math"

	"github.com/kristofer/saynaa/internal/value"
)

// Map is an open-addressed hash map with linear probing and tombstones,
// matching the specification's container contract: load factor capped at
// 0.75 before growth, and shrinking when occupancy (live entries,
// tombstones excluded) drops to capacity / (growFactor*growFactor).
type Map struct {
	Base
	buckets []mapBucket
	count   int // live entries
	tomb    int // tombstone entries
}

type bucketState uint8

const (
	bucketEmpty bucketState = iota
	bucketLive
	bucketTombstone
)

type mapBucket struct {
	state bucketState
	key   value.Var
	val   value.Var
	hash  uint32
}

const (
	mapMinCapacity = 8
	mapLoadFactor  = 0.75
	mapGrowFactor  = 2
)

// NewMap constructs an empty map.
func NewMap() *Map {
	return &Map{Base: Base{Kind: KindMap}}
}

func (m *Map) Len() int { return m.count }

func hashOf(k value.Var) uint32 {
	switch {
	case k.IsObj():
		if s, ok := k.AsObj().(*String); ok {
			return s.Hash()
		}
		// identity hash for non-string objects: pointer-derived via
		// the TypeName plus a fallback of 0 is not unique enough, but
		// the spec only requires strings and numbers as practical key
		// types; other object keys fall back to reference identity
		// captured by the map's linear scan on collision.
		return 0
	case k.IsNumber():
		bits := math.Float64bits(k.AsNumber())
		return uint32(bits) ^ uint32(bits>>32)
	case k.IsBool():
		if k.AsBool() {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (m *Map) ensureInit() {
	if m.buckets == nil {
		m.buckets = make([]mapBucket, mapMinCapacity)
	}
}

// Get looks up key, returning (value, true) on a hit.
func (m *Map) Get(key value.Var) (value.Var, bool) {
	if m.buckets == nil {
		return value.Null, false
	}
	h := hashOf(key)
	n := len(m.buckets)
	idx := int(h) % n
	for i := 0; i < n; i++ {
		b := &m.buckets[(idx+i)%n]
		if b.state == bucketEmpty {
			return value.Null, false
		}
		if b.state == bucketLive && b.hash == h && value.Equal(b.key, key) {
			return b.val, true
		}
	}
	return value.Null, false
}

// Set inserts or overwrites key -> val, growing the table first if the
// load factor (live+tombstones)/capacity would exceed mapLoadFactor.
func (m *Map) Set(key, val value.Var) {
	m.ensureInit()
	if float64(m.count+m.tomb+1) > float64(len(m.buckets))*mapLoadFactor {
		m.resize(len(m.buckets) * mapGrowFactor)
	}
	m.insert(key, val)
}

func (m *Map) insert(key, val value.Var) {
	h := hashOf(key)
	n := len(m.buckets)
	idx := int(h) % n
	firstTomb := -1
	for i := 0; i < n; i++ {
		pos := (idx + i) % n
		b := &m.buckets[pos]
		switch b.state {
		case bucketEmpty:
			target := pos
			if firstTomb != -1 {
				target = firstTomb
				m.tomb--
			}
			m.buckets[target] = mapBucket{state: bucketLive, key: key, val: val, hash: h}
			m.count++
			return
		case bucketTombstone:
			if firstTomb == -1 {
				firstTomb = pos
			}
		case bucketLive:
			if b.hash == h && value.Equal(b.key, key) {
				b.val = val
				return
			}
		}
	}
}

// Delete removes key if present, leaving a tombstone behind so later
// probes past this slot still succeed. Shrinks the table when the live
// entry count falls to capacity / growFactor^2, per the specification's
// shrink trigger.
func (m *Map) Delete(key value.Var) bool {
	if m.buckets == nil {
		return false
	}
	h := hashOf(key)
	n := len(m.buckets)
	idx := int(h) % n
	for i := 0; i < n; i++ {
		pos := (idx + i) % n
		b := &m.buckets[pos]
		if b.state == bucketEmpty {
			return false
		}
		if b.state == bucketLive && b.hash == h && value.Equal(b.key, key) {
			b.state = bucketTombstone
			b.key = value.Null
			b.val = value.Null
			m.count--
			m.tomb++
			if n > mapMinCapacity && m.count <= n/(mapGrowFactor*mapGrowFactor) {
				m.resize(n / mapGrowFactor)
			}
			return true
		}
	}
	return false
}

func (m *Map) resize(newCap int) {
	if newCap < mapMinCapacity {
		newCap = mapMinCapacity
	}
	old := m.buckets
	m.buckets = make([]mapBucket, newCap)
	m.count = 0
	m.tomb = 0
	for _, b := range old {
		if b.state == bucketLive {
			m.insert(b.key, b.val)
		}
	}
}

// Each iterates over live entries in bucket order; fn returning false
// stops iteration early.
func (m *Map) Each(fn func(k, v value.Var) bool) {
	for _, b := range m.buckets {
		if b.state == bucketLive {
			if !fn(b.key, b.val) {
				return
			}
		}
	}
}
