package runtime

import (
	"fmt"
	"sort"
	"strconv"
)

// Table is Lua's single composite data structure: a hybrid of a
// dense array part (contiguous integer keys starting at 1) and a
// hash part for everything else, plus an optional metatable. Rather
// than bolt the array/hash split onto a single map as an
// optimization, this implementation keeps them separate so Len can
// report a border the way real Lua does without scanning the hash
// part.
type Table struct {
	array     []Value // array[i] holds key i+1
	hash      map[Value]Value
	Metatable *Table
}

func (v *Table) Kind() Kind { return KindTable }

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{hash: make(map[Value]Value)}
}

// normalizeKey canonicalizes a key the way Lua does: a float key
// with no fractional part indexes the same slot as the equivalent
// integer.
func normalizeKey(key Value) Value {
	if n, ok := key.(NumberValue); ok {
		if i := int64(n.Val); float64(i) == n.Val {
			return n
		}
	}
	return key
}

// arrayIndex reports whether key addresses the array part and
// returns its zero-based slot.
func arrayIndex(key Value) (int, bool) {
	n, ok := key.(NumberValue)
	if !ok {
		return 0, false
	}
	i := int64(n.Val)
	if float64(i) != n.Val || i < 1 {
		return 0, false
	}
	return int(i - 1), true
}

// RawGet reads a key without consulting the metatable's __index.
func (t *Table) RawGet(key Value) Value {
	key = normalizeKey(key)
	if idx, ok := arrayIndex(key); ok && idx < len(t.array) {
		v := t.array[idx]
		if v == nil {
			return Nil
		}
		return v
	}
	if v, ok := t.hash[key]; ok {
		return v
	}
	return Nil
}

// RawSet writes a key without consulting the metatable's __newindex.
// Assigning Nil deletes the key, matching Lua's semantics.
func (t *Table) RawSet(key, value Value) {
	key = normalizeKey(key)
	if idx, ok := arrayIndex(key); ok {
		switch {
		case idx < len(t.array):
			t.array[idx] = value
			t.trimArrayTail()
		case idx == len(t.array):
			if _, isNil := value.(NilValue); isNil {
				return
			}
			t.array = append(t.array, value)
			t.absorbFromHash()
		default:
			t.setHash(key, value)
		}
		return
	}
	t.setHash(key, value)
}

func (t *Table) setHash(key, value Value) {
	if _, isNil := value.(NilValue); isNil {
		delete(t.hash, key)
		return
	}
	if t.hash == nil {
		t.hash = make(map[Value]Value)
	}
	t.hash[key] = value
}

// trimArrayTail drops trailing nils so Len's border stays accurate
// after a RawSet(key, Nil) inside the array part.
func (t *Table) trimArrayTail() {
	for len(t.array) > 0 {
		last := t.array[len(t.array)-1]
		if last == nil {
			t.array = t.array[:len(t.array)-1]
			continue
		}
		if _, isNil := last.(NilValue); isNil {
			t.array = t.array[:len(t.array)-1]
			continue
		}
		break
	}
}

// absorbFromHash pulls any now-contiguous integer keys out of the
// hash part and into the array part after an append.
func (t *Table) absorbFromHash() {
	for {
		next := NumberValue{Val: float64(len(t.array) + 1)}
		v, ok := t.hash[next]
		if !ok {
			return
		}
		t.array = append(t.array, v)
		delete(t.hash, next)
	}
}

// Len returns a border of the table: an index n such that t[n] is
// non-nil and t[n+1] is nil (or 0 if t[1] is nil), matching the `#`
// operator's contract rather than a true element count.
func (t *Table) Len() int {
	return len(t.array)
}

// Next supports `pairs`/`next` iteration. A nil key starts iteration;
// each call returns the key/value following the given key, or a nil
// key when iteration is exhausted. Order is array part in index
// order, then hash part in an arbitrary but stable-per-call order.
func (t *Table) Next(key Value) (Value, Value, bool) {
	keys := t.iterationKeys()
	if key == nil {
		if len(keys) == 0 {
			return nil, nil, true
		}
		k := keys[0]
		return k, t.RawGet(k), true
	}
	key = normalizeKey(key)
	for i, k := range keys {
		if RawEqual(k, key) {
			if i+1 >= len(keys) {
				return nil, nil, true
			}
			nk := keys[i+1]
			return nk, t.RawGet(nk), true
		}
	}
	return nil, nil, false
}

func (t *Table) iterationKeys() []Value {
	keys := make([]Value, 0, len(t.array)+len(t.hash))
	for i, v := range t.array {
		if v == nil {
			continue
		}
		if _, isNil := v.(NilValue); isNil {
			continue
		}
		keys = append(keys, NumberValue{Val: float64(i + 1)})
	}
	hashKeys := make([]Value, 0, len(t.hash))
	for k := range t.hash {
		hashKeys = append(hashKeys, k)
	}
	sort.Slice(hashKeys, func(i, j int) bool {
		return hashKeyOrder(hashKeys[i]) < hashKeyOrder(hashKeys[j])
	})
	return append(keys, hashKeys...)
}

// hashKeyOrder gives hash keys a stable total order for Next, since
// Go map iteration order is randomized and `pairs` callers expect a
// reproducible traversal across calls within a single iteration.
func hashKeyOrder(v Value) string {
	switch vv := v.(type) {
	case StringValue:
		return "s" + vv.Val
	case NumberValue:
		return "n" + formatSortKey(vv.Val)
	case BoolValue:
		if vv.Val {
			return "b1"
		}
		return "b0"
	default:
		// Tables and functions compare by identity, so their address
		// orders them.
		return fmt.Sprintf("z%p", v)
	}
}

func formatSortKey(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
