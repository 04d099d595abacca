package service

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mohae/deepcopy"

	"github.com/checkngn/checkngn/internal/domain/action"
)

// RecordCache is a bounded LRU cache of normalized records keyed by descriptor
// fingerprint. Records are deep-copied on the way in and out, so callers may
// mutate what they receive. Safe for concurrent use.
type RecordCache struct {
	entries *lru.Cache[uint64, []action.Record]
}

// NewRecordCache creates a cache holding at most maxSize descriptors (minimum 1).
func NewRecordCache(maxSize int) *RecordCache {
	if maxSize < 1 {
		maxSize = 1
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[uint64, []action.Record](maxSize)
	return &RecordCache{entries: entries}
}

// Get returns a copy of the cached records for key and marks them recently used.
func (c *RecordCache) Get(key uint64) ([]action.Record, bool) {
	records, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return copyRecords(records), true
}

// Put stores a copy of records, evicting the least recently used entry when full.
func (c *RecordCache) Put(key uint64, records []action.Record) {
	c.entries.Add(key, copyRecords(records))
}

// Size returns the number of cached descriptors.
func (c *RecordCache) Size() int {
	return c.entries.Len()
}

func copyRecords(records []action.Record) []action.Record {
	if records == nil {
		return nil
	}
	return deepcopy.Copy(records).([]action.Record)
}

// fingerprint hashes a descriptor for use as a cache key. Every value is
// written with its dynamic type and every string with its length, so 10 and
// 10.0 differ and no string content can imitate the framing of another value.
// Descriptors containing pointers, structs other than action.Record, or other
// reference types are not cacheable.
func fingerprint(desc interface{}) (uint64, bool) {
	h := xxhash.New()
	if !writeValue(h, desc) {
		return 0, false
	}
	return h.Sum64(), true
}

// writeString writes s as "<tag><len>:<s>". Tags are type names, which never
// start with a digit.
func writeString(h *xxhash.Digest, tag, s string) {
	_, _ = fmt.Fprintf(h, "%s%d:", tag, len(s))
	_, _ = h.WriteString(s)
}

func writeValue(h *xxhash.Digest, v interface{}) bool {
	switch typed := v.(type) {
	case nil:
		_, _ = h.WriteString("nil;")
		return true
	case string:
		writeString(h, "string:", typed)
		return true
	case action.Record:
		_, _ = h.WriteString("record{")
		if !writeValue(h, typed.Action) || !writeValue(h, typed.Params) {
			return false
		}
		_, _ = h.WriteString("}")
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		writeString(h, fmt.Sprintf("%T:", v), rv.String())
		return true
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		// Numbers and bools print without separators, so a terminator suffices.
		_, _ = fmt.Fprintf(h, "%T:%v;", v, v)
		return true
	case reflect.Slice, reflect.Array:
		_, _ = fmt.Fprintf(h, "%T[%d]", v, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if !writeValue(h, rv.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		byKey := make(map[string]reflect.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().Interface()
			name := fmt.Sprintf("%T:%v", k, k)
			if _, dup := byKey[name]; dup {
				// Distinct keys with the same printed form cannot be ordered stably.
				return false
			}
			keys = append(keys, name)
			byKey[name] = iter.Value()
		}
		sort.Strings(keys)

		_, _ = fmt.Fprintf(h, "%T{%d}", v, rv.Len())
		for _, k := range keys {
			writeString(h, "k", k)
			if !writeValue(h, byKey[k].Interface()) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
