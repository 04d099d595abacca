package service

import (
	"testing"

	"github.com/checkngn/checkngn/internal/domain/action"
)

func recordsFor(name string) []action.Record {
	return []action.Record{action.NewRecord(name, nil)}
}

func TestRecordCache_Bounded(t *testing.T) {
	c := NewRecordCache(2)
	c.Put(1, recordsFor("a"))
	c.Put(2, recordsFor("b"))
	c.Put(3, recordsFor("c"))

	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
	if _, ok := c.Get(1); ok {
		t.Error("oldest entry was not evicted")
	}
	if got, ok := c.Get(3); !ok || got[0].Action != "c" {
		t.Errorf("Get(3) = %v, %v", got, ok)
	}
}

func TestRecordCache_LRUOrder(t *testing.T) {
	c := NewRecordCache(2)
	c.Put(1, recordsFor("a"))
	c.Put(2, recordsFor("b"))

	// Touch 1 so that 2 becomes least recently used.
	if _, ok := c.Get(1); !ok {
		t.Fatal("Get(1) missed")
	}
	c.Put(3, recordsFor("c"))

	if _, ok := c.Get(2); ok {
		t.Error("entry 2 should have been evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("entry 1 should have survived")
	}
}

func TestRecordCache_PutOverwrites(t *testing.T) {
	c := NewRecordCache(4)
	c.Put(1, recordsFor("a"))
	c.Put(1, recordsFor("b"))

	got, ok := c.Get(1)
	if !ok || got[0].Action != "b" {
		t.Errorf("Get(1) = %v, %v, want b", got, ok)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestRecordCache_StoresCopies(t *testing.T) {
	c := NewRecordCache(4)
	in := []action.Record{action.NewRecord("a", map[string]interface{}{"k": 1})}
	c.Put(1, in)
	in[0].Params["k"] = 2

	got, _ := c.Get(1)
	if got[0].Params["k"] != 1 {
		t.Errorf("cache entry mutated through Put argument: %v", got[0].Params)
	}
}

type label string

func TestFingerprint(t *testing.T) {
	a, ok := fingerprint(map[string]interface{}{"action": "x", "params": map[string]interface{}{"a": 1, "b": 2}})
	if !ok {
		t.Fatal("mapping descriptor not cacheable")
	}
	b, _ := fingerprint(map[string]interface{}{"params": map[string]interface{}{"b": 2, "a": 1}, "action": "x"})
	if a != b {
		t.Error("fingerprint depends on map iteration order")
	}

	s1, _ := fingerprint("notify")
	s2, _ := fingerprint([]interface{}{"notify"})
	if s1 == s2 {
		t.Error("identifier and single-element list share a fingerprint")
	}

	r1, ok := fingerprint(action.NewRecord("x", nil))
	if !ok {
		t.Error("Record value not cacheable")
	}
	r2, _ := fingerprint(action.NewRecord("y", nil))
	if r1 == r2 {
		t.Error("distinct records share a fingerprint")
	}

	nulValue, _ := fingerprint(map[string]interface{}{"action": "x", "params": map[string]interface{}{"a": "p\x00nil"}})
	nulKey, _ := fingerprint(map[string]interface{}{"action": "x", "params": map[string]interface{}{"a\x00string:p": nil}})
	if nulValue == nulKey {
		t.Error("NUL bytes in a value and in a key produce the same fingerprint")
	}

	split1, _ := fingerprint([]interface{}{"ab", "c"})
	split2, _ := fingerprint([]interface{}{"a", "bc"})
	if split1 == split2 {
		t.Error("string boundaries are not part of the fingerprint")
	}

	named1, _ := fingerprint(label("x"))
	named2, _ := fingerprint("x")
	if named1 == named2 {
		t.Error("named string type shares a fingerprint with string")
	}

	if _, ok := fingerprint(&action.Record{Action: "x"}); ok {
		t.Error("pointer descriptor reported cacheable")
	}
	if _, ok := fingerprint([]interface{}{"a", func() {}}); ok {
		t.Error("descriptor containing a func reported cacheable")
	}
}
