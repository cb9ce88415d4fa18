package strmap

import "testing"

func TestGetOrInsertInsertsOnce(t *testing.T) {
	m := New(4)
	calls := 0
	val, inserted := m.GetOrInsert([]byte("foo"), func() uint64 {
		calls++
		return 42
	})
	if val != 42 || !inserted {
		t.Fatalf("first insert: val=%d inserted=%v", val, inserted)
	}

	val, inserted = m.GetOrInsert([]byte("foo"), func() uint64 {
		calls++
		return 99
	})
	if val != 42 || inserted {
		t.Fatalf("second lookup: val=%d inserted=%v", val, inserted)
	}
	if calls != 1 {
		t.Fatalf("makeVal called %d times, want 1", calls)
	}
}

func TestGetMissing(t *testing.T) {
	m := New(4)
	if _, ok := m.Get([]byte("absent")); ok {
		t.Fatal("Get on empty map returned ok=true")
	}
}

func TestGrowPreservesEntries(t *testing.T) {
	m := New(1)
	want := make(map[string]uint64)
	for i := 0; i < 200; i++ {
		key := []byte{byte(i), byte(i >> 8)}
		val := uint64(i)
		want[string(key)] = val
		m.GetOrInsert(key, func() uint64 { return val })
	}
	for k, v := range want {
		got, ok := m.Get([]byte(k))
		if !ok || got != v {
			t.Fatalf("Get(%q) = %d, %v; want %d, true", k, got, ok, v)
		}
	}
	if m.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", m.Len(), len(want))
	}
}

func TestKeyIsCopiedNotRetained(t *testing.T) {
	m := New(4)
	key := []byte("mutable")
	m.GetOrInsert(key, func() uint64 { return 7 })
	key[0] = 'X'
	if _, ok := m.Get([]byte("mutable")); !ok {
		t.Fatal("mutating caller's key buffer corrupted the stored entry")
	}
}
