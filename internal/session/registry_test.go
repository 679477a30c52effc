package session

import (
	"sync"
	"testing"
)

func TestRegistryGetOrCreate(t *testing.T) {
	g := NewRegistry()

	a := g.Get("s1")
	b := g.Get("s1")
	if a != b {
		t.Error("Get must return the same record for the same id")
	}
	if a.Session != "s1" {
		t.Errorf("Session = %q", a.Session)
	}

	if _, ok := g.Lookup("s2"); ok {
		t.Error("Lookup must not create records")
	}
}

func TestRegistryClear(t *testing.T) {
	g := NewRegistry()
	first := g.Get("s1")
	g.Clear("s1")

	if _, ok := g.Lookup("s1"); ok {
		t.Error("record survived Clear")
	}
	if second := g.Get("s1"); second == first {
		t.Error("Get after Clear must create a fresh record")
	}
}

func TestRegistrySessions(t *testing.T) {
	g := NewRegistry()
	g.Get("a")
	g.Get("b")

	names := g.Sessions()
	if len(names) != 2 {
		t.Fatalf("Sessions() = %v", names)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("Sessions() = %v", names)
	}
}

func TestRegistryConcurrentGet(t *testing.T) {
	g := NewRegistry()
	var wg sync.WaitGroup
	records := make([]*Record, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records[i] = g.Get("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < 20; i++ {
		if records[i] != records[0] {
			t.Fatal("concurrent Get produced distinct records")
		}
	}
}
