package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestPublishAndFamily(t *testing.T) {
	c := New("dht22", "relays")

	entries := map[string]any{
		"13": "reading-a",
		"19": "reading-b",
	}
	c.Publish("dht22", entries)

	got, ok := c.Family("dht22")
	if !ok {
		t.Fatal("expected dht22 family to exist")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got["13"] != "reading-a" {
		t.Errorf("entry 13 = %v, want reading-a", got["13"])
	}
}

func TestFamilyUnknown(t *testing.T) {
	c := New("dht22")

	if _, ok := c.Family("ds18b20"); ok {
		t.Error("expected unknown family to return ok=false")
	}
}

func TestPublishReplacesWholesale(t *testing.T) {
	c := New("ds18b20")

	c.Publish("ds18b20", map[string]any{"a": 1, "b": 2})
	c.Publish("ds18b20", map[string]any{"c": 3})

	got, _ := c.Family("ds18b20")
	if len(got) != 1 {
		t.Fatalf("expected old generation to be replaced, got %d entries", len(got))
	}
	if _, stale := got["a"]; stale {
		t.Error("stale entry from previous generation survived publish")
	}
}

func TestPublishCopiesInput(t *testing.T) {
	c := New("relays")

	entries := map[string]any{"plug1": true}
	c.Publish("relays", entries)

	// Mutating the caller's map after publish must not affect the cache.
	entries["plug2"] = true

	got, _ := c.Family("relays")
	if len(got) != 1 {
		t.Errorf("cache shares storage with caller's map: %d entries", len(got))
	}
}

func TestFamilyReturnsCopy(t *testing.T) {
	c := New("relays")
	c.Publish("relays", map[string]any{"plug1": true})

	got, _ := c.Family("relays")
	delete(got, "plug1")

	again, _ := c.Family("relays")
	if len(again) != 1 {
		t.Error("reader mutation leaked into the cache")
	}
}

func TestPublishRegistersNewFamily(t *testing.T) {
	c := New()
	c.Publish("late", map[string]any{"x": 1})

	if _, ok := c.Family("late"); !ok {
		t.Error("publish to unregistered family should register it")
	}

	names := c.Families()
	if len(names) != 1 || names[0] != "late" {
		t.Errorf("Families() = %v, want [late]", names)
	}
}

// TestNoTornGenerations publishes complete generations concurrently with
// many readers and verifies every read observes exactly one generation.
func TestNoTornGenerations(t *testing.T) {
	c := New("dht22")

	const generations = 200
	const readers = 8

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got, ok := c.Family("dht22")
				if !ok || len(got) == 0 {
					continue
				}
				// Every entry in one generation carries the same marker.
				var marker any
				for _, v := range got {
					if marker == nil {
						marker = v
					} else if v != marker {
						t.Errorf("torn read: mixed generations %v and %v", marker, v)
						return
					}
				}
				if len(got) != 3 {
					t.Errorf("partial generation observed: %d entries", len(got))
					return
				}
			}
		}()
	}

	for gen := range generations {
		marker := fmt.Sprintf("gen-%d", gen)
		c.Publish("dht22", map[string]any{
			"a": marker,
			"b": marker,
			"c": marker,
		})
	}
	close(stop)
	wg.Wait()
}

func TestAll(t *testing.T) {
	c := New("dht22", "ds18b20", "relays")
	c.Publish("dht22", map[string]any{"13": "x"})
	c.Publish("relays", map[string]any{"plug1": "y"})

	all := c.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 families, got %d", len(all))
	}
	if len(all["ds18b20"]) != 0 {
		t.Error("unpublished family should be present and empty")
	}
	if all["dht22"]["13"] != "x" {
		t.Error("dht22 entry missing from All()")
	}
}
