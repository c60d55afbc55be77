package dedup

import "testing"

func TestCacheAdd(t *testing.T) {
	c := New()

	if !c.Add("map_1") {
		t.Errorf("Expected first Add to report new key")
	}
	if c.Add("map_1") {
		t.Errorf("Expected second Add to report existing key")
	}
	if !c.Contains("map_1") {
		t.Errorf("Expected cache to contain map_1")
	}
	if c.Contains("map_2") {
		t.Errorf("Expected cache not to contain map_2")
	}
	if c.Len() != 1 {
		t.Errorf("Expected length 1, got %d", c.Len())
	}
}

func TestCacheClear(t *testing.T) {
	c := New()
	c.Add("a")
	c.Add("b")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d keys", c.Len())
	}
	if !c.Add("a") {
		t.Errorf("Expected key to be new again after Clear")
	}
}
