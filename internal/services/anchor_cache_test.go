package services

import (
	"testing"

	"indoor-position-engine/internal/models"
)

func TestAnchorCache_PutLookupRemove(t *testing.T) {
	cache := NewAnchorCache()

	if _, ok := cache.Lookup("b1"); ok {
		t.Fatal("empty cache returned an anchor")
	}

	cache.Put(models.Anchor{BeaconID: "b1", X: 1, Y: 2, Floor: 1})

	anchor, ok := cache.Lookup("b1")
	if !ok {
		t.Fatal("anchor not found after Put")
	}
	if anchor.X != 1 || anchor.Y != 2 || anchor.Floor != 1 {
		t.Errorf("anchor = %+v", anchor)
	}

	cache.Remove("b1")
	if _, ok := cache.Lookup("b1"); ok {
		t.Fatal("anchor still present after Remove")
	}
}

func TestAnchorCache_ReplaceAll(t *testing.T) {
	cache := NewAnchorCache()
	cache.Put(models.Anchor{BeaconID: "stale"})

	cache.ReplaceAll([]*models.Anchor{
		{BeaconID: "b1"},
		{BeaconID: "b2"},
	})

	if cache.Len() != 2 {
		t.Errorf("cache length = %d, want 2", cache.Len())
	}
	if _, ok := cache.Lookup("stale"); ok {
		t.Error("stale anchor survived ReplaceAll")
	}
	if _, ok := cache.Lookup("b2"); !ok {
		t.Error("replacement anchor missing")
	}
}
