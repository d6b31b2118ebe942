package catalogs

import (
	"path/filepath"
	"testing"
)

func TestLoad_ShippedConfigs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(c.Items.ByID) == 0 || c.Items.Digest == "" {
		t.Fatalf("items catalog empty or undigested")
	}
	if _, ok := c.Items.ByID["apple"]; !ok {
		t.Errorf("apple missing from items")
	}

	// Every shop entry, job reward and spawn must point at a real item;
	// Load enforces that, so reaching here means the refs are sound.
	if len(c.Shops.ByID) == 0 || len(c.Jobs.ByID) == 0 {
		t.Fatalf("shops=%d jobs=%d", len(c.Shops.ByID), len(c.Jobs.ByID))
	}
	for _, j := range c.Jobs.ByID {
		switch j.Kind {
		case JobKindProgress, JobKindRoute, JobKindTimed:
		default:
			t.Errorf("job %s has kind %q", j.ID, j.Kind)
		}
	}
	if len(c.Spawns.ByMap["downtown"]) == 0 {
		t.Errorf("no downtown spawns")
	}

	digests := map[string]bool{
		c.Items.Digest:  true,
		c.Shops.Digest:  true,
		c.Jobs.Digest:   true,
		c.Spawns.Digest: true,
	}
	if len(digests) != 4 {
		t.Errorf("catalog digests collide")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for id, it := range c.Items.ByID {
		if it.MaxStack <= 0 {
			t.Errorf("item %s max_stack = %d", id, it.MaxStack)
		}
	}
	for mapID, spawns := range c.Spawns.ByMap {
		for _, sp := range spawns {
			if sp.Quantity <= 0 {
				t.Errorf("spawn %s/%s quantity = %d", mapID, sp.ID, sp.Quantity)
			}
		}
	}
}
