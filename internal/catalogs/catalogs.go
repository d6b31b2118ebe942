package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Catalogs is the static game data the room serves from: item templates,
// shop inventories, job definitions and world item spawn points. Loaded
// once at boot; digests are surfaced in the WELCOME message so clients
// can cache.
type Catalogs struct {
	Items  ItemCatalog
	Shops  ShopCatalog
	Jobs   JobCatalog
	Spawns SpawnCatalog
}

type ItemCatalog struct {
	ByID   map[string]ItemDef
	Digest string
}

type ItemDef struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "consumable","tool","weapon","clothing","misc"
	Rarity      string      `json:"rarity,omitempty"`
	Description string      `json:"description,omitempty"`
	Weight      float64     `json:"weight"`
	MaxStack    int         `json:"max_stack"`
	Effects     []EffectDef `json:"effects,omitempty"`
}

// EffectDef is a catalog-declared consumable effect. Only some kinds are
// wired to gameplay; unknown kinds surface as unhandled at use time.
type EffectDef struct {
	Kind   string  `json:"kind"` // "currency","health","food"
	Amount float64 `json:"amount"`
}

type ShopCatalog struct {
	ByID   map[string]ShopDef
	Digest string
}

type ShopDef struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	MapID        string      `json:"map_id"`
	RequiredRole string      `json:"required_role,omitempty"`
	OpenHour     *int        `json:"open_hour,omitempty"`
	CloseHour    *int        `json:"close_hour,omitempty"`
	Entries      []ShopEntry `json:"entries"`
}

type ShopEntry struct {
	ItemID string  `json:"item_id"`
	Price  float64 `json:"price"`
	Stock  *int    `json:"stock,omitempty"` // nil = unlimited
}

type JobCatalog struct {
	ByID   map[string]JobDef
	Digest string
}

type JobDef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	MapID  string `json:"map_id"`
	RoleID string `json:"role_id"`
	Kind   string `json:"kind"` // "progress","route","timed"

	// Progress jobs.
	BasePay      float64 `json:"base_pay,omitempty"`
	MaxProgress  int     `json:"max_progress,omitempty"`
	RewardItemID string  `json:"reward_item_id,omitempty"`

	// Route jobs.
	Waypoints       []WaypointDef `json:"waypoints,omitempty"`
	CompletionBonus float64       `json:"completion_bonus,omitempty"`

	// Timed jobs.
	PayPerTick  float64 `json:"pay_per_tick,omitempty"`
	TickSeconds int     `json:"tick_seconds,omitempty"`
	MaxSeconds  int     `json:"max_seconds,omitempty"`
}

type WaypointDef struct {
	ID          string     `json:"id"`
	Pos         [3]float64 `json:"pos"`
	WaitSeconds int        `json:"wait_seconds,omitempty"`
	Pay         float64    `json:"pay,omitempty"`
}

type SpawnCatalog struct {
	ByMap  map[string][]SpawnDef
	Digest string
}

type SpawnDef struct {
	ID             string       `json:"id"`
	MapID          string       `json:"map_id"`
	Pos            [3]float64   `json:"pos"`
	ItemID         string       `json:"item_id"`
	Quantity       int          `json:"quantity"`
	RespawnSeconds int          `json:"respawn_seconds,omitempty"` // 0 = never respawns
	Candidates     [][3]float64 `json:"candidates,omitempty"`
}

const (
	JobKindProgress = "progress"
	JobKindRoute    = "route"
	JobKindTimed    = "timed"
)

func Load(dir string) (*Catalogs, error) {
	c := &Catalogs{}

	var items []ItemDef
	digest, err := loadJSON(filepath.Join(dir, "items.json"), &items)
	if err != nil {
		return nil, err
	}
	c.Items = ItemCatalog{ByID: map[string]ItemDef{}, Digest: digest}
	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("items.json: item with empty id")
		}
		if it.MaxStack <= 0 {
			it.MaxStack = 1
		}
		c.Items.ByID[it.ID] = it
	}

	var shops []ShopDef
	digest, err = loadJSON(filepath.Join(dir, "shops.json"), &shops)
	if err != nil {
		return nil, err
	}
	c.Shops = ShopCatalog{ByID: map[string]ShopDef{}, Digest: digest}
	for _, sh := range shops {
		for _, e := range sh.Entries {
			if _, ok := c.Items.ByID[e.ItemID]; !ok {
				return nil, fmt.Errorf("shops.json: shop %s references unknown item %s", sh.ID, e.ItemID)
			}
		}
		c.Shops.ByID[sh.ID] = sh
	}

	var jobs []JobDef
	digest, err = loadJSON(filepath.Join(dir, "jobs.json"), &jobs)
	if err != nil {
		return nil, err
	}
	c.Jobs = JobCatalog{ByID: map[string]JobDef{}, Digest: digest}
	for _, j := range jobs {
		switch j.Kind {
		case JobKindProgress, JobKindRoute, JobKindTimed:
		default:
			return nil, fmt.Errorf("jobs.json: job %s has unknown kind %q", j.ID, j.Kind)
		}
		if j.RewardItemID != "" {
			if _, ok := c.Items.ByID[j.RewardItemID]; !ok {
				return nil, fmt.Errorf("jobs.json: job %s references unknown item %s", j.ID, j.RewardItemID)
			}
		}
		c.Jobs.ByID[j.ID] = j
	}

	var spawns []SpawnDef
	digest, err = loadJSON(filepath.Join(dir, "spawns.json"), &spawns)
	if err != nil {
		return nil, err
	}
	c.Spawns = SpawnCatalog{ByMap: map[string][]SpawnDef{}, Digest: digest}
	for _, sp := range spawns {
		if _, ok := c.Items.ByID[sp.ItemID]; !ok {
			return nil, fmt.Errorf("spawns.json: spawn %s references unknown item %s", sp.ID, sp.ItemID)
		}
		if sp.Quantity <= 0 {
			sp.Quantity = 1
		}
		c.Spawns.ByMap[sp.MapID] = append(c.Spawns.ByMap[sp.MapID], sp)
	}

	return c, nil
}

func loadJSON(path string, v any) (digest string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
