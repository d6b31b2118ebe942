package spawner

import (
	"errors"

	"redvale.gg/internal/catalogs"
)

var (
	ErrUnknownSpawn     = errors.New("unknown spawn")
	ErrAlreadyCollected = errors.New("spawn already collected")
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func vec3(a [3]float64) Vec3 { return Vec3{X: a[0], Y: a[1], Z: a[2]} }

func distSq(a, b Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

// Spawn is one collectible placement. Available -> Collected ->
// (after RespawnSeconds) -> Available.
type Spawn struct {
	ID             string
	MapID          string
	Pos            Vec3
	ItemID         string
	Quantity       int
	RespawnSeconds int
	Candidates     []Vec3
	Collected      bool

	retried bool
}

// View is the wire shape sent in items:state / items:update.
type View struct {
	SpawnID     string `json:"spawnId"`
	Pos         Vec3   `json:"position"`
	ItemID      string `json:"itemId"`
	Quantity    int    `json:"quantity"`
	IsCollected bool   `json:"isCollected"`
}

// Spawner keeps the per-map registries of collectible spawns. It knows
// nothing about inventories: Collect hands back the item template and
// granting it is the caller's job.
type Spawner struct {
	byMap    map[string]map[string]*Spawn
	order    map[string][]string // stable listing order per map
	minSepSq float64
}

func New(cat catalogs.SpawnCatalog, minSeparation float64) *Spawner {
	s := &Spawner{
		byMap:    map[string]map[string]*Spawn{},
		order:    map[string][]string{},
		minSepSq: minSeparation * minSeparation,
	}
	for mapID, defs := range cat.ByMap {
		s.byMap[mapID] = map[string]*Spawn{}
		for _, d := range defs {
			sp := &Spawn{
				ID:             d.ID,
				MapID:          d.MapID,
				Pos:            vec3(d.Pos),
				ItemID:         d.ItemID,
				Quantity:       d.Quantity,
				RespawnSeconds: d.RespawnSeconds,
			}
			for _, c := range d.Candidates {
				sp.Candidates = append(sp.Candidates, vec3(c))
			}
			if len(sp.Candidates) == 0 {
				sp.Candidates = []Vec3{sp.Pos}
			}
			s.byMap[mapID][d.ID] = sp
			s.order[mapID] = append(s.order[mapID], d.ID)
		}
	}
	return s
}

func (s *Spawner) MapState(mapID string) []View {
	out := []View{}
	for _, id := range s.order[mapID] {
		sp := s.byMap[mapID][id]
		out = append(out, View{
			SpawnID:     sp.ID,
			Pos:         sp.Pos,
			ItemID:      sp.ItemID,
			Quantity:    sp.Quantity,
			IsCollected: sp.Collected,
		})
	}
	return out
}

// Template returns the spawn's item template without touching state.
func (s *Spawner) Template(mapID, spawnID string) (itemID string, qty int, ok bool) {
	sp := s.byMap[mapID][spawnID]
	if sp == nil {
		return "", 0, false
	}
	return sp.ItemID, sp.Quantity, true
}

// Collect flips the spawn to collected and returns its item template.
func (s *Spawner) Collect(mapID, spawnID string) (itemID string, qty int, respawnSeconds int, err error) {
	sp := s.byMap[mapID][spawnID]
	if sp == nil {
		return "", 0, 0, ErrUnknownSpawn
	}
	if sp.Collected {
		return "", 0, 0, ErrAlreadyCollected
	}
	sp.Collected = true
	sp.retried = false
	return sp.ItemID, sp.Quantity, sp.RespawnSeconds, nil
}

// Respawn places a collected spawn back at the first candidate position
// whose squared distance to every other uncollected spawn on the map
// exceeds the minimum separation. If every candidate is occupied the
// first call reports placed=false so the caller can retry once after a
// delay; the retry places at the first candidate regardless.
func (s *Spawner) Respawn(mapID, spawnID string) (pos Vec3, placed bool) {
	sp := s.byMap[mapID][spawnID]
	if sp == nil || !sp.Collected {
		return Vec3{}, false
	}
	for _, cand := range sp.Candidates {
		if s.positionClear(mapID, spawnID, cand) {
			s.place(sp, cand)
			return cand, true
		}
	}
	if !sp.retried {
		sp.retried = true
		return Vec3{}, false
	}
	cand := sp.Candidates[0]
	s.place(sp, cand)
	return cand, true
}

func (s *Spawner) place(sp *Spawn, pos Vec3) {
	sp.Pos = pos
	sp.Collected = false
	sp.retried = false
}

func (s *Spawner) positionClear(mapID, spawnID string, pos Vec3) bool {
	for id, other := range s.byMap[mapID] {
		if id == spawnID || other.Collected {
			continue
		}
		if distSq(pos, other.Pos) <= s.minSepSq {
			return false
		}
	}
	return true
}
