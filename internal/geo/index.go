package geo

import (
	"math"
	"sort"
	"sync"

	apperrors "drivero/pkg/errors"
)

// Cell edge of roughly 5km at the equator. Queries touch only the cells
// overlapping the search radius, so cost scales with area, not fleet size.
const cellSizeDegrees = 0.045

const registryShards = 32

// Neighbor is one query result, distance computed by haversine.
type Neighbor struct {
	InstructorID   string
	Latitude       float64
	Longitude      float64
	DistanceMeters float64
}

type cellKey struct {
	x int
	y int
}

type entry struct {
	id     string
	lat    float64
	lon    float64
	hidden bool
}

type cell struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// registryShard maps instructors to their current cell so an upsert can
// relocate the entry without scanning the grid.
type registryShard struct {
	mu   sync.Mutex
	locs map[string]cellKey
}

// Index is a sharded spatial grid over instructor positions. Writes to one
// instructor's entry only contend with writes landing in the same cell;
// queries take per-cell read locks and copy entries out before ranking.
type Index struct {
	maxRadiusMeters float64

	mu    sync.RWMutex
	cells map[cellKey]*cell

	registry [registryShards]registryShard
}

func NewIndex(maxRadiusMeters float64) *Index {
	idx := &Index{
		maxRadiusMeters: maxRadiusMeters,
		cells:           make(map[cellKey]*cell),
	}
	for i := range idx.registry {
		idx.registry[i].locs = make(map[string]cellKey)
	}
	return idx
}

func keyFor(lat, lon float64) cellKey {
	return cellKey{
		x: int(math.Floor(wrapLongitude(lon) / cellSizeDegrees)),
		y: int(math.Floor(lat / cellSizeDegrees)),
	}
}

// wrapCellX folds a cell column index across the antimeridian.
func wrapCellX(x int) int {
	ring := int(math.Ceil(360 / cellSizeDegrees))
	half := ring / 2
	return ((x+half)%ring+ring)%ring - half
}

func wrapLongitude(lon float64) float64 {
	for lon >= 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func (idx *Index) registryFor(instructorID string) *registryShard {
	h := uint32(2166136261)
	for i := 0; i < len(instructorID); i++ {
		h ^= uint32(instructorID[i])
		h *= 16777619
	}
	return &idx.registry[h%registryShards]
}

func (idx *Index) cellAt(key cellKey, create bool) *cell {
	idx.mu.RLock()
	c, ok := idx.cells[key]
	idx.mu.RUnlock()
	if ok || !create {
		return c
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if c, ok = idx.cells[key]; ok {
		return c
	}
	c = &cell{entries: make(map[string]*entry)}
	idx.cells[key] = c
	return c
}

// Upsert inserts or moves an instructor's entry and unhides it.
func (idx *Index) Upsert(instructorID string, lat, lon float64) {
	newKey := keyFor(lat, lon)

	reg := idx.registryFor(instructorID)
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if oldKey, ok := reg.locs[instructorID]; ok && oldKey != newKey {
		if old := idx.cellAt(oldKey, false); old != nil {
			old.mu.Lock()
			delete(old.entries, instructorID)
			old.mu.Unlock()
		}
	}

	c := idx.cellAt(newKey, true)
	c.mu.Lock()
	c.entries[instructorID] = &entry{id: instructorID, lat: lat, lon: lon, hidden: false}
	c.mu.Unlock()

	reg.locs[instructorID] = newKey
}

// Remove drops the instructor from the grid entirely.
func (idx *Index) Remove(instructorID string) {
	reg := idx.registryFor(instructorID)
	reg.mu.Lock()
	defer reg.mu.Unlock()

	key, ok := reg.locs[instructorID]
	if !ok {
		return
	}
	if c := idx.cellAt(key, false); c != nil {
		c.mu.Lock()
		delete(c.entries, instructorID)
		c.mu.Unlock()
	}
	delete(reg.locs, instructorID)
}

// Hide keeps the entry indexed but excludes it from queries. Used when an
// instructor goes offline, so the next report re-activates in place.
func (idx *Index) Hide(instructorID string) {
	idx.setHidden(instructorID, true)
}

// Show re-includes a hidden entry in query results.
func (idx *Index) Show(instructorID string) {
	idx.setHidden(instructorID, false)
}

func (idx *Index) setHidden(instructorID string, hidden bool) {
	reg := idx.registryFor(instructorID)
	reg.mu.Lock()
	defer reg.mu.Unlock()

	key, ok := reg.locs[instructorID]
	if !ok {
		return
	}
	c := idx.cellAt(key, false)
	if c == nil {
		return
	}
	c.mu.Lock()
	if e, ok := c.entries[instructorID]; ok {
		e.hidden = hidden
	}
	c.mu.Unlock()
}

// QueryNear returns visible instructors within radiusMeters of the point,
// nearest first, ties broken by instructor ID ascending, truncated to limit.
func (idx *Index) QueryNear(lat, lon, radiusMeters float64, limit int) ([]Neighbor, error) {
	if radiusMeters <= 0 {
		return nil, apperrors.InvalidInput("radius must be positive")
	}
	if radiusMeters > idx.maxRadiusMeters {
		return nil, apperrors.InvalidInput("radius exceeds the maximum query radius")
	}
	if limit <= 0 {
		return nil, apperrors.InvalidInput("limit must be positive")
	}

	// Cell span covering the radius. Longitude degrees shrink with
	// latitude; clamp the cosine away from zero near the poles.
	latSpan := radiusMeters / 111_000.0
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonSpan := radiusMeters / (111_000.0 * cosLat)

	minX := int(math.Floor((wrapLongitude(lon) - lonSpan) / cellSizeDegrees))
	maxX := int(math.Floor((wrapLongitude(lon) + lonSpan) / cellSizeDegrees))
	minY := int(math.Floor((lat - latSpan) / cellSizeDegrees))
	maxY := int(math.Floor((lat + latSpan) / cellSizeDegrees))

	var results []Neighbor
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			c := idx.cellAt(cellKey{x: wrapCellX(x), y: y}, false)
			if c == nil {
				continue
			}

			// Copy-then-release: distance math happens off-lock.
			c.mu.RLock()
			snapshot := make([]entry, 0, len(c.entries))
			for _, e := range c.entries {
				if !e.hidden {
					snapshot = append(snapshot, *e)
				}
			}
			c.mu.RUnlock()

			for _, e := range snapshot {
				d := HaversineMeters(lat, lon, e.lat, e.lon)
				if d <= radiusMeters {
					results = append(results, Neighbor{
						InstructorID:   e.id,
						Latitude:       e.lat,
						Longitude:      e.lon,
						DistanceMeters: d,
					})
				}
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceMeters != results[j].DistanceMeters {
			return results[i].DistanceMeters < results[j].DistanceMeters
		}
		return results[i].InstructorID < results[j].InstructorID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
