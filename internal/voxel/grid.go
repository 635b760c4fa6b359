// Package voxel provides a thread-safe sparse 3D occupancy grid and an
// R-tree-backed nearest-neighbour lookup over its occupied cells (§4.B).
package voxel

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/piwi3910/sliceplan/internal/geometry"
)

// Key is a packed 64-bit local voxel coordinate: three 16-bit unsigned
// components plus padding, round-tripping per spec.md P9.
type Key uint64

// PackKey packs three local axis coordinates, each in [0, 2^16), into a
// single 64-bit key.
func PackKey(x, y, z uint16) Key {
	return Key(uint64(x) | uint64(y)<<16 | uint64(z)<<32)
}

// UnpackKey reverses PackKey.
func UnpackKey(k Key) (x, y, z uint16) {
	return uint16(k), uint16(k >> 16), uint16(k >> 32)
}

const shardCount = 64

// shard is one bucket of the sharded occupancy map. A plain
// sync.Mutex-protected map is used because no general-purpose concurrent
// map library appears anywhere in the retrieved example pack (see
// DESIGN.md); sharding keeps contention low under the parallel
// VisitOccupied fan-out without pulling in an unseen dependency.
type shard struct {
	mu   sync.RWMutex
	data map[Key]uint8
}

// Grid is a sparse, axis-aligned 3D occupancy grid. Only occupied voxels
// are stored; each occupied voxel carries an 8-bit owner value (typically
// an extruder number).
type Grid struct {
	min, max   geometry.Point3D
	resolution geometry.Point3D // per-axis resolution, mm
	slices     [3]int           // per-axis slice count
	shards     [shardCount]*shard
	visiting   atomic.Bool
}

// New builds a Grid from a 3D bounding box and a maximum resolution per
// axis: slices_axis = floor(span/max_res)+1, resolution_axis = span/slices_axis.
func New(min, max geometry.Point3D, maxResolution geometry.Point3D) *Grid {
	g := &Grid{min: min, max: max}
	spans := [3]float64{max.X - min.X, max.Y - min.Y, max.Z - min.Z}
	maxRes := [3]float64{maxResolution.X, maxResolution.Y, maxResolution.Z}
	var res [3]float64
	for axis := 0; axis < 3; axis++ {
		span := spans[axis]
		mr := maxRes[axis]
		if mr <= 0 {
			mr = 1
		}
		slices := int(math.Floor(span/mr)) + 1
		if slices < 1 {
			slices = 1
		}
		g.slices[axis] = slices
		res[axis] = span / float64(slices)
		if res[axis] <= 0 {
			res[axis] = mr
		}
	}
	g.resolution = geometry.Point3D{X: res[0], Y: res[1], Z: res[2]}
	for i := range g.shards {
		g.shards[i] = &shard{data: make(map[Key]uint8)}
	}
	return g
}

// Resolution returns the per-axis voxel size in millimetres.
func (g *Grid) Resolution() geometry.Point3D { return g.resolution }

// localCoord converts an absolute mm point into local integer coordinates.
// ok is false if the point falls outside the grid's bounding box.
func (g *Grid) localCoord(p geometry.Point3D) (x, y, z uint16, ok bool) {
	if p.X < g.min.X || p.Y < g.min.Y || p.Z < g.min.Z ||
		p.X > g.max.X || p.Y > g.max.Y || p.Z > g.max.Z {
		return 0, 0, 0, false
	}
	lx := int((p.X - g.min.X) / g.resolution.X)
	ly := int((p.Y - g.min.Y) / g.resolution.Y)
	lz := int((p.Z - g.min.Z) / g.resolution.Z)
	if lx >= g.slices[0] {
		lx = g.slices[0] - 1
	}
	if ly >= g.slices[1] {
		ly = g.slices[1] - 1
	}
	if lz >= g.slices[2] {
		lz = g.slices[2] - 1
	}
	return uint16(lx), uint16(ly), uint16(lz), true
}

func (g *Grid) shardFor(k Key) *shard {
	return g.shards[uint64(k)%shardCount]
}

// Centre returns the mm-space centre of the voxel identified by key.
func (g *Grid) Centre(k Key) geometry.Point3D {
	x, y, z := UnpackKey(k)
	return geometry.Point3D{
		X: g.min.X + (float64(x)+0.5)*g.resolution.X,
		Y: g.min.Y + (float64(y)+0.5)*g.resolution.Y,
		Z: g.min.Z + (float64(z)+0.5)*g.resolution.Z,
	}
}

// Set inserts or assigns the owner value for the voxel containing p. It
// reports false if p lies outside the grid.
func (g *Grid) Set(p geometry.Point3D, v uint8) bool {
	g.checkReentrancy()
	x, y, z, ok := g.localCoord(p)
	if !ok {
		return false
	}
	k := PackKey(x, y, z)
	s := g.shardFor(k)
	s.mu.Lock()
	s.data[k] = v
	s.mu.Unlock()
	return true
}

// SetOrMin inserts v, or keeps min(existing, v) if the voxel is already
// occupied. Repeated calls for the same key are commutative and
// associative (spec.md P7), since min is itself commutative/associative.
func (g *Grid) SetOrMin(p geometry.Point3D, v uint8) bool {
	g.checkReentrancy()
	x, y, z, ok := g.localCoord(p)
	if !ok {
		return false
	}
	k := PackKey(x, y, z)
	s := g.shardFor(k)
	s.mu.Lock()
	if cur, exists := s.data[k]; !exists || v < cur {
		s.data[k] = v
	}
	s.mu.Unlock()
	return true
}

// Get returns the owner of the voxel containing p, if occupied.
func (g *Grid) Get(p geometry.Point3D) (uint8, bool) {
	g.checkReentrancy()
	x, y, z, ok := g.localCoord(p)
	if !ok {
		return 0, false
	}
	k := PackKey(x, y, z)
	s := g.shardFor(k)
	s.mu.RLock()
	v, found := s.data[k]
	s.mu.RUnlock()
	return v, found
}

// OccupiedCount returns the total number of occupied voxels.
func (g *Grid) OccupiedCount() int {
	g.checkReentrancy()
	total := 0
	for _, s := range g.shards {
		s.mu.RLock()
		total += len(s.data)
		s.mu.RUnlock()
	}
	return total
}

// VisitOccupied iterates every occupied voxel in parallel, one goroutine
// per shard (shardCount in all). f must be safe to call concurrently and
// must never call other Grid operations: re-entrant calls into a Grid
// being visited are forbidden (spec.md §5) because shards are held under
// read lock only for the duration of the snapshot copy, not for the
// whole callback.
func (g *Grid) VisitOccupied(f func(k Key, owner uint8)) {
	g.checkReentrancy()
	g.visiting.Store(true)
	defer g.visiting.Store(false)

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for _, s := range g.shards {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.mu.RLock()
			snapshot := make(map[Key]uint8, len(s.data))
			for k, v := range s.data {
				snapshot[k] = v
			}
			s.mu.RUnlock()
			for k, v := range snapshot {
				f(k, v)
			}
		}()
	}
	wg.Wait()
	_ = workers // not used: the goroutine count is shardCount, not the CPU count
}

// VisitOccupiedSerial iterates every occupied voxel on the calling
// goroutine, shard by shard; the order within a shard follows Go map
// iteration and is not defined. Used by SpatialLookup construction,
// where a simple single-goroutine materialisation matters more than
// parallel throughput.
func (g *Grid) VisitOccupiedSerial(f func(k Key, owner uint8)) {
	g.checkReentrancy()
	g.visiting.Store(true)
	defer g.visiting.Store(false)
	for _, s := range g.shards {
		s.mu.RLock()
		for k, v := range s.data {
			f(k, v)
		}
		s.mu.RUnlock()
	}
}

// Neighbours26 returns up to 26 in-bounds neighbouring keys of the voxel
// containing p.
func (g *Grid) Neighbours26(p geometry.Point3D) []Key {
	g.checkReentrancy()
	x, y, z, ok := g.localCoord(p)
	if !ok {
		return nil
	}
	var out []Key
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				nx, ny, nz := int(x)+dx, int(y)+dy, int(z)+dz
				if nx < 0 || ny < 0 || nz < 0 {
					continue
				}
				if nx >= g.slices[0] || ny >= g.slices[1] || nz >= g.slices[2] {
					continue
				}
				out = append(out, PackKey(uint16(nx), uint16(ny), uint16(nz)))
			}
		}
	}
	return out
}
