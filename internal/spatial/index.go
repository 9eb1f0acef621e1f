// Package spatial provides the great-circle math and the nearest-neighbor
// index the metrics stage uses in place of PostGIS distance queries.
package spatial

import (
	"math"
	"sort"
)

const (
	earthRadiusMiles = 3958.8
	milesPerDegLat   = 69.0
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance between two points in miles.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Neighbor is one result of a nearest-neighbor query.
type Neighbor struct {
	// Index into the point slice the Index was built from.
	Index int
	Miles float64
}

// Index buckets points into a fixed-degree grid so nearest-neighbor queries
// touch only cells near the query point. Longitude cells are not wrapped at
// the antimeridian; continental US data never crosses it.
type Index struct {
	points    []Point
	cellDeg   float64
	cells     map[cellKey][]int
	maxAbsLat float64
}

type cellKey struct {
	row int
	col int
}

// NewIndex builds a grid index over the given points. The slice is retained;
// callers must not mutate it afterwards.
func NewIndex(points []Point) *Index {
	ix := &Index{
		points:  points,
		cellDeg: 1.0,
		cells:   make(map[cellKey][]int),
	}
	for i, p := range points {
		ix.cells[ix.keyFor(p)] = append(ix.cells[ix.keyFor(p)], i)
		if abs := math.Abs(p.Lat); abs > ix.maxAbsLat {
			ix.maxAbsLat = abs
		}
	}
	return ix
}

// Len returns the number of indexed points.
func (ix *Index) Len() int {
	return len(ix.points)
}

func (ix *Index) keyFor(p Point) cellKey {
	return cellKey{
		row: int(math.Floor(p.Lat / ix.cellDeg)),
		col: int(math.Floor(p.Lon / ix.cellDeg)),
	}
}

// Nearest returns up to k neighbors of the query point ordered by ascending
// great-circle distance. An empty index yields nil.
func (ix *Index) Nearest(query Point, k int) []Neighbor {
	if len(ix.points) == 0 || k <= 0 {
		return nil
	}
	if k > len(ix.points) {
		k = len(ix.points)
	}

	// A point in grid ring r is at least (r-1) cells away in latitude or
	// longitude. Longitude degrees shrink toward the poles, so the distance
	// lower bound uses the smallest miles-per-degree across the dataset.
	maxLat := math.Max(ix.maxAbsLat, math.Abs(query.Lat)) + ix.cellDeg
	minMilesPerDeg := milesPerDegLat * math.Cos(math.Min(maxLat, 89)*math.Pi/180)
	if minMilesPerDeg <= 0 {
		minMilesPerDeg = 0.001
	}

	origin := ix.keyFor(query)
	var found []Neighbor

	maxRing := int(360/ix.cellDeg) + 1
	for r := 0; r <= maxRing; r++ {
		if len(found) >= k {
			ringFloorMiles := float64(r-1) * ix.cellDeg * minMilesPerDeg
			if ringFloorMiles > found[k-1].Miles {
				break
			}
		}

		for _, key := range ring(origin, r) {
			for _, i := range ix.cells[key] {
				found = append(found, Neighbor{Index: i, Miles: Haversine(query, ix.points[i])})
			}
		}

		sort.Slice(found, func(a, b int) bool {
			if found[a].Miles != found[b].Miles {
				return found[a].Miles < found[b].Miles
			}
			return found[a].Index < found[b].Index
		})
		if len(found) > k*4 {
			found = found[:k*4] // keep the candidate set small
		}
	}

	if len(found) > k {
		found = found[:k]
	}
	return found
}

// ring returns the cell keys at Chebyshev distance r from the origin cell.
func ring(origin cellKey, r int) []cellKey {
	if r == 0 {
		return []cellKey{origin}
	}
	keys := make([]cellKey, 0, 8*r)
	for col := origin.col - r; col <= origin.col+r; col++ {
		keys = append(keys, cellKey{origin.row - r, col}, cellKey{origin.row + r, col})
	}
	for row := origin.row - r + 1; row <= origin.row+r-1; row++ {
		keys = append(keys, cellKey{row, origin.col - r}, cellKey{row, origin.col + r})
	}
	return keys
}
