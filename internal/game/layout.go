package game

import "math"

// Canonical arena: nine hexagons in three staggered rows.
var hexRowOffset = 4 * math.Sqrt(3) / 2

func defaultHexagons() []Vec3 {
	return []Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 4, Y: 0, Z: 0},
		{X: -4, Y: 0, Z: 0},
		{X: 2, Y: 0, Z: hexRowOffset},
		{X: -2, Y: 0, Z: hexRowOffset},
		{X: 6, Y: 0, Z: hexRowOffset},
		{X: -6, Y: 0, Z: hexRowOffset},
		{X: 0, Y: 0, Z: 2 * hexRowOffset},
		{X: 4, Y: 0, Z: 2 * hexRowOffset},
	}
}

// The creator drops onto the center hexagon; joiners get a bounded random
// offset around the origin so spawns rarely overlap.
var creatorSpawn = Vec3{X: 0, Y: 5, Z: 0}

func (g *Registry) randomSpawn() Vec3 {
	return Vec3{
		X: g.rng.Float64()*8 - 4,
		Y: 5,
		Z: g.rng.Float64()*8 - 4,
	}
}
