package vmath

import "math"

// Vec2 is a 2D point or direction in reference-space units
type Vec2 struct {
	X, Y float64
}

// Add returns v + o
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale multiplies both components by s
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Magnitude returns the Euclidean length
func (v Vec2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

// FromAngle returns the unit vector at the given angle (radians, screen convention: Y grows downward)
func FromAngle(angle float64) Vec2 {
	return Vec2{math.Cos(angle), math.Sin(angle)}
}

// OnCircle returns the point at angle on the circle around center with the given radius
func OnCircle(center Vec2, radius, angle float64) Vec2 {
	return center.Add(FromAngle(angle).Scale(radius))
}
