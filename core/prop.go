package core

import (
	"github.com/lixenwraith/spinweave/vmath"
)

// PropIndex identifies one of the four prop channels a scene can carry
type PropIndex uint8

const (
	PropBlue PropIndex = iota
	PropRed
	PropSecondaryBlue
	PropSecondaryRed

	// PropChannelCount is the number of prop channels in a frame
	PropChannelCount = 4
)

// EndType distinguishes the two trackable ends of a prop
type EndType uint8

const (
	EndHead EndType = iota
	EndTail

	// EndCount is the number of trackable ends per prop
	EndCount = 2
)

// PropType selects the prop artwork/texture family
type PropType uint8

const (
	PropTypeStaff PropType = iota
	PropTypePoi
	PropTypeClub
	PropTypeFan
)

// String returns the asset name for a prop type
func (t PropType) String() string {
	switch t {
	case PropTypeStaff:
		return "staff"
	case PropTypePoi:
		return "poi"
	case PropTypeClub:
		return "club"
	case PropTypeFan:
		return "fan"
	}
	return "unknown"
}

// PropState is the pose of one prop at an instant, in reference-space units.
// Created transiently per frame, never persisted.
type PropState struct {
	// Center is the grip/hand position
	Center vmath.Vec2

	// Angle is the prop orientation in radians
	Angle float64

	// Length is the grip-to-head distance
	Length float64
}

// Head returns the position of the prop head end
func (p PropState) Head() vmath.Vec2 {
	return p.Center.Add(vmath.FromAngle(p.Angle).Scale(p.Length))
}

// Tail returns the position of the prop tail end
func (p PropState) Tail() vmath.Vec2 {
	return p.Center.Sub(vmath.FromAngle(p.Angle).Scale(p.Length))
}

// End returns the requested end position
func (p PropState) End(e EndType) vmath.Vec2 {
	if e == EndTail {
		return p.Tail()
	}
	return p.Head()
}

// PropDimensions carries the loaded texture size for one prop color
type PropDimensions struct {
	Width, Height float64
}
