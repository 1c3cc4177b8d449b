package parameter

// Reference Space
const (
	// ReferenceSize is the square canonical coordinate space all motion math
	// uses; renderers scale to the actual canvas at draw time
	ReferenceSize = 950.0

	// ReferenceCenter is the grid center in reference units
	ReferenceCenter = ReferenceSize / 2

	// HandPathRadius is the hand circle radius (ReferenceSize / 8)
	HandPathRadius = ReferenceSize / 8

	// PropLength is the grip-to-end distance (ReferenceSize / 4)
	PropLength = ReferenceSize / 4
)

// Trails
const (
	// TrailCapacity is the per-channel live capture ring size
	TrailCapacity = 512

	// TrailWindowBeats is the default visible trail window
	TrailWindowBeats = 1.0

	// DefaultTrailWidth is the baseline stroke width in reference units
	DefaultTrailWidth = 4.0

	// DefaultTrailOpacityMin is the opacity of the oldest visible trail point
	DefaultTrailOpacityMin = 0.1

	// DefaultTrailOpacityMax is the opacity of the newest trail point
	DefaultTrailOpacityMax = 0.9
)
