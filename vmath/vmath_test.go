package vmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAngleDelta(t *testing.T) {
	cases := []struct {
		name string
		a, b float64
		want float64
	}{
		{"zero", 0, 0, 0},
		{"quarter forward", 0, math.Pi / 2, math.Pi / 2},
		{"quarter backward", math.Pi / 2, 0, -math.Pi / 2},
		{"wrap positive", 0.1, TwoPi - 0.1, -0.2},
		{"wrap negative", TwoPi - 0.1, 0.1, 0.2},
		{"half turn", 0, math.Pi, math.Pi},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, AngleDelta(tc.a, tc.b), 1e-9)
		})
	}
}

func TestWrapAngle(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{TwoPi, 0},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * TwoPi, 0},
		{math.Pi, math.Pi},
	}
	for _, tc := range cases {
		require.InDelta(t, tc.want, WrapAngle(tc.in), 1e-9)
	}
}

func TestLerpAndClamp(t *testing.T) {
	require.Equal(t, 5.0, Lerp(0, 10, 0.5))
	require.Equal(t, 0.0, Lerp(0, 10, 0))
	require.Equal(t, 10.0, Lerp(0, 10, 1))

	require.Equal(t, 3.0, Clamp(3, 0, 10))
	require.Equal(t, 0.0, Clamp(-1, 0, 10))
	require.Equal(t, 10.0, Clamp(99, 0, 10))
}

func TestLerpAngleShortestArc(t *testing.T) {
	// Crossing the wrap point must move through it, not the long way around
	got := LerpAngle(TwoPi-0.2, 0.2, 0.5)
	require.InDelta(t, TwoPi, got, 1e-9)
}

func TestVec2Ops(t *testing.T) {
	v := Vec2{3, 4}
	require.Equal(t, Vec2{4, 6}, v.Add(Vec2{1, 2}))
	require.Equal(t, Vec2{2, 2}, v.Sub(Vec2{1, 2}))
	require.Equal(t, Vec2{6, 8}, v.Scale(2))
	require.InDelta(t, 5.0, v.Magnitude(), 1e-9)
}

func TestOnCircle(t *testing.T) {
	center := Vec2{100, 100}
	for angle := 0.0; angle < TwoPi; angle += 0.3 {
		p := OnCircle(center, 50, angle)
		require.InDelta(t, 50.0, p.Sub(center).Magnitude(), 1e-9)
	}
	right := OnCircle(center, 50, 0)
	require.InDelta(t, 150.0, right.X, 1e-9)
	require.InDelta(t, 100.0, right.Y, 1e-9)
}
