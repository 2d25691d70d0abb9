package math

import (
	"testing"
)

func TestVec3Add(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	got := a.Add(b)
	want := Vec3{5, 7, 9}
	if got != want {
		t.Errorf("Vec3.Add() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	got := v.Length()
	want := float32(7)
	if got != want {
		t.Errorf("Vec3.Length() = %v, want %v", got, want)
	}
}

func TestVec3Cell(t *testing.T) {
	tests := []struct {
		in   Vec3
		want Vec3i
	}{
		{Vec3{0, 0, 0}, Vec3i{0, 0, 0}},
		{Vec3{0.49, -0.49, 1.2}, Vec3i{0, 0, 1}},
		{Vec3{0.5, -0.51, -1.5}, Vec3i{1, -1, -1}},
		{Vec3{10.7, 3.3, -7.9}, Vec3i{11, 3, -8}},
	}

	for _, tt := range tests {
		if got := tt.in.Cell(); got != tt.want {
			t.Errorf("Vec3%v.Cell() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVec3iMinMax(t *testing.T) {
	a := Vec3i{1, -5, 3}
	b := Vec3i{-2, 4, 3}
	if got, want := a.Min(b), (Vec3i{-2, -5, 3}); got != want {
		t.Errorf("Vec3i.Min() = %v, want %v", got, want)
	}
	if got, want := a.Max(b), (Vec3i{1, 4, 3}); got != want {
		t.Errorf("Vec3i.Max() = %v, want %v", got, want)
	}
}

func TestVec3iCenterRoundTrip(t *testing.T) {
	p := Vec3i{-3, 7, 12}
	if got := p.Center().Cell(); got != p {
		t.Errorf("Center().Cell() = %v, want %v", got, p)
	}
}

func TestVec3iLess(t *testing.T) {
	if !(Vec3i{0, 5, 5}).Less(Vec3i{1, 0, 0}) {
		t.Error("expected X to dominate ordering")
	}
	if !(Vec3i{1, 0, 9}).Less(Vec3i{1, 1, 0}) {
		t.Error("expected Y to break X ties")
	}
	if (Vec3i{1, 1, 1}).Less(Vec3i{1, 1, 1}) {
		t.Error("equal coordinates must not be less")
	}
}

func TestVec3iString(t *testing.T) {
	if got := (Vec3i{1, -2, 3}).String(); got != "(1,-2,3)" {
		t.Errorf("String() = %q", got)
	}
}
