package cull

import (
	"github.com/taigrr/vantage/pkg/math3d"
)

// Plane represents a plane via the equation Ax + By + Cz + D = 0, where
// (A, B, C) is the normal and D the signed distance from the origin.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the plane equation so the normal has unit length.
// A zero-length normal is left untouched.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// Distance returns the signed distance from the plane to a point.
// Positive means the point is on the side the normal points to.
func (p Plane) Distance(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// positiveVertex returns the AABB corner furthest along the plane normal.
// If this corner is behind the plane, the whole box is.
func (p Plane) positiveVertex(box AABB) math3d.Vec3 {
	v := box.Min
	if p.Normal.X >= 0 {
		v.X = box.Max.X
	}
	if p.Normal.Y >= 0 {
		v.Y = box.Max.Y
	}
	if p.Normal.Z >= 0 {
		v.Z = box.Max.Z
	}
	return v
}

// negativeVertex returns the opposite corner selection: the one least
// aligned with the plane normal.
func (p Plane) negativeVertex(box AABB) math3d.Vec3 {
	v := box.Max
	if p.Normal.X >= 0 {
		v.X = box.Min.X
	}
	if p.Normal.Y >= 0 {
		v.Y = box.Min.Y
	}
	if p.Normal.Z >= 0 {
		v.Z = box.Min.Z
	}
	return v
}

// Frustum is the six-plane representation of a camera's visible volume.
// Planes are ordered left, right, bottom, top, near, far, with normals
// pointing inward.
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// FrustumFromMatrix extracts the six clip planes from a view-projection
// matrix using the Gribb/Hartmann method. Because it operates on the
// clip-space plane equations directly, it works for both perspective and
// orthographic projections.
func FrustumFromMatrix(vp math3d.Mat4) Frustum {
	r0, d0 := vp.Row(0)
	r1, d1 := vp.Row(1)
	r2, d2 := vp.Row(2)
	r3, d3 := vp.Row(3)

	f := Frustum{Planes: [6]Plane{
		PlaneLeft:   {Normal: r3.Add(r0), D: d3 + d0},
		PlaneRight:  {Normal: r3.Sub(r0), D: d3 - d0},
		PlaneBottom: {Normal: r3.Add(r1), D: d3 + d1},
		PlaneTop:    {Normal: r3.Sub(r1), D: d3 - d1},
		PlaneNear:   {Normal: r3.Add(r2), D: d3 + d2},
		PlaneFar:    {Normal: r3.Sub(r2), D: d3 - d2},
	}}

	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// Containment is the three-way result of classifying a box against the
// frustum.
type Containment int

const (
	// Outside means the box is entirely behind at least one plane.
	Outside Containment = iota
	// Inside means the box is entirely in front of all six planes.
	Inside
	// Partial means the box straddles at least one plane.
	Partial
)

// String returns the containment name.
func (c Containment) String() string {
	switch c {
	case Outside:
		return "outside"
	case Inside:
		return "inside"
	default:
		return "partial"
	}
}

// IntersectsAABB reports whether the box is at least partially inside the
// frustum. The test is conservative: it never rejects a box that truly
// intersects the frustum, but can accept boxes near frustum edges that do
// not. Each plane only tests the box's positive vertex, so a fully-outside
// box is rejected after a single dot product on the separating plane.
func (f *Frustum) IntersectsAABB(box AABB) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(f.Planes[i].positiveVertex(box)) < 0 {
			return false
		}
	}
	return true
}

// ClassifyAABB classifies the box as Outside, Inside or Partial. A positive
// vertex behind any plane means Outside immediately; otherwise a negative
// vertex behind any plane demotes the result to Partial. Hierarchies use
// Inside to skip per-object tests for whole subtrees.
func (f *Frustum) ClassifyAABB(box AABB) Containment {
	result := Inside
	for i := range f.Planes {
		p := f.Planes[i]
		if p.Distance(p.positiveVertex(box)) < 0 {
			return Outside
		}
		if p.Distance(p.negativeVertex(box)) < 0 {
			result = Partial
		}
	}
	return result
}

// ContainsPoint reports whether a point is inside the frustum.
func (f *Frustum) ContainsPoint(p math3d.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether a sphere intersects the frustum.
// Conservative in the same way as IntersectsAABB.
func (f *Frustum) IntersectsSphere(center math3d.Vec3, radius float64) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(center) < -radius {
			return false
		}
	}
	return true
}
