// Package vec provides the small 3D vector toolkit used by combat code.
//
// Vectors are plain values. Every function is pure and allocation free.
package vec

import (
	"math"
)

// Vec3 is a world-space position, direction or velocity.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vec2 is a rotation pair. X is pitch (positive looks down), Y is yaw, both in degrees.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

var (
	Zero    = Vec3{}
	Up      = Vec3{0, 1, 0}
	Down    = Vec3{0, -1, 0}
	Forward = Vec3{0, 0, 1}
)

// New is shorthand for Vec3{x, y, z}.
func New(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Mul multiplies component-wise.
func (v Vec3) Mul(o Vec3) Vec3 {
	return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Length()
}

// IsZero reports whether every component is exactly zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Normalize returns the unit vector. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	inv := 1.0 / l
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// Flatten drops the vertical component.
func (v Vec3) Flatten() Vec3 {
	return Vec3{v.X, 0, v.Z}
}

// Reflect mirrors v across the plane with normal n.
func Reflect(v, n Vec3) Vec3 {
	n = n.Normalize()
	return v.Sub(n.Scale(2 * v.Dot(n)))
}

func Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}
}

func Midpoint(a, b Vec3) Vec3 {
	return Lerp(a, b, 0.5)
}

// Angle returns the angle between a and b in radians. Zero vectors yield 0.
func Angle(a, b Vec3) float64 {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	return math.Acos(Clamp(c, -1, 1))
}

// ChangeDir keeps the magnitude of v and points it along dir.
// A zero v stays zero; a zero dir leaves v untouched.
func ChangeDir(v, dir Vec3) Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	if dir.IsZero() {
		return v
	}
	return dir.Normalize().Scale(l)
}

// RotateY rotates v around the world Y axis by deg degrees.
func RotateY(v Vec3, deg float64) Vec3 {
	r := deg * math.Pi / 180
	s, c := math.Sin(r), math.Cos(r)
	return Vec3{v.X*c + v.Z*s, v.Y, -v.X*s + v.Z*c}
}

// RotateAxis rotates v around axis by deg degrees (Rodrigues).
func RotateAxis(v, axis Vec3, deg float64) Vec3 {
	k := axis.Normalize()
	if k.IsZero() {
		return v
	}
	r := deg * math.Pi / 180
	s, c := math.Sin(r), math.Cos(r)
	return v.Scale(c).
		Add(k.Cross(v).Scale(s)).
		Add(k.Scale(k.Dot(v) * (1 - c)))
}

// LinePoints samples n evenly spaced points from a to b inclusive.
func LinePoints(a, b Vec3, n int) []Vec3 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []Vec3{a}
	}
	pts := make([]Vec3, n)
	for i := 0; i < n; i++ {
		pts[i] = Lerp(a, b, float64(i)/float64(n-1))
	}
	return pts
}

// CirclePoints samples n points on a circle around center lying in the plane
// perpendicular to normal.
func CirclePoints(center Vec3, radius float64, n int, normal Vec3) []Vec3 {
	if n <= 0 {
		return nil
	}
	normal = normal.Normalize()
	if normal.IsZero() {
		normal = Up
	}
	ref := Forward
	if math.Abs(normal.Dot(ref)) > 0.99 {
		ref = Vec3{1, 0, 0}
	}
	u := normal.Cross(ref).Normalize()
	w := normal.Cross(u).Normalize()

	pts := make([]Vec3, n)
	step := 2 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		a := step * float64(i)
		off := u.Scale(math.Cos(a) * radius).Add(w.Scale(math.Sin(a) * radius))
		pts[i] = center.Add(off)
	}
	return pts
}

// RelativeToHead converts an offset expressed in view space (X right, Y up,
// Z forward) into a world location anchored at head.
func RelativeToHead(head, forward, offset Vec3) Vec3 {
	f := forward.Normalize()
	right := f.Cross(Up).Normalize()
	if right.IsZero() {
		// looking straight up or down
		right = Vec3{1, 0, 0}
	}
	up := right.Cross(f).Normalize()
	return head.
		Add(right.Scale(offset.X)).
		Add(up.Scale(offset.Y)).
		Add(f.Scale(offset.Z))
}

// DirectionFromRotation converts a pitch/yaw rotation to a unit view vector.
func DirectionFromRotation(rot Vec2) Vec3 {
	pitch := rot.X * math.Pi / 180
	yaw := rot.Y * math.Pi / 180
	return Vec3{
		-math.Sin(yaw) * math.Cos(pitch),
		-math.Sin(pitch),
		math.Cos(yaw) * math.Cos(pitch),
	}
}

// RotationFromDirection is the inverse of DirectionFromRotation.
func RotationFromDirection(dir Vec3) Vec2 {
	d := dir.Normalize()
	if d.IsZero() {
		return Vec2{}
	}
	pitch := -math.Asin(Clamp(d.Y, -1, 1)) * 180 / math.Pi
	yaw := math.Atan2(-d.X, d.Z) * 180 / math.Pi
	return Vec2{pitch, yaw}
}
