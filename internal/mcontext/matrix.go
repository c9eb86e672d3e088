// Package mcontext implements Context (§4.G): the per-procedure-frame
// graphical and variable state, its attribute dirty-flag protocol, path
// lifecycle across nested frames, and the world→page transform setup.
package mcontext

import "math"

// Matrix is a 2D affine transform in the usual [a b c d e f] form:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity is the neutral affine transform.
func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

// Transform applies the matrix to a point.
func (m Matrix) Transform(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// TransformDistance applies only the linear part, ignoring translation —
// used for relative offsets (rlineTo) and vectors (normals).
func (m Matrix) TransformDistance(dx, dy float64) (float64, float64) {
	return m.A*dx + m.C*dy, m.B*dx + m.D*dy
}

// Multiply returns the matrix that applies m first, then other.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.C,
		B: m.A*other.B + m.B*other.D,
		C: m.C*other.A + m.D*other.C,
		D: m.C*other.B + m.D*other.D,
		E: m.E*other.A + m.F*other.C + other.E,
		F: m.E*other.B + m.F*other.D + other.F,
	}
}

// Translate returns the translation-by-(dx,dy) matrix composed after m.
func (m Matrix) Translate(dx, dy float64) Matrix {
	return m.Multiply(Matrix{A: 1, D: 1, E: dx, F: dy})
}

// Scale returns the scale-by-(sx,sy) matrix composed after m.
func (m Matrix) Scale(sx, sy float64) Matrix {
	return m.Multiply(Matrix{A: sx, D: sy})
}

// Rotate returns the rotate-by-radians matrix composed after m.
func (m Matrix) Rotate(radians float64) Matrix {
	s, c := math.Sin(radians), math.Cos(radians)
	return m.Multiply(Matrix{A: c, B: s, C: -s, D: c})
}

// Invert returns the inverse transform, used to re-enter world space for
// relative lineTo and sine-wave curves.
func (m Matrix) Invert() Matrix {
	det := m.A*m.D - m.B*m.C
	if det == 0 {
		return Identity()
	}
	inv := 1 / det
	return Matrix{
		A: m.D * inv,
		B: -m.B * inv,
		C: -m.C * inv,
		D: m.A * inv,
		E: (m.C*m.F - m.D*m.E) * inv,
		F: (m.B*m.E - m.A*m.F) * inv,
	}
}
