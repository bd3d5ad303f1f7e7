// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package vmath defines the math value types that appear in chunk payloads.
// Their field order is part of the wire contract: each type is stored as its
// fields in declaration order, one 32-bit float per word.
package vmath

// Vector2 is a 2D vector, stored as x, y.
type Vector2 struct {
	X, Y float32
}

// Vector3 is a 3D vector, stored as x, y, z.
type Vector3 struct {
	X, Y, Z float32
}

// Vector4 is a 4D vector, stored as x, y, z, w.
type Vector4 struct {
	X, Y, Z, W float32
}

// Quaternion is a rotation, stored as x, y, z, w.
type Quaternion struct {
	X, Y, Z, W float32
}

// Matrix4 is a 4x4 row-major matrix, stored as 16 floats, row by row.
type Matrix4 [16]float32

// Color is an RGBA color, stored as r, g, b, a.
type Color struct {
	R, G, B, A float32
}

// Identity returns the identity matrix.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns the element at the given row and column.
func (m *Matrix4) At(row, col int) float32 { return m[row*4+col] }

// Set sets the element at the given row and column.
func (m *Matrix4) Set(row, col int, v float32) { m[row*4+col] = v }
