// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sandbox

import (
	"cogentcore.org/core/math32"
	"cogentcore.org/glsandbox/gpu"
)

// QuadStride is the number of floats per quad vertex:
// position (3), color (3) and texture coordinates (2).
const QuadStride = 8

// QuadVertices are the interleaved vertices of a quad
// centered on the origin, in counter-clockwise order
// starting from the top right.
var QuadVertices = []float32{
	// positions      colors           texture coords
	0.5, 0.5, 0.0, 1.0, 0.0, 0.0, 1.0, 1.0,
	0.5, -0.5, 0.0, 0.0, 1.0, 0.0, 1.0, 0.0,
	-0.5, -0.5, 0.0, 0.0, 0.0, 1.0, 0.0, 0.0,
	-0.5, 0.5, 0.0, 1.0, 1.0, 0.0, 0.0, 1.0,
}

// QuadIndexes draw the quad as two triangles sharing
// vertices 1 and 3.
var QuadIndexes = []uint32{
	0, 1, 3,
	1, 2, 3,
}

// QuadLayout is the attribute layout of [QuadVertices].
var QuadLayout = []gpu.Attrib{
	{Index: 0, Size: 3, Offset: 0},
	{Index: 1, Size: 3, Offset: 3},
	{Index: 2, Size: 2, Offset: 6},
}

// Transform returns the quad transform at time t:
// a translation to the bottom right, after a rotation
// of t radians about the z axis. The matrix is column-major.
func Transform(t float32) *math32.Matrix4 {
	c, s := math32.Cos(t), math32.Sin(t)
	return &math32.Matrix4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0.5, -0.5, 0, 1,
	}
}

// Pulse returns the green component of the pulsing
// color at time t, in [0, 1].
func Pulse(t float32) float32 {
	return math32.Sin(t)/2 + 0.5
}

// Checkerboard returns the RGB pixels of an n x n checkerboard
// of given cell size, alternating between colors a and b.
func Checkerboard(n, cell int, a, b [3]byte) []byte {
	pix := make([]byte, 0, n*n*3)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if (x/cell+y/cell)%2 == 0 {
				pix = append(pix, a[:]...)
			} else {
				pix = append(pix, b[:]...)
			}
		}
	}
	return pix
}
