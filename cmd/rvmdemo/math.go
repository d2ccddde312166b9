// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import "math"

// mat4 is a column-major 4x4 matrix, the layout WGSL expects.
type mat4 [16]float32

func identity() mat4 {
	return mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// mul returns m * n.
func (m mat4) mul(n mat4) mat4 {
	var out mat4
	for col := range 4 {
		for row := range 4 {
			var sum float32
			for k := range 4 {
				sum += m[k*4+row] * n[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

func translate(x, y, z float32) mat4 {
	m := identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

func scale(s float32) mat4 {
	m := identity()
	m[0], m[5], m[10] = s, s, s
	return m
}

func rotateY(angle float32) mat4 {
	sin, cos := math.Sincos(float64(angle))
	s, c := float32(sin), float32(cos)
	m := identity()
	m[0], m[2] = c, -s
	m[8], m[10] = s, c
	return m
}

// perspective maps view space depth [near, far] to clip depth [0, 1].
func perspective(fovy, aspect, near, far float32) mat4 {
	f := 1 / float32(math.Tan(float64(fovy)/2))
	return mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, far / (near - far), -1,
		0, 0, near * far / (near - far), 0,
	}
}

// lookAt returns a right-handed view matrix.
func lookAt(eye, center, up [3]float32) mat4 {
	f := normalize(sub(center, eye))
	s := normalize(cross(f, up))
	u := cross(s, f)
	return mat4{
		s[0], u[0], -f[0], 0,
		s[1], u[1], -f[1], 0,
		s[2], u[2], -f[2], 0,
		-dot(s, eye), -dot(u, eye), dot(f, eye), 1,
	}
}

func sub(a, b [3]float32) [3]float32 { return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func dot(a, b [3]float32) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(dot(v, v))))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
