/*
 * dihedral.go, part of kinet.
 *
 * Copyright 2024 Tomás Aliaga <taliaga{at}stochemDOTorg>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package kinet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// small 3D vector helpers. Coordinates come in as length-3 slices (one row
// of an natoms x 3 matrix).

func sub3(a, b []float64) []float64 {
	return []float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross3(a, b []float64) []float64 {
	return []float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm3(a []float64) float64 {
	return math.Sqrt(floats.Dot(a, a))
}

// Dihedral calculates the dihedral angle, in radians, between the points
// a, b, c, d, where the first plane is defined by abc and the second by bcd.
// The returned angle is in (-pi, pi].
func Dihedral(a, b, c, d []float64) float64 {
	all := [][]float64{a, b, c, d}
	for number, point := range all {
		if point == nil {
			panic(fmt.Sprintf("Dihedral: vector %d is nil", number))
		}
		if len(point) != 3 {
			panic(fmt.Sprintf("Dihedral: vector %d has invalid shape", number))
		}
	}
	bma := sub3(b, a)
	cmb := sub3(c, b)
	dmc := sub3(d, c)
	first := floats.Dot(scale3(norm3(cmb), bma), cross3(cmb, dmc))
	second := floats.Dot(cross3(bma, cmb), cross3(cmb, dmc))
	return math.Atan2(first, second)
}

func scale3(s float64, a []float64) []float64 {
	return []float64{s * a[0], s * a[1], s * a[2]}
}
