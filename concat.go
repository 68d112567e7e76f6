/*
 * concat.go, part of kinet.
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

	"gonum.org/v1/gonum/mat"
)

// Concat keeps the index bookkeeping for a set of trajectories analyzed as
// one concatenated series: it maps global frame indexes to (trajectory,
// frame) pairs and back. Analyses that must not run across trajectory
// boundaries (transition counting, time-lagged covariances) take the
// per-trajectory lengths from here.
type Concat struct {
	lens    []int
	offsets []int //cumulative. offsets[i] is the global index of frame 0 of traj i.
	total   int
}

// NewConcat returns the bookkeeping for trajectories with the given lengths.
func NewConcat(lens ...int) (*Concat, error) {
	if len(lens) == 0 {
		return nil, CError{string(ErrNilData), []string{"NewConcat"}}
	}
	c := new(Concat)
	c.lens = make([]int, len(lens))
	c.offsets = make([]int, len(lens))
	for i, v := range lens {
		if v <= 0 {
			return nil, CError{fmt.Sprintf("trajectory %d has non-positive length %d", i, v), []string{"NewConcat"}}
		}
		c.lens[i] = v
		c.offsets[i] = c.total
		c.total += v
	}
	return c, nil
}

// ConcatFromMats is a convenience constructor taking the per-trajectory
// feature matrices themselves.
func ConcatFromMats(feats []*mat.Dense) (*Concat, error) {
	lens := make([]int, len(feats))
	for i, v := range feats {
		if v == nil {
			return nil, CError{string(ErrNilData), []string{"ConcatFromMats"}}
		}
		r, _ := v.Dims()
		lens[i] = r
	}
	return NewConcat(lens...)
}

// Len returns the total number of frames.
func (c *Concat) Len() int {
	return c.total
}

// NTrajs returns the number of trajectories.
func (c *Concat) NTrajs() int {
	return len(c.lens)
}

// TrajLen returns the number of frames of the i-th trajectory.
func (c *Concat) TrajLen(i int) int {
	return c.lens[i]
}

// Locate maps a global frame index to its (trajectory, frame) pair.
func (c *Concat) Locate(global int) (traj, frame int, err error) {
	if global < 0 || global >= c.total {
		return -1, -1, CError{fmt.Sprintf("global index %d out of range (%d frames)", global, c.total), []string{"Locate"}}
	}
	//trajectory counts stay small, no point in a binary search
	for i := len(c.offsets) - 1; i >= 0; i-- {
		if global >= c.offsets[i] {
			return i, global - c.offsets[i], nil
		}
	}
	return -1, -1, CError{"unreachable", []string{"Locate"}}
}

// GlobalIndex maps a (trajectory, frame) pair to the global frame index.
func (c *Concat) GlobalIndex(traj, frame int) (int, error) {
	if traj < 0 || traj >= len(c.lens) || frame < 0 || frame >= c.lens[traj] {
		return -1, CError{fmt.Sprintf("(%d, %d) out of range", traj, frame), []string{"GlobalIndex"}}
	}
	return c.offsets[traj] + frame, nil
}

// Split cuts a flat, concatenated per-frame series back into per-trajectory
// slices. The returned slices share the backing array with the input.
func (c *Concat) Split(flat []int) ([][]int, error) {
	if len(flat) != c.total {
		return nil, CError{fmt.Sprintf("series has %d elements, %d frames expected", len(flat), c.total), []string{"Split"}}
	}
	ret := make([][]int, len(c.lens))
	for i, l := range c.lens {
		ret[i] = flat[c.offsets[i] : c.offsets[i]+l]
	}
	return ret, nil
}

// Stack concatenates per-trajectory feature matrices into one large matrix,
// in trajectory order. All matrices must have the same number of columns.
func Stack(feats []*mat.Dense) (*mat.Dense, error) {
	if len(feats) == 0 {
		return nil, CError{string(ErrNilData), []string{"Stack"}}
	}
	_, cols := feats[0].Dims()
	var total int
	for i, v := range feats {
		r, c := v.Dims()
		if c != cols {
			return nil, CError{fmt.Sprintf("matrix %d has %d columns, %d expected", i, c, cols), []string{"Stack"}}
		}
		total += r
	}
	ret := mat.NewDense(total, cols, nil)
	var at int
	for _, v := range feats {
		r, _ := v.Dims()
		for i := 0; i < r; i++ {
			ret.SetRow(at, v.RawRowView(i))
			at++
		}
	}
	return ret, nil
}
