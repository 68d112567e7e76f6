/*
 * traj.go, part of kinet.
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

import "gonum.org/v1/gonum/mat"

// Traj is an interface for any trajectory object. Coordinates are served one
// frame at a time as natoms x 3 matrices.
type Traj interface {

	//Is the trajectory ready to be read?
	Readable() bool

	//reads the next frame and copies it into keep, or discards it if keep is
	//nil. It can also fill the (optional) box with the box vectors, if
	//present in the frame. The end of the trajectory is signaled by a
	//LastFrameError.
	Next(keep *mat.Dense, box ...[]float64) error

	//Returns the number of atoms per frame
	Len() int
}

// ConcTraj is an interface for a trajectory that can be read concurrently.
type ConcTraj interface {

	//Is the trajectory ready to be read?
	Readable() bool

	/*NextConc reads as many frames as elements the given slice has. Frames
	corresponding to nil elements are read but discarded. It returns a slice
	of channels, through each of which one of the read frames will be
	transmitted.*/
	NextConc(frames []*mat.Dense) ([]chan *mat.Dense, error)

	//Returns the number of atoms per frame
	Len() int
}

// Atomer is the basic interface for a topology.
type Atomer interface {

	//Atom returns the Atom corresponding to the index i
	//of the Atom slice in the Topology. Should panic if
	//out of range.
	Atom(i int) *Atom

	Len() int
}
