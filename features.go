/*
 * features.go, part of kinet.
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
	"strings"

	"gonum.org/v1/gonum/mat"
)

// DihedralSet contains the atom indexes needed for the phi and psi backbone
// dihedrals of one residue: the C of the previous residue, N, CA and C of the
// residue itself and the N of the next one.
type DihedralSet struct {
	Cprev   int
	N       int
	Ca      int
	C       int
	Npost   int
	MolID   int
	Molname string
}

// BackboneDihedrals takes a topology and returns a slice of DihedralSet, one
// per residue for which the full phi/psi quintuplet could be found. It scans
// residues in the range resran, if resran has 2 elements defining the
// boundaries; otherwise it returns sets for the residues listed in resran.
// If resran has 2 elements and the last is -1, residues from resran[0] to the
// end of the chain are included. Only chains included in the chains string
// are considered; an empty string includes all chains. A change of chain
// resets the scan, so dihedrals are never built across chain breaks.
func BackboneDihedrals(M Atomer, chains string, resran []int) ([]DihedralSet, error) {
	if M == nil {
		return nil, CError{string(ErrNilData), []string{"BackboneDihedrals"}}
	}
	sets := make([]DihedralSet, 0, 10)
	if len(resran) == 2 {
		if resran[1] == -1 {
			resran[1] = 999999999 //should work!
		}
	}
	C := -1
	N := -1
	Ca := -1
	Cprev := -1
	Npost := -1
	chainprev := "NOTAVALIDCHAIN" //any non-valid chain name
	for num := 0; num < M.Len(); num++ {
		at := M.Atom(num)
		if !strings.Contains(chains, at.Chain) && at.Chain != " " && chains != "" {
			continue
		}
		if at.Chain != chainprev {
			chainprev = at.Chain
			C = -1
			N = -1
			Ca = -1
			Cprev = -1
			Npost = -1
		}
		if at.Name == "C" && Cprev == -1 {
			Cprev = num
		}
		if at.Name == "N" && Cprev != -1 && N == -1 && at.MolID > M.Atom(Cprev).MolID {
			N = num
		}
		if at.Name == "C" && Cprev != -1 && at.MolID > M.Atom(Cprev).MolID {
			C = num
		}
		if at.Name == "CA" && Cprev != -1 && at.MolID > M.Atom(Cprev).MolID {
			Ca = num
		}
		if at.Name == "N" && Ca != -1 && at.MolID > M.Atom(Ca).MolID {
			Npost = num
		}
		//when we have them all, we save
		if Cprev != -1 && Ca != -1 && N != -1 && C != -1 && Npost != -1 {
			//We check that the residue ids are what they are supposed to be
			r1 := M.Atom(Cprev).MolID
			r2 := M.Atom(N).MolID
			r2a := M.Atom(Ca).MolID
			r2b := M.Atom(C).MolID
			r3 := M.Atom(Npost).MolID
			if (len(resran) == 2 && (r2 >= resran[0] && r2 <= resran[1])) || isInInt(resran, r2) {
				if r1 != r2-1 || r2 != r2a || r2a != r2b || r2b != r3-1 {
					return nil, CError{fmt.Sprintf("%s Cprev: %d N-1: %d CA: %d C: %d Npost-1: %d", ErrBrokenBackbone, r1, r2-1, r2a, r2b, r3-1), []string{"BackboneDihedrals"}}
				}
				sets = append(sets, DihedralSet{Cprev, N, Ca, C, Npost, r2, M.Atom(Ca).Molname})
			}
			N = Npost
			Ca = -1
			Cprev = C
			C = -1
			Npost = -1
		}
	}
	return sets, nil
}

// DihedralFilter filters a slice of DihedralSet by residue name (ex. only
// GLY, or everything but GLY). Whether the residues named in filterdata are
// kept or removed depends on shouldBePresent. It returns the filtered sets
// and a slice with the index of each old set in the new slice, or -1 for the
// sets that were left out.
func DihedralFilter(sets []DihedralSet, filterdata []string, shouldBePresent bool) ([]DihedralSet, []int) {
	ret := make([]DihedralSet, 0, len(sets))
	index := make([]int, len(sets))
	var added int
	for key, val := range sets {
		if isInString(filterdata, val.Molname) == shouldBePresent {
			ret = append(ret, val)
			index[key] = added
			added++
		} else {
			index[key] = -1
		}
	}
	return ret, index
}

// PhiPsi obtains the values for the phi and psi dihedrals indicated in sets,
// for the conformation coord. The angles are in *degrees*. It returns a slice
// of 2-element slices, one for the phi, the next for the psi dihedral, and an
// error or nil.
func PhiPsi(coord *mat.Dense, sets []DihedralSet) ([][]float64, error) {
	if coord == nil || sets == nil {
		return nil, CError{string(ErrNilData), []string{"PhiPsi"}}
	}
	r, _ := coord.Dims()
	angles := make([][]float64, 0, len(sets))
	for _, j := range sets {
		if j.Npost >= r {
			return nil, CError{string(ErrIndexOutOfRange), []string{"PhiPsi"}}
		}
		Cprev := coord.RawRowView(j.Cprev)
		N := coord.RawRowView(j.N)
		Ca := coord.RawRowView(j.Ca)
		C := coord.RawRowView(j.C)
		Npost := coord.RawRowView(j.Npost)
		phi := Dihedral(Cprev, N, Ca, C)
		psi := Dihedral(N, Ca, C, Npost)
		angles = append(angles, []float64{phi * (180 / math.Pi), psi * (180 / math.Pi)})
	}
	return angles, nil
}

// FeatOptions controls the featurization of a trajectory.
type FeatOptions struct {
	SinCos bool //encode each angle as a (sin, cos) pair instead of degrees
	Stride int  //keep every Stride-th frame. 0 or 1 means every frame.
}

// Featurize streams the trajectory t and evaluates the dihedrals in sets for
// every kept frame. It returns an nframes x nfeatures matrix with one frame
// per row. With opts.SinCos the features are (sin phi, cos phi, sin psi,
// cos psi) per residue, which puts the angles on a metric space; otherwise
// they are (phi, psi) in degrees. Reading stops at the normal end of the
// trajectory; any other trajectory error is returned.
func Featurize(t Traj, sets []DihedralSet, opts FeatOptions) (*mat.Dense, error) {
	if t == nil || sets == nil {
		return nil, CError{string(ErrNilData), []string{"Featurize"}}
	}
	stride := opts.Stride
	if stride < 1 {
		stride = 1
	}
	ncols := 2 * len(sets)
	if opts.SinCos {
		ncols = 4 * len(sets)
	}
	data := make([]float64, 0, 1000*ncols)
	coord := mat.NewDense(t.Len(), 3, nil)
	var nframes, read int
	for {
		keep := coord
		if read%stride != 0 {
			keep = nil //the frame is read for correctness but not stored
		}
		err := t.Next(keep)
		if err != nil {
			if _, ok := err.(LastFrameError); ok {
				break
			}
			return nil, errDecorate(err, "Featurize")
		}
		read++
		if keep == nil {
			continue
		}
		angles, err := PhiPsi(coord, sets)
		if err != nil {
			return nil, errDecorate(err, "Featurize")
		}
		for _, v := range angles {
			if opts.SinCos {
				phi := v[0] * (math.Pi / 180)
				psi := v[1] * (math.Pi / 180)
				data = append(data, math.Sin(phi), math.Cos(phi), math.Sin(psi), math.Cos(psi))
			} else {
				data = append(data, v[0], v[1])
			}
		}
		nframes++
	}
	if nframes == 0 {
		return nil, CError{string(ErrNotEnoughFrames), []string{"Featurize"}}
	}
	return mat.NewDense(nframes, ncols, data), nil
}
