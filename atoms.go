/*
 * atoms.go, part of kinet.
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

/*Note: some functions here panic instead of returning errors. They are
 * "fundamental" functions; if something goes wrong in them the program is
 * most likely wrong overall and should crash. Panics are related to nil
 * objects or out-of-bounds access.*/

// Atom contains the atom metadata read from a topology file, except for the
// coordinates, which go in a separate matrix.
type Atom struct {
	Name    string //PDB atom name, e.g. "CA"
	ID      int    //PDB serial
	Molname string //residue name, 3-letter code
	MolID   int    //residue number
	Chain   string
	Symbol  string
	Het     bool //is hetatm in the pdb file?
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic(string(ErrNilData))
	}
	at := new(Atom)
	*at = *A
	return at
}

// Topology contains the information about a molecule which is not expected to
// change in time, i.e. everything except for the coordinates.
type Topology struct {
	Atoms []*Atom
}

// NewTopology returns a topology with the given atoms. It returns an error
// if the slice is nil.
func NewTopology(ats []*Atom) (*Topology, error) {
	if ats == nil {
		return nil, CError{string(ErrNilData), []string{"NewTopology"}}
	}
	top := new(Topology)
	top.Atoms = ats
	return top, nil
}

// Atom returns the atom with index i. It panics if out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic(string(ErrIndexOutOfRange))
	}
	return T.Atoms[i]
}

// SetAtom replaces the atom at index i. It panics if out of range.
func (T *Topology) SetAtom(i int, at *Atom) {
	if i >= T.Len() {
		panic(string(ErrIndexOutOfRange))
	}
	T.Atoms[i] = at
}

// AddAtom appends an atom to the topology.
func (T *Topology) AddAtom(at *Atom) {
	T.Atoms = append(T.Atoms, at)
}

// SomeAtoms returns a new topology with the atoms of T whose indexes are in
// atomlist, in that order.
func (T *Topology) SomeAtoms(atomlist []int) (*Topology, error) {
	ats := make([]*Atom, 0, len(atomlist))
	for _, v := range atomlist {
		if v >= T.Len() {
			return nil, CError{string(ErrIndexOutOfRange), []string{"SomeAtoms"}}
		}
		ats = append(ats, T.Atoms[v])
	}
	return NewTopology(ats)
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}
