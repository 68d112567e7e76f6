/*
 * pdb.go, part of kinet.
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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// parses an ATOM/HETATM line. PDB is a fixed-column format, so we slice by
// column and only then trim.
func read_onlypdbline(line string) (*Atom, [3]float64, error) {
	var coords [3]float64
	if len(line) < 54 {
		return nil, coords, CError{fmt.Sprintf("short PDB line: %q", line), []string{"read_onlypdbline"}}
	}
	at := new(Atom)
	at.Het = strings.HasPrefix(line, "HETATM")
	var err error
	at.ID, err = strconv.Atoi(strings.TrimSpace(line[6:11]))
	if err != nil {
		return nil, coords, CError{"can't read atom serial: " + err.Error(), []string{"read_onlypdbline"}}
	}
	at.Name = strings.TrimSpace(line[12:16])
	at.Molname = strings.TrimSpace(line[17:20])
	at.Chain = strings.TrimSpace(line[21:22])
	at.MolID, err = strconv.Atoi(strings.TrimSpace(line[22:26]))
	if err != nil {
		return nil, coords, CError{"can't read residue number: " + err.Error(), []string{"read_onlypdbline"}}
	}
	for i, v := range []string{line[30:38], line[38:46], line[46:54]} {
		coords[i], err = strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, coords, CError{"can't read coordinates: " + err.Error(), []string{"read_onlypdbline"}}
		}
	}
	if len(line) >= 78 {
		at.Symbol = strings.TrimSpace(line[76:78])
	}
	return at, coords, nil
}

// PDBRead reads the topology and the coordinates of the first model from the
// PDB file in path. If read_hetatm is given and true, HETATM records are
// included. Returns the topology, an natoms x 3 coordinate matrix, and an
// error or nil.
func PDBRead(path string, read_hetatm ...bool) (*Topology, *mat.Dense, error) {
	het := false
	if len(read_hetatm) > 0 {
		het = read_hetatm[0]
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, CError{err.Error(), []string{"os.Open", "PDBRead"}}
	}
	defer f.Close()
	ats := make([]*Atom, 0, 100)
	coords := make([]float64, 0, 300)
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := scan.Text()
		//only the first model of a multi-model file
		if strings.HasPrefix(line, "ENDMDL") || strings.HasPrefix(line, "END") {
			break
		}
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		if !het && strings.HasPrefix(line, "HETATM") {
			continue
		}
		at, xyz, err := read_onlypdbline(line)
		if err != nil {
			return nil, nil, errDecorate(err, "PDBRead")
		}
		ats = append(ats, at)
		coords = append(coords, xyz[0], xyz[1], xyz[2])
	}
	if err := scan.Err(); err != nil {
		return nil, nil, CError{err.Error(), []string{"bufio.Scanner", "PDBRead"}}
	}
	if len(ats) == 0 {
		return nil, nil, CError{"no ATOM records in " + path, []string{"PDBRead"}}
	}
	top, err := NewTopology(ats)
	if err != nil {
		return nil, nil, errDecorate(err, "PDBRead")
	}
	return top, mat.NewDense(len(ats), 3, coords), nil
}
