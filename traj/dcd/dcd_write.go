/*
 * dcd_write.go, part of kinet.
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

package dcd

import (
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

// DCDWObj is a handle for writing a CHARMM-flavor DCD trajectory, plain or
// compressed (zstd/gzip, selected by the file extension).
type DCDWObj struct {
	natoms    int32
	writable  bool
	filename  string
	fhandle   *os.File
	dcd       io.Writer
	closer    io.Closer //compressor, when present
	dcdFields [][]float32
	endian    binary.ByteOrder
}

// NewWriter creates the file and writes the DCD header for a trajectory with
// natoms atoms per frame. Writing is always little-endian.
func NewWriter(filename string, natoms int) (*DCDWObj, error) {
	traj := new(DCDWObj)
	traj.natoms = int32(natoms)
	if err := traj.initWrite(filename); err != nil {
		return nil, errDecorate(err, "NewWriter")
	}
	return traj, nil
}

func (D *DCDWObj) prepTarget(fname string) error {
	D.filename = fname
	var err error
	D.fhandle, err = os.Create(fname)
	if err != nil {
		return Error{err.Error(), D.filename, []string{"os.Create", "prepTarget"}, true}
	}
	temp := strings.Split(fname, ".")
	switch strings.ToLower(temp[len(temp)-1]) {
	case "zst", "zstd":
		z, err := zstd.NewWriter(D.fhandle)
		if err != nil {
			return Error{err.Error(), D.filename, []string{"zstd.NewWriter", "prepTarget"}, true}
		}
		D.dcd = z
		D.closer = z
	case "gz":
		g := gzip.NewWriter(D.fhandle)
		D.dcd = g
		D.closer = g
	default:
		D.dcd = D.fhandle
	}
	return nil
}

// puts v into buf at the given offset, in the writer's endianness.
func (D *DCDWObj) putInt32(buf []byte, offset int, v int32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(v))
}

func (D *DCDWObj) initWrite(name string) error {
	wrapbinerr := func(err error) error {
		return Error{err.Error(), D.filename, []string{"binary.Write", "initWrite"}, true}
	}
	if D.natoms == 0 {
		return Error{"the number of atoms is set to zero", D.filename, []string{"initWrite"}, true}
	}
	D.endian = binary.LittleEndian
	if err := D.prepTarget(name); err != nil {
		return err
	}
	if err := binary.Write(D.dcd, D.endian, int32(84)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, []byte("CORD")); err != nil {
		return wrapbinerr(err)
	}
	//The 80-byte header chunk. We only fill the fields the readers care
	//about: no extra block, no 4D block, no fixed atoms, and a non-zero
	//"charmm version" so the file is not taken for X-plor.
	buf := make([]byte, 80)
	D.putInt32(buf, 76, 24) //charmm version
	D.putInt32(buf, 40, 0)  //no unit-cell block
	D.putInt32(buf, 44, 0)  //no 4D block
	D.putInt32(buf, 32, 0)  //no fixed atoms
	if err := binary.Write(D.dcd, D.endian, buf); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, int32(84)); err != nil {
		return wrapbinerr(err)
	}
	//title section: one dummy title of the smallest possible size.
	var ntitle int32 = 1
	if err := binary.Write(D.dcd, D.endian, int32(4+mAXTITLE*ntitle)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, ntitle); err != nil {
		return wrapbinerr(err)
	}
	title := make([]byte, mAXTITLE)
	copy(title, []byte("Created by kinet"))
	if err := binary.Write(D.dcd, D.endian, title); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, int32(4+mAXTITLE*ntitle)); err != nil {
		return wrapbinerr(err)
	}
	//the natoms record, fenced by two 4s.
	if err := binary.Write(D.dcd, D.endian, int32(4)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, D.natoms); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, int32(4)); err != nil {
		return wrapbinerr(err)
	}
	D.writable = true
	return nil
}

// WNext writes the next frame to the trajectory.
func (D *DCDWObj) WNext(towrite *mat.Dense) error {
	if !D.writable {
		return Error{"Traj object uninitialized to write", D.filename, []string{"WNext"}, true}
	}
	if towrite == nil {
		return Error{NilCoordinates, D.filename, []string{"WNext"}, true}
	}
	r, c := towrite.Dims()
	if int32(r) != D.natoms || c != 3 {
		return Error{"Coordinates don't match the trajectory size", D.filename, []string{"WNext"}, true}
	}
	if D.dcdFields == nil {
		D.dcdFields = make([][]float32, 3)
		D.dcdFields[0] = make([]float32, int(D.natoms))
		D.dcdFields[1] = make([]float32, int(D.natoms))
		D.dcdFields[2] = make([]float32, int(D.natoms))
	}
	for i := 0; i < int(D.natoms); i++ {
		D.dcdFields[0][i] = float32(towrite.At(i, 0))
		D.dcdFields[1][i] = float32(towrite.At(i, 1))
		D.dcdFields[2][i] = float32(towrite.At(i, 2))
	}
	return D.wnextRaw(D.dcdFields)
}

func (D *DCDWObj) wnextRaw(blocks [][]float32) error {
	blocksize := int32(len(blocks[0])) * 4 //size records are in bytes
	for i := 0; i < 3; i++ {
		if err := binary.Write(D.dcd, D.endian, blocksize); err != nil {
			return Error{err.Error(), D.filename, []string{"binary.Write", "wnextRaw"}, true}
		}
		if err := binary.Write(D.dcd, D.endian, blocks[i]); err != nil {
			return Error{err.Error(), D.filename, []string{"binary.Write", "wnextRaw"}, true}
		}
		if err := binary.Write(D.dcd, D.endian, blocksize); err != nil {
			return Error{err.Error(), D.filename, []string{"binary.Write", "wnextRaw"}, true}
		}
	}
	return nil
}

// Len returns the number of atoms per frame.
func (D *DCDWObj) Len() int {
	return int(D.natoms)
}

// Close flushes and closes the trajectory. The object can not be written to
// after this call.
func (D *DCDWObj) Close() {
	if !D.writable {
		return
	}
	if D.closer != nil {
		D.closer.Close()
	}
	D.fhandle.Close()
	D.writable = false
}
