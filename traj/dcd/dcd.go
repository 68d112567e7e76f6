/*
 * dcd.go, part of kinet.
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

//Package dcd reads and writes CHARMM/NAMD binary trajectories, plain or
//compressed with zstd or gzip (selected by the file extension).
package dcd

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

const mAXTITLE int32 = 80

// DCDObj is a handle for reading a CHARMM/NAMD binary trajectory file.
type DCDObj struct {
	natoms     int32
	buffSize   int
	readLast   bool //Have we read the last frame?
	readable   bool //Is it ready to be read?
	filename   string
	charmm     bool //Charmm traj?
	extrablock bool
	fourdim    bool
	fixed      int32    //Fixed atoms (not supported)
	fhandle    *os.File //the file on disk
	dcd        io.Reader //the possibly-decompressing source we actually read
	closer     io.Closer //non-nil when a decompressor sits between fhandle and dcd
	dcdFields  [][]float32
	concBuffer [][][]float32
	endian     binary.ByteOrder
}

// New opens the DCD trajectory in filename for reading. If the optional
// format string is not given, the compression is deduced from the file
// extension: .zst/.zstd for zstd, .gz for gzip, anything else for a plain
// DCD.
func New(filename string, format ...string) (*DCDObj, error) {
	traj := new(DCDObj)
	f := ""
	if len(format) > 0 {
		f = format[0]
	}
	if err := traj.prepSource(filename, f); err != nil {
		return nil, errDecorate(err, "New")
	}
	if err := traj.initRead(); err != nil {
		return nil, errDecorate(err, "New")
	}
	traj.dcdFields = make([][]float32, 3)
	traj.dcdFields[0] = make([]float32, int(traj.natoms))
	traj.dcdFields[1] = make([]float32, int(traj.natoms))
	traj.dcdFields[2] = make([]float32, int(traj.natoms))
	traj.concBuffer = append(traj.concBuffer, traj.dcdFields)
	traj.buffSize = 1
	return traj, nil
}

// prepSource opens the file and, depending on the format string or the file
// extension, puts a decompressor between the file and the reads.
func (D *DCDObj) prepSource(fname, format string) error {
	var fk string
	if format == "" {
		temp := strings.Split(fname, ".")
		fk = strings.ToLower(temp[len(temp)-1])
	} else {
		fk = format
	}
	D.filename = fname
	var err error
	D.fhandle, err = os.Open(fname)
	if err != nil {
		return Error{err.Error(), D.filename, []string{"os.Open", "prepSource"}, true}
	}
	reader := bufio.NewReader(D.fhandle)
	switch fk {
	case "zst", "zstd":
		z, err := zstd.NewReader(reader)
		if err != nil {
			return Error{err.Error(), D.filename, []string{"zstd.NewReader", "prepSource"}, true}
		}
		rc := z.IOReadCloser()
		D.dcd = rc
		D.closer = rc
	case "gz":
		g, err := gzip.NewReader(reader)
		if err != nil {
			return Error{err.Error(), D.filename, []string{"gzip.NewReader", "prepSource"}, true}
		}
		D.dcd = g
		D.closer = g
	default:
		//plain dcd, whatever the extension says
		D.dcd = reader
	}
	return nil
}

// Readable returns true if the object is ready to be read from, false
// otherwise. It doesn't guarantee that there is something to read.
func (D *DCDObj) Readable() bool {
	return D.readable
}

// initRead parses the DCD header. It supports big and little endianness,
// Charmm or NAMD>=2.1 flavors, and no fixed atoms.
func (D *DCDObj) initRead() error {
	D.endian = binary.LittleEndian
	NB := bytes.NewBuffer //shortness sake
	var check int32
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	//For some reason the first thing we should read is an 84.
	//If this fails it means that the file is big endian.
	if check != 84 {
		D.endian = binary.BigEndian
	}
	//Then the magic number "CORD", also for some unknown reason.
	magic := make([]byte, 4)
	if err := binary.Read(D.dcd, D.endian, magic); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if string(magic) != "CORD" {
		return Error{WrongFormat + ": no CORD magic", D.filename, []string{"initRead"}, true}
	}
	//We read a big chunk with several fields at once.
	buf := make([]byte, 80)
	if err := binary.Read(D.dcd, D.endian, buf); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	//X-plor sets this last int to zero, charmm sets it to its version number.
	//if we have a charmm file we get some additional flags.
	if err := binary.Read(NB(buf[76:]), D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check == 0 {
		return Error{"X-plor DCD not supported", D.filename, []string{"initRead"}, true}
	}
	D.charmm = true
	if err := binary.Read(NB(buf[40:]), D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 0 {
		D.extrablock = true
	}
	if err := binary.Read(NB(buf[44:]), D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check == 1 {
		D.fourdim = true
	}
	if err := binary.Read(NB(buf[32:]), D.endian, &D.fixed); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 84 {
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	var inputInt int32
	if err := binary.Read(D.dcd, D.endian, &inputInt); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	//how many units of mAXTITLE does the title have?
	var ntitle int32
	if err := binary.Read(D.dcd, D.endian, &ntitle); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	title := make([]byte, mAXTITLE*ntitle)
	if err := binary.Read(D.dcd, D.endian, title); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &inputInt); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 4 { //one must read a 4 before the natoms
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &D.natoms); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 4 { //and one more 4
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	if D.fixed != 0 {
		return Error{"Fixed atoms not supported", D.filename, []string{"initRead"}, true}
	}
	runtime.SetFinalizer(D, func(D *DCDObj) {
		D.Close()
	})
	D.readable = true
	return nil
}

// Close closes the underlying file (and decompressor) and marks the object
// as unreadable.
func (D *DCDObj) Close() {
	if D.fhandle == nil {
		return
	}
	if D.closer != nil {
		D.closer.Close()
		D.closer = nil
	}
	D.fhandle.Close()
	D.fhandle = nil
	D.readable = false
}

// Next reads the next frame of the trajectory into keep, which must have at
// least natoms rows and 3 columns. If keep is nil the frame is read and
// discarded. The box argument is accepted for interface compatibility but
// DCD unit-cell blocks are skipped. The normal end of the trajectory is
// signaled with a kinet.LastFrameError.
func (D *DCDObj) Next(keep *mat.Dense, box ...[]float64) error {
	if !D.readable {
		return Error{TrajUnIni, D.filename, []string{"Next"}, true}
	}
	if err := D.nextRaw(D.dcdFields); err != nil {
		return D.eof2LastFrame(err, "Next")
	}
	if keep == nil {
		return nil
	}
	if r, c := keep.Dims(); int32(r) < D.natoms || c < 3 {
		return Error{NotEnoughSpace, D.filename, []string{"Next"}, true}
	}
	for i := 0; i < int(D.natoms); i++ {
		keep.Set(i, 0, float64(D.dcdFields[0][i]))
		keep.Set(i, 1, float64(D.dcdFields[1][i]))
		keep.Set(i, 2, float64(D.dcdFields[2][i]))
	}
	return nil
}

// nextRaw reads the next frame into the given x, y, z float32 blocks.
func (D *DCDObj) nextRaw(blocks [][]float32) error {
	if len(blocks[0]) != int(D.natoms) || len(blocks[1]) != int(D.natoms) || len(blocks[2]) != int(D.natoms) {
		return Error{NotEnoughSpace, D.filename, []string{"nextRaw"}, true}
	}
	if D.readLast {
		D.readable = false
		return newlastFrameError(D.filename, "nextRaw")
	}
	//if there is an extra block we just skip it.
	//Sadly, even when there is an extra block, it is not present in all
	//snapshots for some trajectories, so we must use the block size to see if
	//there is an extra block or if the X block starts immediately.
	var blocksize int32
	if D.extrablock {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			return D.wrapEOF(err, "nextRaw")
		}
		//If the blocksize is 4*natoms the block is not an extra block but the
		//X coordinates, and we must not skip it.
		if blocksize != D.natoms*4 {
			if _, err := D.readByteBlock(blocksize); err != nil {
				return err
			}
			blocksize = 0
		}
	}
	//now get the coords, each as a slice of float32
	//X. Its block size could have been collected already by the extra-block
	//check above.
	if blocksize == 0 {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			return D.wrapEOF(err, "nextRaw")
		}
	}
	if err := D.readFloat32Block(blocksize, blocks[0]); err != nil {
		return err
	}
	//Y
	if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
		return D.wrapEOF(err, "nextRaw")
	}
	if err := D.readFloat32Block(blocksize, blocks[1]); err != nil {
		return err
	}
	//Z
	if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
		return D.wrapEOF(err, "nextRaw")
	}
	if err := D.readFloat32Block(blocksize, blocks[2]); err != nil {
		return err
	}
	//we skip the 4-D values if they exist. Apparently this is not present in
	//the last snapshot, so we use an EOF here to mark that we have read the
	//last one.
	if D.charmm && D.fourdim {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			if isEOF(err) {
				D.readLast = true
			} else {
				return Error{err.Error(), D.filename, []string{"binary.Read", "nextRaw"}, true}
			}
		}
		if !D.readLast {
			if _, err := D.readByteBlock(blocksize); err != nil {
				return err
			}
		}
	}
	return nil
}

// readFloat32Block reads a float32 block plus its trailing size record,
// which must match blocksize.
func (D *DCDObj) readFloat32Block(blocksize int32, block []float32) error {
	var check int32
	if err := binary.Read(D.dcd, D.endian, block); err != nil {
		return D.wrapEOF(err, "readFloat32Block")
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return D.wrapEOF(err, "readFloat32Block")
	}
	if check != blocksize {
		return Error{SecurityCheckFailed, D.filename, []string{"readFloat32Block"}, true}
	}
	return nil
}

// readByteBlock reads a block of bytes and its trailing size record. Used to
// skip blocks we don't process.
func (D *DCDObj) readByteBlock(blocksize int32) ([]byte, error) {
	var check int32
	block := make([]byte, blocksize)
	if err := binary.Read(D.dcd, D.endian, block); err != nil {
		return nil, D.wrapEOF(err, "readByteBlock")
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return nil, D.wrapEOF(err, "readByteBlock")
	}
	if check != blocksize {
		return nil, Error{SecurityCheckFailed, D.filename, []string{"readByteBlock"}, true}
	}
	return block, nil
}

// Len returns the number of atoms per frame.
func (D *DCDObj) Len() int {
	return int(D.natoms)
}

func isEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF || err.Error() == "EOF"
}

// eof2LastFrame turns an EOF into the harmless last-frame marker. Any other
// error passes through.
func (D *DCDObj) eof2LastFrame(err error, caller string) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*lastFrameError); ok {
		return err
	}
	if isEOF(err) {
		D.readable = false
		return newlastFrameError(D.filename, caller)
	}
	return err
}

func (D *DCDObj) wrapEOF(err error, caller string) error {
	if isEOF(err) {
		D.readable = false
		return newlastFrameError(D.filename, caller)
	}
	return Error{err.Error(), D.filename, []string{caller}, true}
}

func (D *DCDObj) setConcBuffer(batchsize int) {
	l := D.buffSize
	if l == batchsize {
		return
	}
	if l > batchsize {
		D.concBuffer = D.concBuffer[:batchsize]
		D.buffSize = batchsize
		return
	}
	for i := 0; i < batchsize-l; i++ {
		x := make([]float32, D.Len())
		y := make([]float32, D.Len())
		z := make([]float32, D.Len())
		D.concBuffer = append(D.concBuffer, [][]float32{x, y, z})
	}
	D.buffSize = batchsize
}

/*NextConc reads as many frames as elements the given slice has. Frames
corresponding to nil elements are read but discarded. It returns a slice of
channels, through each of which one of the read frames will be transmitted.*/
func (D *DCDObj) NextConc(frames []*mat.Dense) ([]chan *mat.Dense, error) {
	if !D.Readable() {
		return nil, Error{TrajUnIni, D.filename, []string{"NextConc"}, true}
	}
	framechans := make([]chan *mat.Dense, len(frames))
	if D.buffSize < len(frames) {
		D.setConcBuffer(len(frames))
	}
	for key := range frames {
		fields := D.concBuffer[key]
		if err := D.nextRaw(fields); err != nil {
			return nil, D.eof2LastFrame(err, "NextConc")
		}
		if frames[key] == nil {
			framechans[key] = nil //ignored frame
			continue
		}
		framechans[key] = make(chan *mat.Dense)
		//the copy to float64 runs in parallel with further reads
		go func(natoms int, fields [][]float32, keep *mat.Dense, pipe chan *mat.Dense) {
			for i := 0; i < natoms; i++ {
				keep.Set(i, 0, float64(fields[0][i]))
				keep.Set(i, 1, float64(fields[1][i]))
				keep.Set(i, 2, float64(fields[2][i]))
			}
			pipe <- keep
		}(int(D.natoms), fields, frames[key], framechans[key])
	}
	return framechans, nil
}
