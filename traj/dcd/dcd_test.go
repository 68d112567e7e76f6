package dcd

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	kinet "github.com/stochem/kinet"
)

func testFrames(natoms, nframes int) []*mat.Dense {
	frames := make([]*mat.Dense, nframes)
	for f := 0; f < nframes; f++ {
		m := mat.NewDense(natoms, 3, nil)
		for i := 0; i < natoms; i++ {
			m.Set(i, 0, float64(f)+0.25)
			m.Set(i, 1, float64(i))
			m.Set(i, 2, -float64(i)*0.5)
		}
		frames[f] = m
	}
	return frames
}

func roundTrip(Te *testing.T, path string) {
	const natoms, nframes = 7, 5
	frames := testFrames(natoms, nframes)
	w, err := NewWriter(path, natoms)
	if err != nil {
		Te.Fatal(err)
	}
	for _, f := range frames {
		if err := w.WNext(f); err != nil {
			Te.Fatal(err)
		}
	}
	w.Close()

	r, err := New(path)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	if r.Len() != natoms {
		Te.Fatalf("reader sees %d atoms, want %d", r.Len(), natoms)
	}
	got := mat.NewDense(natoms, 3, nil)
	var read int
	for {
		err := r.Next(got)
		if err != nil {
			if _, ok := err.(kinet.LastFrameError); ok {
				break
			}
			Te.Fatal(err)
		}
		want := frames[read]
		for i := 0; i < natoms; i++ {
			for j := 0; j < 3; j++ {
				//coordinates travel as float32
				if math.Abs(got.At(i, j)-want.At(i, j)) > 1e-5 {
					Te.Fatalf("frame %d atom %d coord %d: got %v, want %v",
						read, i, j, got.At(i, j), want.At(i, j))
				}
			}
		}
		read++
	}
	if read != nframes {
		Te.Errorf("read %d frames, want %d", read, nframes)
	}
}

func TestRoundTrip(Te *testing.T) {
	roundTrip(Te, filepath.Join(Te.TempDir(), "rt.dcd"))
}

func TestRoundTripZst(Te *testing.T) {
	roundTrip(Te, filepath.Join(Te.TempDir(), "rt.dcd.zst"))
}

func TestRoundTripGz(Te *testing.T) {
	roundTrip(Te, filepath.Join(Te.TempDir(), "rt.dcd.gz"))
}

func TestSkipFrames(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "skip.dcd")
	const natoms, nframes = 4, 6
	frames := testFrames(natoms, nframes)
	w, err := NewWriter(path, natoms)
	if err != nil {
		Te.Fatal(err)
	}
	for _, f := range frames {
		if err := w.WNext(f); err != nil {
			Te.Fatal(err)
		}
	}
	w.Close()

	r, err := New(path)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	//nil keep skips the frame but still consumes it
	if err := r.Next(nil); err != nil {
		Te.Fatal(err)
	}
	got := mat.NewDense(natoms, 3, nil)
	if err := r.Next(got); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(got.At(0, 0)-1.25) > 1e-5 {
		Te.Errorf("after one skip, got frame with x %v, want 1.25", got.At(0, 0))
	}
}

func TestMissingFile(Te *testing.T) {
	if _, err := New(filepath.Join(Te.TempDir(), "nope.dcd")); err == nil {
		Te.Error("expected an error for a missing file")
	}
}
