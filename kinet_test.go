package kinet

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDihedral(Te *testing.T) {
	//four points in a plane, trans configuration: 180 degrees
	a := []float64{-1, 1, 0}
	b := []float64{0, 0, 0}
	c := []float64{1, 0, 0}
	d := []float64{2, -1, 0}
	phi := Dihedral(a, b, c, d)
	if math.Abs(math.Abs(phi)-math.Pi) > 1e-12 {
		Te.Errorf("trans dihedral: got %v rad, want +-pi", phi)
	}
	//cis: 0 degrees
	d = []float64{2, 1, 0}
	phi = Dihedral(a, b, c, d)
	if math.Abs(phi) > 1e-12 {
		Te.Errorf("cis dihedral: got %v rad, want 0", phi)
	}
	//out of plane by 90 degrees
	d = []float64{1, 0, 1}
	phi = Dihedral(a, b, c, d)
	if math.Abs(math.Abs(phi)-math.Pi/2) > 1e-12 {
		Te.Errorf("perpendicular dihedral: got %v rad, want +-pi/2", phi)
	}
}

// backboneTopology builds 3 residues of backbone atoms, so exactly the
// middle one has a full phi/psi quintuplet.
func backboneTopology() *Topology {
	mk := func(name string, id, mol int) *Atom {
		return &Atom{Name: name, ID: id, Molname: "ALA", MolID: mol, Chain: "A"}
	}
	ats := []*Atom{
		mk("N", 1, 1), mk("CA", 2, 1), mk("C", 3, 1),
		mk("N", 4, 2), mk("CA", 5, 2), mk("C", 6, 2),
		mk("N", 7, 3), mk("CA", 8, 3), mk("C", 9, 3),
	}
	top, _ := NewTopology(ats)
	return top
}

func TestBackboneDihedrals(Te *testing.T) {
	top := backboneTopology()
	sets, err := BackboneDihedrals(top, "A", []int{1, -1})
	if err != nil {
		Te.Fatal(err)
	}
	if len(sets) != 1 {
		Te.Fatalf("got %d dihedral sets, want 1", len(sets))
	}
	s := sets[0]
	if s.Cprev != 2 || s.N != 3 || s.Ca != 4 || s.C != 5 || s.Npost != 6 {
		Te.Errorf("wrong indexes: %+v", s)
	}
	if s.MolID != 2 || s.Molname != "ALA" {
		Te.Errorf("wrong residue info: %+v", s)
	}
	//a chain not present yields nothing
	sets, err = BackboneDihedrals(top, "B", []int{1, -1})
	if err != nil {
		Te.Fatal(err)
	}
	if len(sets) != 0 {
		Te.Errorf("got %d sets for an absent chain", len(sets))
	}
}

func TestBackboneDihedralsBroken(Te *testing.T) {
	top := backboneTopology()
	//renumber the last residue so the chain looks discontinuous
	for i := 6; i < 9; i++ {
		top.Atom(i).MolID = 5
	}
	if _, err := BackboneDihedrals(top, "A", []int{1, -1}); err == nil {
		Te.Error("expected a broken backbone error")
	}
}

func TestDihedralFilter(Te *testing.T) {
	sets := []DihedralSet{
		{Molname: "GLY", MolID: 1},
		{Molname: "ALA", MolID: 2},
		{Molname: "GLY", MolID: 3},
	}
	only, index := DihedralFilter(sets, []string{"GLY"}, true)
	if len(only) != 2 || index[1] != -1 || index[2] != 1 {
		Te.Errorf("filter in: %v %v", only, index)
	}
	rest, index := DihedralFilter(sets, []string{"GLY"}, false)
	if len(rest) != 1 || rest[0].Molname != "ALA" || index[0] != -1 {
		Te.Errorf("filter out: %v %v", rest, index)
	}
}

// coordinates with known phi and psi for the set (0...4): all atoms laid
// out so both dihedrals are trans.
func transCoords() *mat.Dense {
	return mat.NewDense(7, 3, []float64{
		-1, 1, 0,
		0, 0, 0,
		1, 0, 0,
		2, -1, 0,
		3, -1, 0,
		4, -2, 0,
		5, -2, 0,
	})
}

func TestPhiPsi(Te *testing.T) {
	sets := []DihedralSet{{Cprev: 0, N: 1, Ca: 2, C: 3, Npost: 4, MolID: 2, Molname: "ALA"}}
	angles, err := PhiPsi(transCoords(), sets)
	if err != nil {
		Te.Fatal(err)
	}
	if len(angles) != 1 {
		Te.Fatalf("got %d angle pairs", len(angles))
	}
	if math.Abs(math.Abs(angles[0][0])-180) > 1e-10 {
		Te.Errorf("phi: got %v degrees, want +-180", angles[0][0])
	}
	//out of range index
	bad := []DihedralSet{{Cprev: 0, N: 1, Ca: 2, C: 3, Npost: 99}}
	if _, err := PhiPsi(transCoords(), bad); err == nil {
		Te.Error("expected an out of range error")
	}
}

// fakeTraj replays a fixed set of conformations through the Traj interface.
type fakeTraj struct {
	frames []*mat.Dense
	at     int
}

func (f *fakeTraj) Readable() bool { return f.at < len(f.frames) }

func (f *fakeTraj) Next(keep *mat.Dense, box ...[]float64) error {
	if f.at >= len(f.frames) {
		return lastFrame{}
	}
	if keep != nil {
		keep.Copy(f.frames[f.at])
	}
	f.at++
	return nil
}

func (f *fakeTraj) Len() int {
	r, _ := f.frames[0].Dims()
	return r
}

type lastFrame struct{}

func (l lastFrame) Error() string             { return "EOF" }
func (l lastFrame) NormalLastFrameTermination() {}
func (l lastFrame) FileName() string          { return "fake" }
func (l lastFrame) Format() string            { return "fake" }
func (l lastFrame) Critical() bool            { return false }
func (l lastFrame) Decorate(string) []string  { return nil }

func TestFeaturize(Te *testing.T) {
	sets := []DihedralSet{{Cprev: 0, N: 1, Ca: 2, C: 3, Npost: 4, MolID: 2, Molname: "ALA"}}
	c := transCoords()
	tr := &fakeTraj{frames: []*mat.Dense{c, c, c, c}}
	F, err := Featurize(tr, sets, FeatOptions{SinCos: false})
	if err != nil {
		Te.Fatal(err)
	}
	r, cols := F.Dims()
	if r != 4 || cols != 2 {
		Te.Fatalf("got %dx%d features, want 4x2", r, cols)
	}
	if math.Abs(math.Abs(F.At(0, 0))-180) > 1e-10 {
		Te.Errorf("phi feature: %v", F.At(0, 0))
	}
	//sin/cos encoding doubles the columns and bounds the values
	tr = &fakeTraj{frames: []*mat.Dense{c, c}}
	F, err = Featurize(tr, sets, FeatOptions{SinCos: true})
	if err != nil {
		Te.Fatal(err)
	}
	_, cols = F.Dims()
	if cols != 4 {
		Te.Errorf("got %d sincos columns, want 4", cols)
	}
	if math.Abs(F.At(0, 1)-(-1)) > 1e-10 { //cos(180) = -1
		Te.Errorf("cos phi: %v", F.At(0, 1))
	}
	//stride keeps every second frame
	tr = &fakeTraj{frames: []*mat.Dense{c, c, c, c, c}}
	F, err = Featurize(tr, sets, FeatOptions{Stride: 2})
	if err != nil {
		Te.Fatal(err)
	}
	r, _ = F.Dims()
	if r != 3 {
		Te.Errorf("stride 2 over 5 frames gave %d rows, want 3", r)
	}
}

func TestConcat(Te *testing.T) {
	c, err := NewConcat(3, 2, 4)
	if err != nil {
		Te.Fatal(err)
	}
	if c.Len() != 9 || c.NTrajs() != 3 || c.TrajLen(2) != 4 {
		Te.Error("wrong sizes")
	}
	tr, fr, err := c.Locate(4)
	if err != nil || tr != 1 || fr != 1 {
		Te.Errorf("Locate(4) = (%d, %d, %v), want (1, 1)", tr, fr, err)
	}
	g, err := c.GlobalIndex(2, 0)
	if err != nil || g != 5 {
		Te.Errorf("GlobalIndex(2, 0) = %d, want 5", g)
	}
	if _, _, err := c.Locate(9); err == nil {
		Te.Error("expected out of range error")
	}
	flat := []int{0, 0, 0, 1, 1, 2, 2, 2, 2}
	split, err := c.Split(flat)
	if err != nil {
		Te.Fatal(err)
	}
	if len(split) != 3 || len(split[1]) != 2 || split[2][0] != 2 {
		Te.Errorf("bad split: %v", split)
	}
}

func TestStack(Te *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(1, 2, []float64{5, 6})
	S, err := Stack([]*mat.Dense{a, b})
	if err != nil {
		Te.Fatal(err)
	}
	r, _ := S.Dims()
	if r != 3 || S.At(2, 1) != 6 {
		Te.Errorf("bad stack: %v", mat.Formatted(S))
	}
	bad := mat.NewDense(1, 3, nil)
	if _, err := Stack([]*mat.Dense{a, bad}); err == nil {
		Te.Error("expected a shape error")
	}
}

const testPDB = `ATOM      1  N   ALA A   1      11.104   6.134  -6.504  1.00  0.00           N
ATOM      2  CA  ALA A   1      11.639   6.071  -5.147  1.00  0.00           C
ATOM      3  C   ALA A   1      10.861   6.977  -4.190  1.00  0.00           C
ATOM      4  N   GLY A   2       9.836   6.430  -3.548  1.00  0.00           N
ATOM      5  CA  GLY A   2       8.986   7.197  -2.642  1.00  0.00           C
ATOM      6  C   GLY A   2       8.182   6.270  -1.739  1.00  0.00           C
HETATM    7  O   HOH A 101       1.000   2.000   3.000  1.00  0.00           O
END
`

func TestPDBRead(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "mini.pdb")
	if err := os.WriteFile(path, []byte(testPDB), 0644); err != nil {
		Te.Fatal(err)
	}
	top, coord, err := PDBRead(path)
	if err != nil {
		Te.Fatal(err)
	}
	if top.Len() != 6 {
		Te.Fatalf("read %d atoms, want 6 (hetatms skipped)", top.Len())
	}
	at := top.Atom(1)
	if at.Name != "CA" || at.Molname != "ALA" || at.MolID != 1 || at.Chain != "A" {
		Te.Errorf("bad atom: %+v", at)
	}
	if math.Abs(coord.At(0, 0)-11.104) > 1e-6 {
		Te.Errorf("bad coordinate: %v", coord.At(0, 0))
	}
	//with hetatms
	top, _, err = PDBRead(path, true)
	if err != nil {
		Te.Fatal(err)
	}
	if top.Len() != 7 {
		Te.Errorf("read %d atoms with hetatms, want 7", top.Len())
	}
	last := top.Atom(6)
	if !last.Het || last.Molname != "HOH" {
		Te.Errorf("bad hetatm: %+v", last)
	}
}
