package msm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// TPT holds transition-path quantities between a source set A and a sink
// set B on the active states of a model: forward and backward committors,
// the gross and net reactive flux matrices, the total flux and the rate.
type TPT struct {
	A, B     []int
	Qplus    []float64  //forward committor
	Qminus   []float64  //backward committor
	Flux     *mat.Dense //gross reactive flux f_ij
	NetFlux  *mat.Dense //max(f_ij - f_ji, 0)
	TotalF   float64
	Rate     float64 //TotalF / sum_i pi_i q-_i, in 1/lag units
}

// Committors solves the forward committor q+ of the model for source A and
// sink B: q+=0 on A, q+=1 on B, and (T-I)q+ = 0 on the rest, by a dense
// linear solve.
func (m *MSM) Committors(A, B []int) ([]float64, error) {
	n := m.N
	inA, inB, err := markSets(n, A, B)
	if err != nil {
		return nil, err
	}
	//indices of the intermediate states
	var inter []int
	for i := 0; i < n; i++ {
		if !inA[i] && !inB[i] {
			inter = append(inter, i)
		}
	}
	q := make([]float64, n)
	for _, i := range B {
		q[i] = 1
	}
	if len(inter) == 0 {
		return q, nil
	}
	//(I - T_II) q_I = T_IB * 1
	ni := len(inter)
	M := mat.NewDense(ni, ni, nil)
	rhs := mat.NewVecDense(ni, nil)
	for a, i := range inter {
		for b, j := range inter {
			v := -m.T.At(i, j)
			if a == b {
				v++
			}
			M.Set(a, b, v)
		}
		var s float64
		for _, j := range B {
			s += m.T.At(i, j)
		}
		rhs.SetVec(a, s)
	}
	var sol mat.VecDense
	if err := sol.SolveVec(M, rhs); err != nil {
		return nil, fmt.Errorf("msm: committor solve failed: %v", err)
	}
	for a, i := range inter {
		v := sol.AtVec(a)
		//clamp roundoff outside [0, 1]
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		q[i] = v
	}
	return q, nil
}

// ReactiveFlux computes the TPT quantities between A and B. It assumes the
// model is reversible, so the backward committor is 1-q+.
func (m *MSM) ReactiveFlux(A, B []int) (*TPT, error) {
	qp, err := m.Committors(A, B)
	if err != nil {
		return nil, err
	}
	s, err := m.Eigendecompose()
	if err != nil {
		return nil, err
	}
	n := m.N
	qm := make([]float64, n)
	for i := range qm {
		qm[i] = 1 - qp[i]
	}
	ret := &TPT{
		A: A, B: B,
		Qplus:   qp,
		Qminus:  qm,
		Flux:    mat.NewDense(n, n, nil),
		NetFlux: mat.NewDense(n, n, nil),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			ret.Flux.Set(i, j, s.Pi[i]*qm[i]*m.T.At(i, j)*qp[j])
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			net := ret.Flux.At(i, j) - ret.Flux.At(j, i)
			if net > 0 {
				ret.NetFlux.Set(i, j, net)
			}
		}
	}
	//total flux out of A
	for _, i := range A {
		for j := 0; j < n; j++ {
			ret.TotalF += ret.Flux.At(i, j)
		}
	}
	var den float64
	for i := 0; i < n; i++ {
		den += s.Pi[i] * qm[i]
	}
	if den > 0 {
		ret.Rate = ret.TotalF / den
	}
	return ret, nil
}

// MFPT returns the mean first passage time from every state to the target
// set B, in lag units: m_i = 0 on B, m_i = 1 + sum_j T_ij m_j elsewhere.
// Multiply by lag*dt for physical time.
func (m *MSM) MFPT(B []int) ([]float64, error) {
	n := m.N
	_, inB, err := markSets(n, nil, B)
	if err != nil {
		return nil, err
	}
	var inter []int
	for i := 0; i < n; i++ {
		if !inB[i] {
			inter = append(inter, i)
		}
	}
	ret := make([]float64, n)
	if len(inter) == 0 {
		return ret, nil
	}
	ni := len(inter)
	M := mat.NewDense(ni, ni, nil)
	rhs := mat.NewVecDense(ni, nil)
	for a, i := range inter {
		for b, j := range inter {
			v := -m.T.At(i, j)
			if a == b {
				v++
			}
			M.Set(a, b, v)
		}
		rhs.SetVec(a, 1)
	}
	var sol mat.VecDense
	if err := sol.SolveVec(M, rhs); err != nil {
		return nil, fmt.Errorf("msm: MFPT solve failed: %v", err)
	}
	for a, i := range inter {
		ret[i] = sol.AtVec(a)
	}
	return ret, nil
}

// CoarseFlux aggregates the net reactive flux onto groups of states (e.g.
// the metastable sets), returning a ngroups x ngroups matrix.
func (t *TPT) CoarseFlux(groups [][]int) *mat.Dense {
	ng := len(groups)
	ret := mat.NewDense(ng, ng, nil)
	for a, ga := range groups {
		for b, gb := range groups {
			if a == b {
				continue
			}
			var acc float64
			for _, i := range ga {
				for _, j := range gb {
					acc += t.NetFlux.At(i, j)
				}
			}
			ret.Set(a, b, acc)
		}
	}
	return ret
}

func markSets(n int, A, B []int) (inA, inB []bool, err error) {
	inA = make([]bool, n)
	inB = make([]bool, n)
	for _, i := range A {
		if i < 0 || i >= n {
			return nil, nil, fmt.Errorf("msm: source state %d out of range", i)
		}
		inA[i] = true
	}
	if len(B) == 0 {
		return nil, nil, fmt.Errorf("msm: empty target set")
	}
	for _, i := range B {
		if i < 0 || i >= n {
			return nil, nil, fmt.Errorf("msm: target state %d out of range", i)
		}
		if inA[i] {
			return nil, nil, fmt.Errorf("msm: state %d is in both the source and the target set", i)
		}
		inB[i] = true
	}
	return inA, inB, nil
}
