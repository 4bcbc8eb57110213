package impulse

import (
	"fmt"
	"math"
	"os"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"gonum.org/v1/gonum/mat"
)

// #region synapses
// Synapses is the static N x N sensor-to-impulse connection matrix. It is loaded
// once and never modified during a run.
type Synapses struct {
	m mat.Matrix
	n int
}

// IdentitySynapses wires sensor i only to impulse i with the given gain.
func IdentitySynapses(n int, gain float64) *Synapses {
	diag := make([]float64, n)
	for i := range diag {
		diag[i] = gain
	}
	return &Synapses{m: mat.NewDiagDense(n, diag), n: n}
}

// NewSynapses builds a dense matrix from rows; rows[i][j] is the weight from sensor j to impulse i.
func NewSynapses(n int, rows [][]float64) (*Synapses, error) {
	if len(rows) != n {
		return nil, fmt.Errorf("%w: synapse matrix has %d rows, want %d", config.ErrConfig, len(rows), n)
	}
	data := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: synapse row %d has %d columns, want %d", config.ErrConfig, i, len(row), n)
		}
		for j, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: synapse weight [%d][%d] not finite", config.ErrConfig, i, j)
			}
		}
		data = append(data, row...)
	}
	return &Synapses{m: mat.NewDense(n, n, data), n: n}, nil
}

type synapseFile struct {
	Rows [][]float64 `yaml:"rows"`
}

// LoadSynapses reads a YAML file of the form `rows: [[...], ...]`.
func LoadSynapses(path string, n int) (*Synapses, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read synapses %s: %v", config.ErrConfig, path, err)
	}
	var f synapseFile
	if err := config.DecodeStrict(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse synapses %s: %v", config.ErrConfig, path, err)
	}
	return NewSynapses(n, f.Rows)
}

// SynapsesFor returns the matrix named by cfg, or the identity when no path is set.
func SynapsesFor(cfg config.Config) (*Synapses, error) {
	if cfg.Impulse.SynapsePath == "" {
		return IdentitySynapses(cfg.Dimensions, cfg.Impulse.SynapseGain), nil
	}
	return LoadSynapses(cfg.Impulse.SynapsePath, cfg.Dimensions)
}

// Size returns N.
func (s *Synapses) Size() int { return s.n }

// Drive computes SynapseMatrix · in.
func (s *Synapses) Drive(in []float64) []float64 {
	var out mat.VecDense
	out.MulVec(s.m, mat.NewVecDense(len(in), append([]float64(nil), in...)))
	return out.RawVector().Data
}

// #endregion synapses
