package batch

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/cwbudde/algo-xafs/xafs/autobk"
	"github.com/cwbudde/algo-xafs/xafs/core"
	"github.com/cwbudde/algo-xafs/xafs/kspace"
	"github.com/cwbudde/algo-xafs/xafs/normalize"
	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

// Pipeline stages attached to errors.
const (
	StageNormalize = "normalize"
	StageKSpace    = "kspace"
	StageAutobk    = "autobk"
)

// Job is one spectrum with its own configuration.
type Job struct {
	Spectrum core.Spectrum
	Config   core.Config
}

// Outcome is the result slot of one input spectrum.
//
// Err is nil on success. A fit that ran out of iterations carries both the
// best Result and a recoverable Err.
type Outcome struct {
	Index       int
	Name        string
	Fingerprint uint64
	Result      *autobk.Result
	Err         error
}

// OK reports a converged fit.
func (o Outcome) OK() bool { return o.Err == nil && o.Result != nil }

// Recoverable reports an unconverged fit that still carries a result.
func (o Outcome) Recoverable() bool {
	return o.Result != nil && xafserr.IsRecoverable(o.Err)
}

// Process runs normalization, k-space conversion and AUTOBK on one
// spectrum. Errors are *xafserr.Error tagged with the failing stage.
func Process(spec core.Spectrum, cfg core.Config) (*autobk.Result, error) {
	return process(autobk.NewWorkspace(), spec, cfg)
}

func process(ws *autobk.Workspace, spec core.Spectrum, cfg core.Config) (*autobk.Result, error) {
	norm, err := normalize.Normalize(spec, cfg)
	if err != nil {
		return nil, xafserr.FromStage(StageNormalize, err)
	}
	sig, err := kspace.Convert(norm, cfg)
	if err != nil {
		return nil, xafserr.FromStage(StageKSpace, err)
	}
	res, err := ws.Fit(sig, cfg)
	if err != nil {
		return res, xafserr.FromStage(StageAutobk, err)
	}
	return res, nil
}

// Fingerprint hashes the energy and absorption samples of spec.
func Fingerprint(spec core.Spectrum) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, xs := range [][]float64{spec.Energy, spec.Mu} {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(xs)))
		_, _ = h.Write(buf[:])
		for _, v := range xs {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}

// Report counts outcomes by status and error kind.
type Report struct {
	Total       int
	Succeeded   int
	Unconverged int
	Failed      int
	Canceled    int
	ByKind      map[xafserr.Kind]int
}

// Summary tallies outcomes.
func Summary(outcomes []Outcome) Report {
	r := Report{Total: len(outcomes), ByKind: make(map[xafserr.Kind]int)}
	for _, o := range outcomes {
		switch {
		case o.OK():
			r.Succeeded++
		case o.Recoverable():
			r.Unconverged++
		case isCanceled(o.Err):
			r.Canceled++
		default:
			r.Failed++
			r.ByKind[xafserr.KindOf(o.Err)]++
		}
	}
	return r
}
