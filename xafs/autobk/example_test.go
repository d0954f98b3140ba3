package autobk_test

import (
	"fmt"

	"github.com/cwbudde/algo-xafs/internal/testutil"
	"github.com/cwbudde/algo-xafs/xafs/autobk"
	"github.com/cwbudde/algo-xafs/xafs/core"
	"github.com/cwbudde/algo-xafs/xafs/kspace"
	"github.com/cwbudde/algo-xafs/xafs/normalize"
)

func ExampleNewSpline() {
	s, _ := autobk.NewSpline(0, 16, autobk.Knots(1, 0, 16))
	for j := range s.Coef {
		s.Coef[j] = 1
	}

	fmt.Printf("coefficients: %d, degree: %d\n", s.Len(), s.Degree)
	fmt.Printf("value: %.3f\n", s.Eval(7.3))

	// Output:
	// coefficients: 11, degree: 3
	// value: 1.000
}

func ExampleWorkspace_Fit() {
	cfg := core.ApplyOptions(core.WithRBkg(1), core.WithKWeight(2))

	norm, err := normalize.Normalize(testutil.XAFSSpectrum(testutil.DefaultXAFS()), cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	sig, err := kspace.Convert(norm, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	ws := autobk.NewWorkspace()
	res, err := ws.Fit(sig, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	d := res.Diagnostics
	fmt.Printf("knots: %d, grid: %d\n", d.Knots, len(res.Signal.Chi))
	fmt.Printf("converged: %v, improved: %v\n", d.Converged, d.FinalResidual < d.InitialResidual)

	// Output:
	// knots: 11, grid: 2048
	// converged: true, improved: true
}
