// Package batch runs the full reduction pipeline, normalization, k-space
// conversion and AUTOBK, over many spectra.
//
// [Process] reduces a single spectrum. A [Coordinator] fans a slice of
// spectra out to a fixed pool of workers; each worker owns one
// autobk.Workspace and reuses it for every spectrum it takes. Outcomes are
// written into slots indexed like the input, so the returned slice always
// has the input's length and order, and a failing spectrum only ever
// affects its own slot.
//
// Errors are converted to *xafserr.Error at the stage boundary and carry the
// stage name. A background fit that ran out of iterations is reported with
// both its best Result and a recoverable error.
//
// # Usage
//
//	c := batch.New(batch.WithWorkers(8), batch.WithLogger(logger))
//	outcomes := c.Run(ctx, spectra, core.DefaultConfig())
//	for _, o := range outcomes {
//		if o.OK() {
//			use(o.Result.Signal.Chi)
//		}
//	}
//	report := batch.Summary(outcomes)
package batch
