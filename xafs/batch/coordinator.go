package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-xafs/xafs/autobk"
	"github.com/cwbudde/algo-xafs/xafs/core"
	"github.com/cwbudde/algo-xafs/xafs/xafserr"
)

// Coordinator runs the reduction pipeline over many spectra on a fixed pool
// of workers. Each worker owns one autobk.Workspace for its lifetime.
type Coordinator struct {
	workers int
	logger  zerolog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithWorkers sets the pool size. Non-positive values are ignored.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger for per-spectrum events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// New returns a Coordinator with runtime.GOMAXPROCS(0) workers and no
// logging unless configured otherwise.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		workers: runtime.GOMAXPROCS(0),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = c.logger.With().Str("component", "batch").Logger()
	return c
}

// Workers returns the pool size.
func (c *Coordinator) Workers() int { return c.workers }

// Run processes spectra with a shared configuration. See [Coordinator.RunJobs].
func (c *Coordinator) Run(ctx context.Context, spectra []core.Spectrum, cfg core.Config) []Outcome {
	jobs := make([]Job, len(spectra))
	for i, spec := range spectra {
		jobs[i] = Job{Spectrum: spec, Config: cfg}
	}
	return c.RunJobs(ctx, jobs)
}

// RunJobs processes every job and returns one Outcome per job, in input
// order. A failing job never affects the others. Cancellation is checked
// between spectra: jobs not started when ctx is done carry ctx.Err().
func (c *Coordinator) RunJobs(ctx context.Context, jobs []Job) []Outcome {
	out := make([]Outcome, len(jobs))
	for i, job := range jobs {
		out[i] = Outcome{Index: i, Name: job.Spectrum.Name}
	}
	if len(jobs) == 0 {
		return out
	}

	workers := min(c.workers, len(jobs))
	c.logger.Info().Int("spectra", len(jobs)).Int("workers", workers).Msg("batch started")

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			ws := autobk.NewWorkspace()
			log := c.logger.With().Int("worker", worker).Logger()
			for i := range indices {
				if err := ctx.Err(); err != nil {
					out[i].Err = err
					continue
				}
				c.runOne(ws, log, &out[i], jobs[i])
			}
		}(w)
	}

	dispatched := 0
feed:
	for i := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case indices <- i:
			dispatched = i + 1
		}
	}
	close(indices)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := dispatched; i < len(jobs); i++ {
			out[i].Err = err
		}
	}

	r := Summary(out)
	c.logger.Info().
		Int("succeeded", r.Succeeded).
		Int("unconverged", r.Unconverged).
		Int("failed", r.Failed).
		Int("canceled", r.Canceled).
		Msg("batch finished")

	return out
}

func (c *Coordinator) runOne(ws *autobk.Workspace, log zerolog.Logger, slot *Outcome, job Job) {
	slot.Fingerprint = Fingerprint(job.Spectrum)
	slot.Result, slot.Err = safeProcess(ws, job.Spectrum, job.Config)

	ev := log.With().
		Int("index", slot.Index).
		Str("name", slot.Name).
		Uint64("fingerprint", slot.Fingerprint).
		Logger()

	switch {
	case slot.Err == nil:
		d := slot.Result.Diagnostics
		ev.Info().
			Int("iterations", d.Iterations).
			Float64("residual", d.FinalResidual).
			Str("stop", d.Stop.String()).
			Msg("spectrum reduced")
	case slot.Recoverable():
		d := slot.Result.Diagnostics
		ev.Warn().
			Err(slot.Err).
			Int("iterations", d.Iterations).
			Float64("residual", d.FinalResidual).
			Msg("background fit did not converge")
	default:
		ev.Error().
			Err(slot.Err).
			Str("stage", stageOf(slot.Err)).
			Str("kind", xafserr.KindOf(slot.Err).String()).
			Msg("spectrum failed")
	}
}

// safeProcess runs process and turns a panic into an Internal MathError.
// The workspace is reset since the panic may have left it half built.
func safeProcess(ws *autobk.Workspace, spec core.Spectrum, cfg core.Config) (res *autobk.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ws != nil {
				*ws = *autobk.NewWorkspace()
			}
			res = nil
			err = xafserr.From(&xafserr.MathError{
				Reason: xafserr.Internal,
				Op:     "batch.process",
				Detail: fmt.Sprintf("recovered panic: %v", r),
			})
		}
	}()
	return process(ws, spec, cfg)
}

func stageOf(err error) string {
	var xe *xafserr.Error
	if errors.As(err, &xe) {
		return xe.Stage
	}
	return ""
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
