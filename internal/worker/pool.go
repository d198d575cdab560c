package worker

import (
	"context"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/nbody/internal/dynamo"
	"github.com/san-kum/nbody/internal/metrics"
	"github.com/san-kum/nbody/internal/physics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultDt is the timestep used when a job leaves Dt unset.
const DefaultDt = 0.01

type Kind int

const (
	Preview Kind = iota
	Final
)

func (k Kind) String() string {
	switch k {
	case Preview:
		return "preview"
	case Final:
		return "final"
	default:
		return "unknown"
	}
}

type Job struct {
	Steps   int
	Dt      float64
	Preview bool
	// RequireFinite turns a NaN or infinite final energy into a
	// *dynamo.ComputeError instead of reporting it as a value.
	RequireFinite bool
	// SampleEvery > 0 records energy samples and the default metrics into
	// the final event's Result.
	SampleEvery int
}

// Event is one report for a job. A final event carries Err or Energy,
// never both.
type Event struct {
	Kind   Kind
	Steps  int
	Energy float64
	Err    error
	// Result is set on successful final events.
	Result *dynamo.Result
}

type Pool struct {
	size   int
	sem    *semaphore.Weighted
	logger *log.Logger
	wg     sync.WaitGroup
	nextID atomic.Uint64
}

// New creates a pool running at most size jobs at once. A size below one
// means GOMAXPROCS. A nil logger discards output.
func New(size int, logger *log.Logger) *Pool {
	if size < 1 {
		size = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pool{
		size:   size,
		sem:    semaphore.NewWeighted(int64(size)),
		logger: logger,
	}
}

func (p *Pool) Size() int { return p.size }

// Submit schedules job and returns its event channel, which is closed after
// the final event. The preview, if requested, is already buffered when
// Submit returns.
func (p *Pool) Submit(job Job) <-chan Event {
	if job.Dt == 0 {
		job.Dt = DefaultDt
	}

	id := p.nextID.Add(1)
	logger := p.logger.With("job", id, "steps", job.Steps, "dt", job.Dt)
	events := make(chan Event, 2)

	if job.Preview {
		events <- Event{Kind: Preview, Energy: physics.NewSystem().Energy()}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(events)

		// Acquire only fails on context cancellation.
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)

		logger.Debug("job started")
		start := time.Now()
		ev := execute(job)
		if ev.Err != nil {
			logger.Warn("job failed", "err", ev.Err, "elapsed", time.Since(start))
		} else {
			logger.Debug("job finished", "energy", ev.Energy, "elapsed", time.Since(start))
		}
		events <- ev
	}()

	return events
}

// Wait blocks until every submitted job has delivered its final event.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// RunAll runs jobs concurrently and returns their final events in job
// order. Previews are not produced. The returned error is the first job
// error, if any; the events of the other jobs are still filled in.
func (p *Pool) RunAll(jobs []Job) ([]Event, error) {
	finals := make([]Event, len(jobs))

	var g errgroup.Group
	for i, job := range jobs {
		i := i
		job.Preview = false
		events := p.Submit(job)
		g.Go(func() error {
			for ev := range events {
				if ev.Kind == Final {
					finals[i] = ev
				}
			}
			return finals[i].Err
		})
	}

	err := g.Wait()
	p.logger.Info("batch finished", "jobs", len(jobs), "err", err)
	return finals, err
}

func execute(job Job) Event {
	sim := dynamo.New()
	if job.SampleEvery > 0 {
		for _, m := range metrics.Default() {
			sim.AddMetric(m)
		}
	}

	cfg := dynamo.Config{Steps: job.Steps, Dt: job.Dt, SampleEvery: job.SampleEvery}
	res, err := sim.Run(physics.NewSystem(), cfg)
	if err != nil {
		return Event{Kind: Final, Steps: job.Steps, Err: err}
	}
	if job.RequireFinite {
		if err := dynamo.CheckFinite(res.StepsTaken, res.FinalEnergy); err != nil {
			return Event{Kind: Final, Steps: res.StepsTaken, Err: err}
		}
	}
	return Event{Kind: Final, Steps: res.StepsTaken, Energy: res.FinalEnergy, Result: res}
}

// RunSimulation advances a fresh system count times by dt and returns its
// energy. It never fails; a degenerate run yields a non-finite value.
func RunSimulation(count int, dt float64) float64 {
	sys := physics.NewSystem()
	for i := 0; i < count; i++ {
		sys.Advance(dt)
	}
	return sys.Energy()
}
