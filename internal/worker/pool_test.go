package worker_test

import (
	"bytes"
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbody/internal/dynamo"
	"github.com/san-kum/nbody/internal/physics"
	"github.com/san-kum/nbody/internal/worker"
)

func drain(events <-chan worker.Event) []worker.Event {
	var out []worker.Event
	Eventually(func() bool {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return true
				}
				out = append(out, ev)
			default:
				return false
			}
		}
	}).WithTimeout(10 * time.Second).Should(BeTrue())
	return out
}

var _ = Describe("Pool", func() {
	var pool *worker.Pool

	BeforeEach(func() {
		pool = worker.New(2, nil)
	})

	AfterEach(func() {
		pool.Wait()
	})

	Describe("Submit", func() {
		It("reports exactly one final event and then closes the channel", func() {
			events := drain(pool.Submit(worker.Job{Steps: 1000, Dt: 0.01}))

			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(worker.Final))
			Expect(events[0].Err).NotTo(HaveOccurred())
			Expect(events[0].Steps).To(Equal(1000))
			Expect(events[0].Energy).To(BeNumerically("~", -0.169087605, 1e-9))
		})

		It("buffers the preview before returning", func() {
			events := pool.Submit(worker.Job{Steps: 1000, Preview: true})

			var first worker.Event
			Expect(events).To(Receive(&first))
			Expect(first.Kind).To(Equal(worker.Preview))
			Expect(first.Energy).To(Equal(physics.NewSystem().Energy()))

			rest := drain(events)
			Expect(rest).To(HaveLen(1))
			Expect(rest[0].Kind).To(Equal(worker.Final))
			Expect(rest[0].Energy).NotTo(Equal(first.Energy))
		})

		It("defaults dt to 0.01", func() {
			events := drain(pool.Submit(worker.Job{Steps: 50}))

			Expect(events).To(HaveLen(1))
			Expect(events[0].Energy).To(Equal(worker.RunSimulation(50, 0.01)))
		})

		It("reports the initial energy for zero steps", func() {
			events := drain(pool.Submit(worker.Job{Steps: 0, Preview: true}))

			Expect(events).To(HaveLen(2))
			Expect(events[1].Energy).To(Equal(events[0].Energy))
		})

		It("fails negative step counts with an error and no energy", func() {
			events := drain(pool.Submit(worker.Job{Steps: -1}))

			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(worker.Final))
			Expect(errors.Is(events[0].Err, dynamo.ErrInvalidConfig)).To(BeTrue())
			Expect(events[0].Energy).To(BeZero())
		})

		It("reports non-finite energy as a value unless RequireFinite is set", func() {
			lenient := drain(pool.Submit(worker.Job{Steps: 2, Dt: math.Inf(1)}))
			Expect(lenient).To(HaveLen(1))
			Expect(lenient[0].Err).NotTo(HaveOccurred())
			Expect(math.IsNaN(lenient[0].Energy) || math.IsInf(lenient[0].Energy, 0)).To(BeTrue())

			strict := drain(pool.Submit(worker.Job{Steps: 2, Dt: math.Inf(1), RequireFinite: true}))
			Expect(strict).To(HaveLen(1))
			var ce *dynamo.ComputeError
			Expect(errors.As(strict[0].Err, &ce)).To(BeTrue())
			Expect(ce.Steps).To(Equal(2))
			Expect(strict[0].Energy).To(BeZero())
		})

		It("attaches samples and metrics when sampling", func() {
			events := drain(pool.Submit(worker.Job{Steps: 100, SampleEvery: 10}))

			Expect(events).To(HaveLen(1))
			res := events[0].Result
			Expect(res).NotTo(BeNil())
			Expect(res.Samples).To(HaveLen(11))
			Expect(res.Metrics).To(HaveKey("energy_drift"))
			Expect(res.Metrics).To(HaveKey("momentum"))
			Expect(res.FinalEnergy).To(Equal(events[0].Energy))
		})

		It("runs jobs on independent systems", func() {
			a := pool.Submit(worker.Job{Steps: 300})
			b := pool.Submit(worker.Job{Steps: 300})
			c := pool.Submit(worker.Job{Steps: 300})

			ea, eb, ec := drain(a), drain(b), drain(c)
			Expect(ea[0].Energy).To(Equal(eb[0].Energy))
			Expect(eb[0].Energy).To(Equal(ec[0].Energy))
		})

		It("logs job lifecycle at debug level", func() {
			var buf bytes.Buffer
			logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
			p := worker.New(1, logger)

			drain(p.Submit(worker.Job{Steps: 10}))
			p.Wait()

			Expect(buf.String()).To(ContainSubstring("job finished"))
		})
	})

	Describe("RunAll", func() {
		It("returns final events in job order", func() {
			jobs := []worker.Job{
				{Steps: 100, Dt: 0.01},
				{Steps: 0, Dt: 0.01},
				{Steps: 1000, Dt: 0.01, Preview: true},
			}

			events, err := pool.RunAll(jobs)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(3))

			for i, ev := range events {
				Expect(ev.Kind).To(Equal(worker.Final))
				Expect(ev.Steps).To(Equal(jobs[i].Steps))
			}
			Expect(events[1].Energy).To(BeNumerically("~", -0.169075164, 1e-9))
			Expect(events[2].Energy).To(BeNumerically("~", -0.169087605, 1e-9))
		})

		It("returns the first failure", func() {
			events, err := pool.RunAll([]worker.Job{{Steps: 10}, {Steps: -3}})

			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
			Expect(events[0].Err).NotTo(HaveOccurred())
			Expect(events[1].Err).To(HaveOccurred())
		})
	})
})

var _ = Describe("RunSimulation", func() {
	It("matches the published reference energy", func() {
		Expect(worker.RunSimulation(1000, 0.01)).To(BeNumerically("~", -0.169087605, 1e-9))
	})

	It("is deterministic", func() {
		Expect(worker.RunSimulation(200, 0.01)).To(Equal(worker.RunSimulation(200, 0.01)))
	})

	It("stays finite for the canonical system", func() {
		e := worker.RunSimulation(5000, 0.01)
		Expect(math.IsNaN(e) || math.IsInf(e, 0)).To(BeFalse())
	})
})
