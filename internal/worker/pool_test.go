package worker_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/recurrent-payments/internal/worker"
)

func TestWorker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Worker Pool Suite")
}

var _ = Describe("Pool", func() {
	var (
		pool *worker.Pool
		ctx  context.Context
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		pool = worker.NewPool(worker.Config{MaxWorkers: 3, JobQueueSize: 2, UnitTimeout: 200 * time.Millisecond}, logger)
		ctx = context.Background()
	})

	AfterEach(func() {
		pool.Shutdown()
	})

	It("should run every job of a batch", func() {
		// Given
		var ran int32
		jobs := make([]worker.Job, 10)
		for i := range jobs {
			jobs[i] = worker.Job{Name: "count", Run: func(ctx context.Context) error {
				atomic.AddInt32(&ran, 1)
				return nil
			}}
		}

		// When
		result := pool.RunBatch(ctx, jobs)

		// Then
		Expect(result.Total).To(Equal(10))
		Expect(result.Failed).To(Equal(0))
		Expect(atomic.LoadInt32(&ran)).To(Equal(int32(10)))
	})

	It("should keep running siblings when a job fails or panics", func() {
		// Given
		var ran int32
		ok := func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}
		jobs := []worker.Job{
			{Name: "ok-1", Run: ok},
			{Name: "boom", Run: func(ctx context.Context) error { return errors.New("boom") }},
			{Name: "panic", Run: func(ctx context.Context) error { panic("unexpected") }},
			{Name: "ok-2", Run: ok},
		}

		// When
		result := pool.RunBatch(ctx, jobs)

		// Then
		Expect(result.Failed).To(Equal(2))
		Expect(result.Succeeded()).To(Equal(2))
		Expect(atomic.LoadInt32(&ran)).To(Equal(int32(2)))
	})

	It("should bound each job with the unit timeout", func() {
		// Given
		jobs := []worker.Job{{Name: "hung", Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}}}

		// When
		start := time.Now()
		result := pool.RunBatch(ctx, jobs)

		// Then
		Expect(result.Failed).To(Equal(1))
		Expect(errors.Is(result.Errors[0], context.DeadlineExceeded)).To(BeTrue())
		Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
	})

	It("should never run more jobs at once than workers", func() {
		// Given
		var current, peak int32
		jobs := make([]worker.Job, 9)
		for i := range jobs {
			jobs[i] = worker.Job{Name: "slow", Run: func(ctx context.Context) error {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return nil
			}}
		}

		// When
		pool.RunBatch(ctx, jobs)

		// Then
		Expect(atomic.LoadInt32(&peak)).To(BeNumerically("<=", 3))
	})

	It("should reject work after shutdown", func() {
		// Given
		pool.Shutdown()

		// When
		result := pool.RunBatch(ctx, []worker.Job{{Name: "late", Run: func(ctx context.Context) error { return nil }}})

		// Then
		Expect(result.Failed).To(Equal(1))
		Expect(errors.Is(result.Errors[0], worker.ErrPoolClosed)).To(BeTrue())
	})
})
