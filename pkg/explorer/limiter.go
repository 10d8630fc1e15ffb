package explorer

import (
	"container/heap"
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Limiter runs at most one request at a time, starting them no more often
// than once per interval. Queued requests are served by ascending priority,
// in submission order for equal priorities.
type Limiter struct {
	pace ratelimit.Limiter

	lock    sync.Mutex
	queue   jobQueue
	seq     uint64
	stopped bool

	wake     chan struct{}
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLimiter starts a limiter. A non positive interval disables pacing but
// still serializes requests.
func NewLimiter(interval time.Duration) *Limiter {
	pace := ratelimit.NewUnlimited()
	if interval > 0 {
		pace = ratelimit.New(1, ratelimit.Per(interval), ratelimit.WithoutSlack)
	}

	l := &Limiter{
		pace:  pace,
		queue: make(jobQueue, 0),
		wake:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

// Do queues fn and waits for its outcome. If ctx is done before fn starts,
// fn is dropped from the queue.
func (l *Limiter) Do(
	ctx context.Context, priority int, fn func(context.Context) error,
) error {
	l.lock.Lock()
	if l.stopped {
		l.lock.Unlock()
		return ErrLimiterStopped
	}
	l.seq++
	j := &job{
		ctx:      ctx,
		priority: priority,
		seq:      l.seq,
		fn:       fn,
		done:     make(chan error, 1),
	}
	heap.Push(&l.queue, j)
	l.lock.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		l.remove(j)
		return ctx.Err()
	}
}

// Pending returns the number of queued requests.
func (l *Limiter) Pending() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.queue)
}

// Stop fails every queued request with ErrLimiterStopped and waits for the
// in-flight one to complete. Calling it more than once is safe.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		l.lock.Lock()
		l.stopped = true
		pending := l.queue
		l.queue = make(jobQueue, 0)
		l.lock.Unlock()

		for _, j := range pending {
			j.done <- ErrLimiterStopped
		}
		if len(pending) > 0 {
			log.WithField("jobs", len(pending)).Debug("limiter stopped with pending requests")
		}

		close(l.quit)
		l.wg.Wait()
	})
}

func (l *Limiter) run() {
	defer l.wg.Done()

	for {
		select {
		case <-l.quit:
			return
		case <-l.wake:
		}

		for j := l.next(); j != nil; j = l.next() {
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			l.pace.Take()
			j.done <- j.fn(j.ctx)
		}
	}
}

func (l *Limiter) next() *job {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.stopped || len(l.queue) <= 0 {
		return nil
	}
	return heap.Pop(&l.queue).(*job)
}

func (l *Limiter) remove(j *job) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if j.index >= 0 && j.index < len(l.queue) && l.queue[j.index] == j {
		heap.Remove(&l.queue, j.index)
	}
}

// Schedule runs fn through the limiter and returns its result.
func Schedule[T any](
	ctx context.Context,
	l *Limiter,
	priority int,
	fn func(context.Context) (T, error),
) (T, error) {
	var out T
	err := l.Do(ctx, priority, func(ctx context.Context) error {
		res, err := fn(ctx)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

type job struct {
	ctx      context.Context
	priority int
	seq      uint64
	fn       func(context.Context) error
	done     chan error
	index    int
}

type jobQueue []*job

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q jobQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *jobQueue) Push(x interface{}) {
	j := x.(*job)
	j.index = len(*q)
	*q = append(*q, j)
}

func (q *jobQueue) Pop() interface{} {
	old := *q
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*q = old[:n-1]
	return j
}
