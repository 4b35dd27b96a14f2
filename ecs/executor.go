package ecs

import (
	"container/heap"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"
)

// ErrCancelled is returned from a suspension point once the executor has been
// cancelled. It is a control signal, not a failure.
var ErrCancelled = errors.New("ecs: task cancelled")

type taskState int

const (
	taskRunning taskState = iota
	taskPending
	taskParked
	taskDone
)

// Executor runs timed tasks cooperatively on a virtual monotonic clock.
//
// Every task body runs on its own goroutine, but control is handed over on
// unbuffered channels: the executor (or the task that started another task)
// blocks until the task suspends again. Exactly one body runs at any moment,
// so tasks may share the registry without locks as long as they only touch it
// between suspension points.
type Executor struct {
	now     time.Duration
	seq     uint64
	epoch   uint64
	pending taskQueue
	parked  []*Task
}

// NewExecutor creates an executor whose clock starts at zero.
func NewExecutor() *Executor {
	return &Executor{}
}

// Now returns the executor clock.
func (x *Executor) Now() time.Duration {
	return x.now
}

// Pending returns the number of suspended tasks.
func (x *Executor) Pending() int {
	return len(x.pending) + len(x.parked)
}

// Go starts fn as a new task and runs it until its first suspension point,
// so side effects before the first wait happen before Go returns.
func (x *Executor) Go(name string, fn func(t *Task) error) *Task {
	x.seq++
	t := &Task{
		exec:   x,
		name:   name,
		epoch:  x.epoch,
		seq:    x.seq,
		index:  -1,
		resume: make(chan bool),
		yield:  make(chan struct{}),
	}
	go t.run(fn)
	x.handoff(t, true)
	return t
}

// Advance moves the clock forward by dt, resuming every task whose deadline
// falls inside the window in (deadline, start order).
func (x *Executor) Advance(dt time.Duration) {
	target := x.now + dt
	for len(x.pending) > 0 {
		t := x.pending[0]
		if t.deadline > target {
			break
		}
		heap.Pop(&x.pending)
		if t.deadline > x.now {
			x.now = t.deadline
		}
		x.handoff(t, true)
	}
	x.now = target
}

// Wake pulls a pending task's deadline forward to now.
func (x *Executor) Wake(t *Task) {
	if t == nil || t.exec != x || t.state != taskPending || t.deadline <= x.now {
		return
	}
	t.deadline = x.now
	heap.Fix(&x.pending, t.index)
}

// Cancel ends every suspended task: each resumes once with ErrCancelled and
// is expected to return. Tasks started afterwards run normally. A task that is
// running while Cancel is called observes the cancellation at its next
// suspension point.
func (x *Executor) Cancel() int {
	x.epoch++
	victims := make([]*Task, 0, x.Pending())
	victims = append(victims, x.pending...)
	victims = append(victims, x.parked...)
	x.pending = x.pending[:0]
	x.parked = nil
	slices.SortFunc(victims, func(a, b *Task) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	for _, t := range victims {
		t.index = -1
		x.handoff(t, false)
	}
	return len(victims)
}

func (x *Executor) schedule(t *Task, deadline time.Duration) {
	t.deadline = deadline
	t.state = taskPending
	heap.Push(&x.pending, t)
}

func (x *Executor) unpark(t *Task) {
	if i := slices.Index(x.parked, t); i >= 0 {
		x.parked = slices.Delete(x.parked, i, i+1)
	}
}

func (x *Executor) handoff(t *Task, ok bool) {
	t.state = taskRunning
	t.resume <- ok
	<-t.yield
}

// Task is a suspendable unit of work on an Executor.
type Task struct {
	exec     *Executor
	name     string
	epoch    uint64
	seq      uint64
	deadline time.Duration
	index    int
	state    taskState
	err      error

	resume chan bool
	yield  chan struct{}
}

func (t *Task) run(fn func(t *Task) error) {
	defer func() {
		if r := recover(); r != nil {
			t.err = fmt.Errorf("panic: %v", r)
		}
		if t.err != nil && !errors.Is(t.err, ErrCancelled) {
			log.Printf("executor: task %s: %v", t.name, t.err)
		}
		t.state = taskDone
		t.yield <- struct{}{}
	}()

	if !<-t.resume {
		t.err = ErrCancelled
		return
	}
	t.err = fn(t)
}

// Name returns the task label.
func (t *Task) Name() string {
	return t.name
}

// Done reports whether the task body has returned.
func (t *Task) Done() bool {
	return t.state == taskDone
}

// Err returns the task result once Done.
func (t *Task) Err() error {
	return t.err
}

// Cancelled reports whether the executor was cancelled after this task
// started.
func (t *Task) Cancelled() bool {
	return t.epoch != t.exec.epoch
}

// Wait suspends the task for d of executor time.
func (t *Task) Wait(d time.Duration) error {
	if t.Cancelled() {
		return ErrCancelled
	}
	if d < 0 {
		d = 0
	}
	t.exec.schedule(t, t.exec.now+d)
	return t.suspend()
}

// Await suspends the task until f resolves.
func (t *Task) Await(f *Future) error {
	if t.Cancelled() {
		return ErrCancelled
	}
	if f == nil || f.resolved {
		return nil
	}
	f.waiters = append(f.waiters, t)
	t.state = taskParked
	t.exec.parked = append(t.exec.parked, t)
	return t.suspend()
}

func (t *Task) suspend() error {
	t.yield <- struct{}{}
	if !<-t.resume {
		return ErrCancelled
	}
	if t.Cancelled() {
		return ErrCancelled
	}
	return nil
}

// Future is a one-shot completion signal tasks can await.
type Future struct {
	exec     *Executor
	resolved bool
	waiters  []*Task
}

// NewFuture creates an unresolved future.
func (x *Executor) NewFuture() *Future {
	return &Future{exec: x}
}

// Resolve completes the future; waiting tasks resume at the current time.
// Resolving twice is a no-op.
func (f *Future) Resolve() {
	if f == nil || f.resolved {
		return
	}
	f.resolved = true
	for _, t := range f.waiters {
		if t.state != taskParked {
			continue
		}
		f.exec.unpark(t)
		f.exec.schedule(t, f.exec.now)
	}
	f.waiters = nil
}

// Resolved reports whether Resolve was called.
func (f *Future) Resolved() bool {
	return f != nil && f.resolved
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].deadline != q[j].deadline {
		return q[i].deadline < q[j].deadline
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*Task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
