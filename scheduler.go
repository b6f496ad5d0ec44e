package kernel

import (
	"sync"
	"sync/atomic"
	"time"
)

// fifoChunk is one fixed-size link in a threadFIFO, pooled via
// chunkPool so steady-state scheduling does zero allocation once the
// pool has warmed up. Grounded on ingress.go's ChunkedIngress.
type fifoChunk struct {
	items      [32]*Thread
	start, cnt int
	next       *fifoChunk
}

var chunkPool = sync.Pool{New: func() any { return new(fifoChunk) }}

// threadFIFO is a priority level's ready queue: FIFO ordering among
// threads that share a priority, backed by pooled chunks instead of a
// slice to avoid the repeated copy a growing slice queue would incur.
type threadFIFO struct {
	head, tail *fifoChunk
	length     int
}

func (q *threadFIFO) push(t *Thread) {
	if q.tail == nil || q.tail.cnt == len(q.tail.items) {
		c := chunkPool.Get().(*fifoChunk)
		c.start, c.cnt, c.next = 0, 0, nil
		if q.tail != nil {
			q.tail.next = c
		} else {
			q.head = c
		}
		q.tail = c
	}
	c := q.tail
	c.items[(c.start+c.cnt)%len(c.items)] = t
	c.cnt++
	q.length++
}

func (q *threadFIFO) pop() *Thread {
	if q.head == nil {
		return nil
	}
	c := q.head
	t := c.items[c.start]
	c.items[c.start] = nil
	c.start = (c.start + 1) % len(c.items)
	c.cnt--
	q.length--
	if c.cnt == 0 {
		q.head = c.next
		if q.head == nil {
			q.tail = nil
		}
		*c = fifoChunk{}
		chunkPool.Put(c)
	}
	return t
}

func (q *threadFIFO) empty() bool { return q.length == 0 }

// sleepHeap orders threads by absolute wake deadline via
// container/heap, the sleep queue from §3. Threads also land here
// while blocked on a timed_wait/timed_lock budget; heap.Remove pulls
// one out early if it is woken by the event it was waiting for before
// its deadline.
type sleepHeap []*Thread

func (h sleepHeap) Len() int            { return len(h) }
func (h sleepHeap) Less(i, j int) bool  { return h[i].sleepDeadline < h[j].sleepDeadline }
func (h sleepHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}
func (h *sleepHeap) Push(x any) {
	t := x.(*Thread)
	t.heapIndex = len(*h)
	*h = append(*h, t)
}
func (h *sleepHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.heapIndex = -1
	*h = old[:n-1]
	return t
}

// Scheduler owns every GIL-protected kernel data structure: the
// priority ready queues, the sleep queue, and the thread table. It is
// generalized to N cores via the "core pump" realization (see DESIGN.md),
// each pump being a goroutine that repeatedly picks the
// highest-priority ready thread and grants it the run token.
type Scheduler struct {
	k *Kernel

	priorityLevels int
	numCores       int
	tickSlice      time.Duration

	ready    []*threadFIFO
	sleepQ   sleepHeap
	threads  map[ThreadID]*Thread

	cores []*coreState

	nextThreadID atomic.Uint64
	shutdown     atomic.Bool

	metrics *SchedulerMetrics
	clock   *Clock

	idleForbidCount atomic.Int32 // deep-sleep-forbidden refcount (§4.6)

	wakeCh chan struct{} // nudges idle core pumps when a thread becomes ready
}

type coreState struct {
	id      int
	running *Thread
	reqCh   chan coreRequest
}

// coreRequest is the "call on core" primitive from §4.10: a closure an
// arbitrary goroutine wants run on a specific core's pump, the
// goroutine equivalent of sending that core an inter-processor
// interrupt.
type coreRequest struct {
	fn   func()
	done chan struct{}
}

func newScheduler(k *Kernel, cfg *Config, clock *Clock) *Scheduler {
	s := &Scheduler{
		k:              k,
		priorityLevels: cfg.PriorityLevels,
		numCores:       cfg.NumCores,
		tickSlice:      cfg.TickSlice,
		threads:        make(map[ThreadID]*Thread),
		metrics:        newSchedulerMetrics(),
		clock:          clock,
		wakeCh:         make(chan struct{}, 1),
	}
	s.ready = make([]*threadFIFO, cfg.PriorityLevels)
	for i := range s.ready {
		s.ready[i] = &threadFIFO{}
	}
	s.cores = make([]*coreState, cfg.NumCores)
	for i := range s.cores {
		s.cores[i] = &coreState{id: i, reqCh: make(chan coreRequest, 4)}
	}
	return s
}

// enqueueReady places t on its priority level's FIFO and marks it
// Ready. Callers hold the GIL.
func (s *Scheduler) enqueueReady(t *Thread) {
	t.state.store(StateReady)
	t.readyStamp = s.clock.Now()
	p := clampPriority(t.effectivePriority(), s.priorityLevels)
	s.ready[p].push(t)
}

func clampPriority(p int32, levels int) int32 {
	if p < 0 {
		return 0
	}
	if int(p) >= levels {
		return int32(levels - 1)
	}
	return p
}

// pickNext removes and returns the highest-priority ready thread, or
// nil if every ready queue is empty. Callers hold the GIL.
func (s *Scheduler) pickNext() *Thread {
	for p := s.priorityLevels - 1; p >= 0; p-- {
		if !s.ready[p].empty() {
			return s.ready[p].pop()
		}
	}
	return nil
}

// wakeIdleCore nudges a parked idle pump; a buffered channel of size 1
// is enough since pumps re-check the ready queues on every wake, so
// coalesced wakeups never lose a thread.
func (s *Scheduler) wakeIdleCore() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// corePump is the per-core scheduling loop: lock the GIL, pick a
// thread, release the GIL, hand the thread its resume token, and wait
// for it to park (yield, block, sleep, or exit) before looping.
func (k *Kernel) corePump(coreID int) {
	registerCoreID(coreID)
	s := k.sched
	var timer *time.Timer
	for {
		s.drainRequests(coreID)

		k.gil.lock(coreID)
		if s.shutdown.Load() && s.allIdleLocked() {
			k.gil.unlock(coreID)
			return
		}
		t := s.pickNext()
		if t == nil {
			k.gil.unlock(coreID)
			s.idlePump(coreID)
			continue
		}
		waitStart := t.readyStamp
		t.state.store(StateRunning)
		t.core = int32(coreID)
		s.cores[coreID].running = t
		k.gil.unlock(coreID)

		runStart := s.clock.Now()
		s.metrics.observeLatency(runStart - waitStart)
		t.resumeCh <- struct{}{}

		if s.tickSlice > 0 {
			if timer == nil {
				timer = time.NewTimer(s.tickSlice)
			} else {
				timer.Reset(s.tickSlice)
			}
			select {
			case <-t.parkedCh:
				if !timer.Stop() {
					<-timer.C
				}
			case <-timer.C:
				t.preemptPending.Store(true)
				<-t.parkedCh
			}
		} else {
			<-t.parkedCh
		}

		ran := s.clock.Now() - runStart
		if k.cfg.CPUTimeAccounting {
			t.cpuTimeTotal.Add(int64(ran))
			t.recentRuns.push(int64(ran))
			s.metrics.observeCPUTime(ran)
		}

		k.gil.lock(coreID)
		s.cores[coreID].running = nil
		// only the core that ran the final run sees its own id in t.core
		exited := t.state.load() == StateDeleted && t.core == int32(coreID)
		k.gil.unlock(coreID)
		if exited {
			// released only now, so a joiner reads the final CPU time
			close(t.done)
		}
	}
}

// allIdleLocked reports whether no thread is ready or running, called
// with the GIL held.
func (s *Scheduler) allIdleLocked() bool {
	for _, q := range s.ready {
		if !q.empty() {
			return false
		}
	}
	for _, c := range s.cores {
		if c.running != nil {
			return false
		}
	}
	return true
}

// idlePump is what a core does when it finds nothing ready: call the
// configured IdleHook (if deep sleep isn't forbidden) and wait to be
// nudged, the Go stand-in for a real WFI/WFE instruction.
func (s *Scheduler) idlePump(coreID int) {
	if s.k.cfg.DeepSleepSupported && s.idleForbidCount.Load() == 0 && s.k.cfg.IdleHook != nil {
		s.k.cfg.IdleHook()
	}
	select {
	case <-s.wakeCh:
	case req := <-s.cores[coreID].reqCh:
		req.fn()
		close(req.done)
	case <-time.After(time.Millisecond):
	}
}

// drainRequests runs any pending CallOnCore closures without blocking.
func (s *Scheduler) drainRequests(coreID int) {
	for {
		select {
		case req := <-s.cores[coreID].reqCh:
			req.fn()
			close(req.done)
		default:
			return
		}
	}
}

// CallOnCore runs fn on coreID's pump goroutine and blocks until it
// completes, the goroutine stand-in for sending a specific core an
// inter-processor interrupt and waiting for it to be serviced (§4.10).
func (k *Kernel) CallOnCore(coreID int, fn func()) {
	if coreID < 0 || coreID >= len(k.sched.cores) {
		return
	}
	req := coreRequest{fn: fn, done: make(chan struct{})}
	k.sched.cores[coreID].reqCh <- req
	<-req.done
}

// exitThread tears down a finished thread: records its exit value,
// hands the core back (the pump then closes done, waking any joiner,
// after charging the final run's CPU time), and reclaims the thread table slot if
// it was already detached (nobody left to observe it). A thread that is
// neither detached nor yet joined stays in the table so TryJoin can
// still find and read it; TryJoin reclaims the slot itself once it has
// copied out the exit value.
func (s *Scheduler) exitThread(t *Thread, result any) {
	t.mu.Lock()
	t.exitValue = result
	t.mu.Unlock()

	coreID := int(currentCoreID())
	s.k.gil.lock(coreID)
	t.state.store(StateDeleted)
	if t.core >= 0 {
		s.cores[t.core].running = nil
	}
	if t.detached {
		delete(s.threads, t.id)
	}
	s.k.gil.unlock(coreID)

	t.parkedCh <- struct{}{}
}

// registerCoreID stores coreID under the calling goroutine's key so
// currentCoreID resolves instantly from any kernel code running on a
// core pump.
func registerCoreID(coreID int) {
	coreIDLocal.Store(currentGoroutineKey(), uint8(coreID))
}
