package kernel

// waitList is the intrusive FIFO wait list backing Mutex, CondVar, and
// Semaphore blocked-thread queues (§3 "Wait list"). Threads link
// through their own waitNext field rather than a separate container
// node, avoiding an allocation per block/wake the way a real kernel's
// intrusive linked list does.
type waitList struct {
	head, tail *Thread
	length     int
}

// pushBack appends t to the tail of the list. Callers hold the GIL.
func (w *waitList) pushBack(t *Thread) {
	t.waitNext = nil
	if w.tail == nil {
		w.head, w.tail = t, t
	} else {
		w.tail.waitNext = t
		w.tail = t
	}
	w.length++
}

// popFront removes and returns the highest-priority thread in the
// list, breaking ties FIFO. A real kernel with O(1) priority-indexed
// wait lists would avoid the linear scan; this list is expected to
// stay short (contention depth), so a scan trades simplicity for a
// negligible cost.
func (w *waitList) popFront() *Thread {
	if w.head == nil {
		return nil
	}
	var prevBest, best *Thread
	bestPriority := int32(-1)
	for cur, curPrev := w.head, (*Thread)(nil); cur != nil; curPrev, cur = cur, cur.waitNext {
		if cur.effectivePriority() > bestPriority {
			bestPriority = cur.effectivePriority()
			best = cur
			prevBest = curPrev
		}
	}
	w.remove(best, prevBest)
	return best
}

// remove unlinks node, given its predecessor (nil if node is the head).
func (w *waitList) remove(node, prev *Thread) {
	if node == nil {
		return
	}
	if prev == nil {
		w.head = node.waitNext
	} else {
		prev.waitNext = node.waitNext
	}
	if node == w.tail {
		w.tail = prev
	}
	node.waitNext = nil
	w.length--
}

// removeThread unlinks t wherever it sits in the list (used by
// timed_wait timeout paths, where the thread must be pulled out of a
// wait list it did not reach the front of).
func (w *waitList) removeThread(t *Thread) bool {
	var prev *Thread
	for cur := w.head; cur != nil; cur = cur.waitNext {
		if cur == t {
			w.remove(cur, prev)
			return true
		}
		prev = cur
	}
	return false
}

// empty reports whether the wait list has no blocked threads.
func (w *waitList) empty() bool { return w.head == nil }

// len reports the number of blocked threads.
func (w *waitList) len() int { return w.length }
