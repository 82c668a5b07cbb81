package detour_crowd

import (
	"github.com/gorustyt/planarnav/common"
	"github.com/gorustyt/planarnav/detour"
)

type DtPathQueueRef int

const DT_PATHQ_INVALID DtPathQueueRef = 0

// PathQuerier answers point to point path queries. *detour.NavMesh implements it.
type PathQuerier interface {
	FindPath(start, end common.Vec2) ([]common.Vec2, detour.DtStatus)
}

type PathQuery struct {
	ref DtPathQueueRef
	/// Path find start and end location.
	startPos, endPos common.Vec2
	/// Result.
	path []common.Vec2
	/// State.
	status    detour.DtStatus
	keepAlive int
}

// DtPathQueue holds a fixed number of pending path requests and serves at
// most a budget of them per Update.
type DtPathQueue struct {
	m_queue      []PathQuery
	m_nextHandle DtPathQueueRef
	m_queueHead  int
	m_navquery   PathQuerier
}

func NewDtPathQueue(size int, nav PathQuerier) *DtPathQueue {
	return &DtPathQueue{
		m_queue:      make([]PathQuery, max(size, 1)),
		m_nextHandle: 1,
		m_navquery:   nav,
	}
}

func (d *DtPathQueue) GetNavQuery() PathQuerier { return d.m_navquery }

func (d *DtPathQueue) SetNavQuery(nav PathQuerier) { d.m_navquery = nav }

// Update runs up to maxRequests pending queries.
func (d *DtPathQueue) Update(maxRequests int) {
	const MAX_KEEP_ALIVE = 2 // in update ticks.
	n := len(d.m_queue)
	for i := 0; i < n; i++ {
		q := &d.m_queue[d.m_queueHead%n]

		// Skip inactive requests.
		if q.ref == DT_PATHQ_INVALID {
			d.m_queueHead++
			continue
		}

		// Handle completed request.
		if q.status != 0 {
			// If the path result has not been read in few frames, free the slot.
			q.keepAlive++
			if q.keepAlive > MAX_KEEP_ALIVE {
				*q = PathQuery{}
			}
			d.m_queueHead++
			continue
		}

		if maxRequests <= 0 {
			break
		}
		if d.m_navquery == nil {
			q.path, q.status = []common.Vec2{q.startPos, q.endPos}, detour.DT_FAILURE|detour.DT_NO_MESH
		} else {
			q.path, q.status = d.m_navquery.FindPath(q.startPos, q.endPos)
		}
		maxRequests--
		d.m_queueHead++
	}
}

// Request queues a query and returns its handle, or DT_PATHQ_INVALID when the
// queue is full.
func (d *DtPathQueue) Request(startPos, endPos common.Vec2) DtPathQueueRef {
	// Find empty slot
	slot := -1
	for i := range d.m_queue {
		if d.m_queue[i].ref == DT_PATHQ_INVALID {
			slot = i
			break
		}
	}
	// Could not find slot.
	if slot == -1 {
		return DT_PATHQ_INVALID
	}

	ref := d.m_nextHandle
	d.m_nextHandle++
	if d.m_nextHandle == DT_PATHQ_INVALID {
		d.m_nextHandle++
	}
	d.m_queue[slot] = PathQuery{ref: ref, startPos: startPos, endPos: endPos}
	return ref
}

// GetRequestStatus is zero while the request is pending and DT_FAILURE for
// unknown handles.
func (d *DtPathQueue) GetRequestStatus(ref DtPathQueueRef) detour.DtStatus {
	for i := range d.m_queue {
		if d.m_queue[i].ref == ref {
			return d.m_queue[i].status
		}
	}
	return detour.DT_FAILURE
}

// GetPathResult hands over a finished path and frees the slot.
func (d *DtPathQueue) GetPathResult(ref DtPathQueueRef) ([]common.Vec2, detour.DtStatus) {
	for i := range d.m_queue {
		q := &d.m_queue[i]
		if q.ref != ref || q.status == 0 {
			continue
		}
		path, status := q.path, q.status
		// Free request for reuse.
		*q = PathQuery{}
		return path, status
	}
	return nil, detour.DT_FAILURE
}

// Cancel drops a request whatever its state.
func (d *DtPathQueue) Cancel(ref DtPathQueueRef) {
	for i := range d.m_queue {
		if d.m_queue[i].ref == ref {
			d.m_queue[i] = PathQuery{}
			return
		}
	}
}
