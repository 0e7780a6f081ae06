package reconstruction

import (
	"github.com/pkg/errors"
)

const minQueueCapacity = 64

// voxel is a queued grid position
type voxel struct {
	x, y, z int32
}

// voxelQueue is a FIFO of voxel positions backed by a growable ring buffer
type voxelQueue struct {
	buf  []voxel
	head int
	n    int

	// limit bounds the queue length, 0 means unbounded
	limit int

	// peak is the largest length reached
	peak int
}

func newVoxelQueue(capacity, limit int) *voxelQueue {
	if capacity < minQueueCapacity {
		capacity = minQueueCapacity
	}
	if limit > 0 && capacity > limit {
		capacity = limit
	}
	return &voxelQueue{
		buf:   make([]voxel, capacity),
		limit: limit,
	}
}

func (q *voxelQueue) push(x, y, z int) error {
	if q.limit > 0 && q.n >= q.limit {
		return errors.Wrapf(ErrAllocation, "queue depth limit of %d voxels reached", q.limit)
	}
	if q.n == len(q.buf) {
		if err := q.grow(); err != nil {
			return err
		}
	}

	tail := q.head + q.n
	if tail >= len(q.buf) {
		tail -= len(q.buf)
	}
	q.buf[tail] = voxel{int32(x), int32(y), int32(z)}
	q.n++
	if q.n > q.peak {
		q.peak = q.n
	}
	return nil
}

// pop removes the oldest voxel. The queue must not be empty.
func (q *voxelQueue) pop() (x, y, z int) {
	v := q.buf[q.head]
	q.head++
	if q.head == len(q.buf) {
		q.head = 0
	}
	q.n--
	return int(v.x), int(v.y), int(v.z)
}

func (q *voxelQueue) empty() bool {
	return q.n == 0
}

func (q *voxelQueue) len() int {
	return q.n
}

// grow doubles the backing array, unrolling the ring so head is 0 again
func (q *voxelQueue) grow() (err error) {
	newCap := 2 * len(q.buf)
	if q.limit > 0 && newCap > q.limit {
		newCap = q.limit
	}

	defer func() {
		// make panics on sizes the runtime cannot represent
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrAllocation, "growing queue to %d voxels: %v", newCap, r)
		}
	}()

	buf := make([]voxel, newCap)
	n := copy(buf, q.buf[q.head:])
	copy(buf[n:], q.buf[:q.head])
	q.buf = buf
	q.head = 0
	return nil
}
