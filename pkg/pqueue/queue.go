package pqueue

func WithOrderAsc() Option {
	return func(q *options) {
		q.order = orderAsc
	}
}

func WithOrderDesc() Option {
	return func(q *options) {
		q.order = orderDesc
	}
}

// WithCap bounds the queue. A full queue evicts its head when a pushed entry
// would pop after it, and drops the pushed entry otherwise, so a desc-ordered
// queue capped at k keeps the k lowest priorities seen.
func WithCap(size uint) Option {
	return func(q *options) {
		q.cap = int(size)
	}
}

type Option func(*options)

type options struct {
	order order
	cap   int
}

type order uint8

const (
	orderAsc order = iota
	orderDesc
)

type item[T any] struct {
	value T
	prior float64
}

func New[T any](opts ...Option) *Queue[T] {
	o := options{order: orderAsc, cap: -1}
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue[T]{order: o.order, cap: o.cap}
}

// Queue is a binary heap keyed by a float64 priority. Head pops the lowest
// priority for asc order and the highest for desc order.
type Queue[T any] struct {
	order order
	cap   int
	items []item[T]
}

func (q *Queue[T]) Push(val T, priority float64) bool {
	if q.cap == 0 {
		return false
	}
	if q.cap > 0 && len(q.items) >= q.cap {
		if !q.before(q.items[0].prior, priority) {
			return false
		}
		q.items[0] = item[T]{value: val, prior: priority}
		q.down(0)
		return true
	}
	q.items = append(q.items, item[T]{value: val, prior: priority})
	q.up(len(q.items) - 1)
	return true
}

// Head removes and returns the entry at the front of the queue.
func (q *Queue[T]) Head() (T, float64, bool) {
	var zero T
	n := len(q.items) - 1
	if n < 0 {
		return zero, 0, false
	}
	x := q.items[0]
	q.items[0] = q.items[n]
	q.items[n] = item[T]{}
	q.items = q.items[:n]
	if n > 0 {
		q.down(0)
	}
	return x.value, x.prior, true
}

// Peek returns the front entry without removing it.
func (q *Queue[T]) Peek() (T, float64, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, 0, false
	}
	return q.items[0].value, q.items[0].prior, true
}

// PopAll drains the queue in pop order.
func (q *Queue[T]) PopAll() []T {
	pulled := make([]T, 0, len(q.items))
	for len(q.items) > 0 {
		v, _, _ := q.Head()
		pulled = append(pulled, v)
	}
	return pulled
}

func (q *Queue[T]) Cap() int { return q.cap }

func (q *Queue[T]) Len() int { return len(q.items) }

// Full reports whether a capped queue holds cap entries.
func (q *Queue[T]) Full() bool { return q.cap >= 0 && len(q.items) >= q.cap }

// before reports whether priority a pops ahead of priority b.
func (q *Queue[T]) before(a, b float64) bool {
	if q.order == orderAsc {
		return a < b
	}
	return a > b
}

func (q *Queue[T]) less(i, j int) bool {
	return q.before(q.items[i].prior, q.items[j].prior)
}

func (q *Queue[T]) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !q.less(j, i) {
			break
		}
		q.items[i], q.items[j] = q.items[j], q.items[i]
		j = i
	}
}

func (q *Queue[T]) down(i int) {
	n := len(q.items)
	for {
		j := 2*i + 1
		if j >= n || j < 0 {
			break
		}
		if r := j + 1; r < n && q.less(r, j) {
			j = r
		}
		if !q.less(j, i) {
			break
		}
		q.items[i], q.items[j] = q.items[j], q.items[i]
		i = j
	}
}
