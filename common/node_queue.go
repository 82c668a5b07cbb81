package common

import "container/heap"

type NodeQueueIndex interface {
	SetIndex(index int)
	GetIndex() int
}

type NodeQueue[T NodeQueueIndex] interface {
	Peek() T  //查看堆顶，不会移除元素
	Poll() T  //从堆顶弹出一个元素
	Update(T) //更新元素
	Remove(T) //移除一个元素
	Offer(T)  //插入一个元素
	Contains(T) bool
	Reset()
	Empty() bool
	Len() int
}

// 优先级队列
type nodeQueue[T NodeQueueIndex] struct {
	data []T
	less func(t1, t2 T) bool
}

func NewNodeQueue[T NodeQueueIndex](less func(t1, t2 T) bool) NodeQueue[T] {
	q := &nodeQueue[T]{less: less}
	heap.Init(q)
	return q
}

func (q *nodeQueue[T]) Reset() {
	for _, v := range q.data {
		v.SetIndex(-1)
	}
	q.data = q.data[:0]
}

// 查看堆顶
func (q *nodeQueue[T]) Peek() T {
	return q.data[0]
}

func (q *nodeQueue[T]) Poll() T {
	return heap.Pop(q).(T)
}

func (q *nodeQueue[T]) Update(value T) {
	heap.Fix(q, value.GetIndex())
}

func (q *nodeQueue[T]) Remove(value T) {
	heap.Remove(q, value.GetIndex())
}

func (q *nodeQueue[T]) Offer(value T) {
	heap.Push(q, value)
}

// Contains reports whether value currently sits in this queue.
func (q *nodeQueue[T]) Contains(value T) bool {
	i := value.GetIndex()
	return i >= 0 && i < len(q.data) && any(q.data[i]) == any(value)
}

func (q *nodeQueue[T]) Push(x any) {
	v := x.(T)
	v.SetIndex(len(q.data))
	q.data = append(q.data, v)
}

func (q *nodeQueue[T]) Pop() any {
	n := len(q.data)
	res := q.data[n-1]
	var zero T
	q.data[n-1] = zero
	q.data = q.data[:n-1]
	res.SetIndex(-1)
	return res
}

func (q *nodeQueue[T]) Len() int {
	return len(q.data)
}

func (q *nodeQueue[T]) Empty() bool {
	return q.Len() == 0
}

func (q *nodeQueue[T]) Less(i, j int) bool { return q.less(q.data[i], q.data[j]) }

func (q *nodeQueue[T]) Swap(i, j int) {
	q.data[i], q.data[j] = q.data[j], q.data[i]
	q.data[i].SetIndex(i)
	q.data[j].SetIndex(j)
}
