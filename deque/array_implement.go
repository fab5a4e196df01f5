package deque

import (
	"frazil/model"
)

// 利用环形数组实现，容量固定
// 队列满时 AddLast 覆盖最旧的元素
type ArrDeque struct {
	arr []model.Budget

	// 头部元素的下标
	start int
	// 元素个数
	size int
	// 容量
	capacity int
}

// 工厂方法
func NewArrDeque(capacity int) *ArrDeque {
	if capacity < 1 {
		capacity = 1
	}
	return &ArrDeque{
		arr:      make([]model.Budget, capacity),
		capacity: capacity,
	}
}

func (ad *ArrDeque) index(i int) int {
	return (ad.start + i) % ad.capacity
}

func (ad *ArrDeque) Size() int {
	return ad.size
}

func (ad *ArrDeque) Capacity() int {
	return ad.capacity
}

func (ad *ArrDeque) Get(i int) model.Budget {
	if i < 0 || i >= ad.size {
		panic("index out of length")
	}
	return ad.arr[ad.index(i)]
}

func (ad *ArrDeque) Traverse(f func(i int, b *model.Budget)) {
	ad.TraverseRange(0, ad.size, f)
}

func (ad *ArrDeque) TraverseRange(start, end int, f func(i int, b *model.Budget)) {
	if start < 0 {
		start = 0
	}
	if end > ad.size {
		end = ad.size
	}
	for i := start; i < end; i++ {
		f(i, &ad.arr[ad.index(i)])
	}
}

func (ad *ArrDeque) AddLast(b model.Budget) {
	if ad.IsFull() { // 丢弃最旧的
		ad.arr[ad.start] = b
		ad.start = ad.index(1)
		return
	}
	ad.arr[ad.index(ad.size)] = b
	ad.size++
}

func (ad *ArrDeque) IsFull() bool {
	return ad.size == ad.capacity
}

func (ad *ArrDeque) IsEmpty() bool {
	return ad.size == 0
}
