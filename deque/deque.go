/**
 *
 * 双端队列，保存最近若干个时间步的热量收支
 * 宿主模型每步从尾部加入一条记录，队列满时覆盖最旧的记录
 *
 */

package deque

import "frazil/model"

type Deque interface {
	// 队列的长度
	Size() int

	// 获取队列中对应下标的记录，0 为最旧
	Get(i int) model.Budget

	// 正向遍历
	Traverse(f func(i int, b *model.Budget))

	// 遍历 [start, end)
	TraverseRange(start, end int, f func(i int, b *model.Budget))

	// 在队列结尾增加一个元素
	AddLast(b model.Budget)

	IsFull() bool

	IsEmpty() bool
}
