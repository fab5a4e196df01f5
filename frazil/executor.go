package frazil

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// 列之间没有依赖，按列区间切分任务并行计算
type executor interface {
	run()
	dispatchTask(s State, diag *Diagnostic, first, last int) time.Duration
	close()
}

type task struct {
	start int
	end   int
	state State
	diag  *Diagnostic
	done  *sync.WaitGroup
}

// 基于列任务分配
type executorBaseOnColumn struct {
	dispatchChan chan task
	workers      int
	f            func(t task)

	stop     chan struct{}
	exited   sync.WaitGroup
	stopOnce sync.Once
}

func newExecutorBaseOnColumn(workers int, f func(t task)) *executorBaseOnColumn {
	if workers < 1 {
		workers = 1
	}
	return &executorBaseOnColumn{
		dispatchChan: make(chan task, workers*2),
		workers:      workers,
		f:            f,
		stop:         make(chan struct{}),
	}
}

func (e *executorBaseOnColumn) run() {
	e.exited.Add(e.workers)
	for i := 0; i < e.workers; i++ {
		go func(i int) {
			defer e.exited.Done()
			for {
				select {
				case t := <-e.dispatchChan:
					start := time.Now()
					e.f(t)
					log.WithFields(log.Fields{
						"worker":   i,
						"start":    t.start,
						"end":      t.end,
						"duration": time.Since(start),
					}).Trace("完成任务")
					t.done.Done()
				case <-e.stop:
					return
				}
			}
		}(i)
	}
}

// 切分列区间，每个 worker 分到的部分再对半分，余数按单列分配
func splitTasks(total, workers int) [][2]int {
	if total <= 0 {
		return nil
	}
	var ranges [][2]int
	taskLen, remainder := total/workers, total%workers
	start := 0
	if taskLen == 1 {
		for start < total-remainder {
			ranges = append(ranges, [2]int{start, start + 1})
			start++
		}
	} else if taskLen > 1 {
		half1, half2 := taskLen/2, taskLen/2
		if taskLen%2 == 1 {
			half2++
		}
		for start < total-remainder {
			ranges = append(ranges, [2]int{start, start + half1})
			start += half1
			ranges = append(ranges, [2]int{start, start + half2})
			start += half2
		}
	}
	for i := 0; i < remainder; i++ {
		ranges = append(ranges, [2]int{start, start + 1})
		start++
	}
	return ranges
}

// 分配任务并等待全部完成，诊断量在所有任务结束后合并
func (e *executorBaseOnColumn) dispatchTask(s State, diag *Diagnostic, first, last int) time.Duration {
	start := time.Now()
	ranges := splitTasks(last-first, e.workers)
	partials := make([]*Diagnostic, len(ranges))

	var wg sync.WaitGroup
	wg.Add(len(ranges))
	for i, r := range ranges {
		partials[i] = diag.partial()
		e.dispatchChan <- task{
			start: first + r[0],
			end:   first + r[1],
			state: s,
			diag:  partials[i],
			done:  &wg,
		}
	}
	wg.Wait()

	for _, p := range partials {
		diag.merge(p)
	}
	return time.Since(start)
}

func (e *executorBaseOnColumn) close() {
	e.stopOnce.Do(func() {
		close(e.stop)
		e.exited.Wait()
	})
}
