package xrpc

import (
	"sync"
	"time"
)

// TaskID 标识一次通过 Messenger 调度的延迟任务。
type TaskID uint64

// InvalidTaskID 是"当前没有在途任务"的哨兵值。
const InvalidTaskID TaskID = 0

// Messenger 是 reactor 事件循环的外部协作者接口。
// 真实部署应提供自己的实现，包裹生产环境的网络 reactor；本包提供的
// InProcessMessenger 只是一个用于测试和简单场景的最小参考实现。
type Messenger interface {
	// ScheduleOnReactor 请求在 delay 之后调用 fn 一次。
	// 返回 InvalidTaskID 表示调度被拒绝（例如 reactor 正在关闭）。
	// fn 恰好被调用一次：要么在到期时以 nil 调用，要么在被取消/
	// reactor 关闭时提前以非 nil 错误调用。
	ScheduleOnReactor(delay time.Duration, fn func(status error)) TaskID

	// AbortOnReactor 请求取消 id 对应的任务。
	// 如果任务尚未触发，最终会导致其以非 nil 状态触发一次；
	// 如果任务已经触发或不存在，则是空操作。
	AbortOnReactor(id TaskID)
}

// reactorTask 记录一个在途任务的计时器与回调，供取消路径调用。
type reactorTask struct {
	timer *time.Timer
	fn    func(status error)
}

// InProcessMessenger 是 Messenger 的参考实现，基于 time.AfterFunc。
//
// 设计边界：这不是线程池或事件循环的实现——它只是标准库计时器堆的一层
// 极薄封装，与 context.WithTimeout 依赖的机制完全相同。生产环境下的
// "reactor 关闭导致调度被拒绝/在途任务被取消"语义由 Close 提供。
type InProcessMessenger struct {
	mu     sync.Mutex
	tasks  map[TaskID]*reactorTask
	nextID TaskID
	closed bool
}

// NewInProcessMessenger 创建一个可用的 InProcessMessenger。
func NewInProcessMessenger() *InProcessMessenger {
	return &InProcessMessenger{
		tasks: make(map[TaskID]*reactorTask),
	}
}

func (m *InProcessMessenger) ScheduleOnReactor(delay time.Duration, fn func(status error)) TaskID {
	if fn == nil {
		return InvalidTaskID
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return InvalidTaskID
	}
	m.nextID++
	id := m.nextID
	t := &reactorTask{fn: fn}
	t.timer = time.AfterFunc(delay, func() { m.fire(id) })
	m.tasks[id] = t
	m.mu.Unlock()
	return id
}

// fire 是计时器到期时运行的回调，只有在任务尚未被取消时才真正调用 fn。
func (m *InProcessMessenger) fire(id TaskID) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if ok {
		delete(m.tasks, id)
	}
	m.mu.Unlock()
	if ok {
		t.fn(nil)
	}
}

func (m *InProcessMessenger) AbortOnReactor(id TaskID) {
	if id == InvalidTaskID {
		return
	}
	m.mu.Lock()
	t, ok := m.tasks[id]
	if ok {
		delete(m.tasks, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	t.timer.Stop()
	// fn 可能耗时（例如驱动完整的重试状态机），异步调用避免阻塞取消方。
	go t.fn(&AbortedError{Message: "xrpc: task aborted on reactor"})
}

// Close 停止所有仍在等待的任务并以 ServiceUnavailableError 触发它们，
// 之后的 ScheduleOnReactor 调用返回 InvalidTaskID，模拟 reactor 关闭。
func (m *InProcessMessenger) Close() {
	m.mu.Lock()
	m.closed = true
	tasks := m.tasks
	m.tasks = make(map[TaskID]*reactorTask)
	m.mu.Unlock()

	for _, t := range tasks {
		t.timer.Stop()
		go t.fn(&ServiceUnavailableError{Message: "xrpc: reactor is shutting down"})
	}
}

var _ Messenger = (*InProcessMessenger)(nil)
