package xrpc

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/omeyang/xkit/pkg/observability/xlog"
)

// retrierState 枚举 Retrier 的状态机取值，迁移路径见 doc.go。
type retrierState int32

const (
	stateIdle retrierState = iota
	stateScheduling
	stateWaiting
	stateRunning
	stateFinished
)

// defaultSingleCallTimeout 对应 flags 表中的 retryable_rpc_single_call_timeout_ms。
const defaultSingleCallTimeout = 2500 * time.Millisecond

func (s retrierState) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateScheduling:
		return "Scheduling"
	case stateWaiting:
		return "Waiting"
	case stateRunning:
		return "Running"
	case stateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Retrier 驱动单个逻辑 RPC 调用穿过其尝试生命周期：为每次尝试设置截止
// 时间、判定结果、计算带抖动的退避、在 Messenger 上重新调度、并遵守
// 整体截止时间。
//
// 并发模型：state 与 taskID 是无锁原子量，可从调用方线程与 reactor 线程
// 并发访问。attemptNum/lastErr/controller 只在当前持有 Scheduling 或
// Running 状态的那个 goroutine 内被读写——状态机本身就是互斥手段，
// 前提是所有状态迁移都通过下面的 CAS 完成，建立必要的 happens-before
// 关系（这也是选择 sync/atomic 的类型化原子量而不是普通字段的原因）。
type Retrier struct {
	messenger Messenger
	controller Controller
	logger     xlog.Logger

	// deadline 是整体截止时间，构造后不再修改，因此可以被多个 goroutine
	// 无锁读取。零值表示"没有整体截止时间"。
	deadline time.Time

	singleCallTimeout time.Duration
	backoff           BackoffPolicy
	busyBackoff       BackoffPolicy

	attemptNum int64
	lastErr    error

	state  atomic.Int32
	taskID atomic.Uint64
}

// RetrierOption 配置 Retrier 的可选项。
type RetrierOption func(*Retrier)

// WithOverallDeadline 设置整体截止时间。零值 time.Time 表示不设置。
func WithOverallDeadline(deadline time.Time) RetrierOption {
	return func(r *Retrier) {
		r.deadline = deadline
	}
}

// WithSingleCallTimeout 设置单次尝试的超时上限。
// d <= 0 时静默忽略，保持默认值。
func WithSingleCallTimeout(d time.Duration) RetrierOption {
	return func(r *Retrier) {
		if d > 0 {
			r.singleCallTimeout = d
		}
	}
}

// WithBackoffStrategy 设置通过 DelayedRetry 发起的常规重试所使用的退避
// 策略。不影响 HandleResponse 内部因 SERVER_TOO_BUSY 触发的重试，
// 后者按 spec 4.1 的要求始终使用指数退避。
// p 为 nil 时静默忽略。
func WithBackoffStrategy(p BackoffPolicy) RetrierOption {
	return func(r *Retrier) {
		if p != nil {
			r.backoff = p
		}
	}
}

// WithRetrierLogger 设置 Retrier 使用的 Logger，未设置时使用 xlog.Default()。
func WithRetrierLogger(l xlog.Logger) RetrierOption {
	return func(r *Retrier) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithBackoffExponents 设置 HandleResponse 内部忙碌重试所使用的指数退避的
// 最小/最大指数（对应 flags 表的 min/max_backoff_ms_exponent）。
func WithBackoffExponents(minExponent, maxExponent int) RetrierOption {
	return func(r *Retrier) {
		r.busyBackoff = NewExponentialBackoffStrategy(minExponent, maxExponent)
	}
}

// WithRetrierConfig 从 Config 中取用 retryable_rpc_single_call_timeout_ms
// 与忙碌重试的指数退避范围，等价于同时调用 WithSingleCallTimeout 与
// WithBackoffExponents。
func WithRetrierConfig(cfg *Config) RetrierOption {
	return func(r *Retrier) {
		if cfg == nil {
			return
		}
		if cfg.SingleCallTimeout > 0 {
			r.singleCallTimeout = cfg.SingleCallTimeout
		}
		r.busyBackoff = NewExponentialBackoffStrategy(cfg.MinBackoffExponent, cfg.MaxBackoffExponent)
	}
}

// NewRetrier 创建一个新的 Retrier。messenger 不得为 nil；controller 为
// nil 时使用 NewDefaultController()。
func NewRetrier(messenger Messenger, controller Controller, opts ...RetrierOption) (*Retrier, error) {
	if messenger == nil {
		return nil, ErrNilMessenger
	}
	if controller == nil {
		controller = NewDefaultController()
	}
	r := &Retrier{
		messenger:         messenger,
		controller:        controller,
		singleCallTimeout: defaultSingleCallTimeout,
		backoff:           NewExponentialBackoffStrategy(defaultMinBackoffExponent, defaultMaxBackoffExponent),
		busyBackoff:       NewExponentialBackoffStrategy(defaultMinBackoffExponent, defaultMaxBackoffExponent),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

func (r *Retrier) log() xlog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return xlog.Default()
}

// State 返回当前状态，主要用于测试断言与诊断日志。
func (r *Retrier) State() string {
	return retrierState(r.state.Load()).String()
}

// TaskID 返回当前在途任务的 id，InvalidTaskID 表示当前没有在途任务。
func (r *Retrier) TaskID() TaskID {
	return TaskID(r.taskID.Load())
}

// AttemptNum 返回已经开始的尝试次数：首次尝试计为 1，之后每次进入重试
// 调度（无论调度是否被 messenger 接受）加 1。
func (r *Retrier) AttemptNum() int64 {
	return r.attemptNum + 1
}

// LastError 返回迄今为止最具诊断价值的失败原因，参见 delayedRetry 的
// 覆盖规则。
func (r *Retrier) LastError() error {
	return r.lastErr
}

// String 返回诊断字符串，格式与原始实现的 RpcRetrier::ToString 对齐。
func (r *Retrier) String() string {
	deadline := "none"
	if !r.deadline.IsZero() {
		deadline = r.deadline.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("{ task_id: %d state: %s deadline: %s }",
		r.taskID.Load(), retrierState(r.state.Load()), deadline)
}

// PrepareController 将 controller 的截止时间设置为整体截止时间与
// "现在加单次超时"两者中较早的一个，返回该 controller 供命令发起尝试。
func (r *Retrier) PrepareController() Controller {
	callDeadline := time.Now().Add(r.singleCallTimeout)
	if !r.deadline.IsZero() && r.deadline.Before(callDeadline) {
		callDeadline = r.deadline
	}
	r.controller.SetDeadline(callDeadline)
	return r.controller
}

// HandleResponse 判定刚完成的一次尝试的结果。
//
// 仅当 controller 报告的是携带 SERVER_TOO_BUSY 错误码的远端错误、且
// retryWhenBusy 为 true 时才会透明重试（内部固定使用指数退避）；
// 其余情况下都会把 controller 的状态原样返回给调用方，由其通过
// cmd.Finished 传播。
func (r *Retrier) HandleResponse(cmd Command, retryWhenBusy bool) (retryScheduled bool, out error) {
	status := r.controller.Status()
	if status != nil && retryWhenBusy {
		if re, ok := r.controller.RemoteError(); ok && re.Code == RemoteErrorServerTooBusy {
			if err := r.delayedRetry(cmd, status, r.busyBackoff); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, status
}

// DelayedRetry 请求在计算得到的退避延迟之后重新调用 cmd。
// 使用 WithBackoffStrategy 配置的策略（默认指数退避）。
func (r *Retrier) DelayedRetry(cmd Command, whyStatus error) error {
	return r.delayedRetry(cmd, whyStatus, r.backoff)
}

// delayedRetry 实现 spec 4.1 的调度协议：CAS Idle -> Scheduling，计算
// 退避延迟，向 messenger 提交延迟闭包，再 CAS Scheduling -> Waiting（或
// 在被拒绝时 CAS Scheduling -> Finished）。只有当前线程能够离开
// Scheduling 状态，因此第二次 CAS 的失败被视为不变量被破坏。
func (r *Retrier) delayedRetry(cmd Command, whyStatus error, strategy BackoffPolicy) error {
	if cmd == nil {
		return ErrNilCommand
	}

	for !r.state.CompareAndSwap(int32(stateIdle), int32(stateScheduling)) {
		switch retrierState(r.state.Load()) {
		case stateFinished:
			msg := fmt.Sprintf("retry of finished command: %s", cmd.String())
			r.log().Warn(context.Background(), msg)
			return &IllegalStateError{Message: msg}
		case stateWaiting:
			msg := fmt.Sprintf("retry of already waiting command: %s", cmd.String())
			r.log().Warn(context.Background(), msg)
			return &IllegalStateError{Message: msg}
		}
	}

	if whyStatus != nil && (r.lastErr == nil || IsTimedOut(r.lastErr)) {
		r.lastErr = whyStatus
	}

	delay := strategy.NextDelay(int(r.attemptNum))
	r.attemptNum++

	taskID := r.messenger.ScheduleOnReactor(delay, func(status error) {
		r.doRetry(cmd, status)
	})

	if taskID == InvalidTaskID {
		if !r.state.CompareAndSwap(int32(stateScheduling), int32(stateFinished)) {
			panic("xrpc: Scheduling state mutated by another goroutine, violating invariant R2")
		}
		msg := fmt.Sprintf("failed to schedule: %s", cmd.String())
		r.log().Warn(context.Background(), msg)
		return &AbortedError{Message: msg}
	}

	r.taskID.Store(uint64(taskID))
	if !r.state.CompareAndSwap(int32(stateScheduling), int32(stateWaiting)) {
		panic("xrpc: Scheduling state mutated by another goroutine, violating invariant R2")
	}
	return nil
}

// doRetry 在 reactor 线程上运行，携带调度时的结果状态（到期为 nil，
// 被取消/reactor 关闭为非 nil）。
func (r *Retrier) doRetry(cmd Command, status error) {
	run := r.state.CompareAndSwap(int32(stateWaiting), int32(stateRunning))
	// 极少数情况下会在调用方完成 Scheduling -> Waiting 之前就跑到这里
	// （仅发生在关闭期间，调度后几乎立刻被取消）。忙等避免了一般路径下
	// 引入条件变量的开销。
	for !run && retrierState(r.state.Load()) == stateScheduling {
		run = r.state.CompareAndSwap(int32(stateWaiting), int32(stateRunning))
		if run {
			break
		}
		time.Sleep(time.Millisecond)
	}

	finalStateIfAborted := retrierState(r.state.Load())
	r.taskID.Store(uint64(InvalidTaskID))

	if !run {
		cmd.Finished(&AbortedError{
			Message: fmt.Sprintf("%s aborted: %s", cmd.String(), finalStateIfAborted),
		})
		return
	}

	newStatus := status
	if newStatus == nil && !r.deadline.IsZero() && time.Now().After(r.deadline) {
		msg := fmt.Sprintf("%s passed its deadline %s (now: %s)",
			cmd.String(), r.deadline.Format(time.RFC3339Nano), time.Now().Format(time.RFC3339Nano))
		if r.lastErr != nil {
			msg += ": " + r.lastErr.Error()
		}
		newStatus = &TimedOutError{Message: msg}
	}

	if newStatus == nil {
		r.controller.Reset()
		cmd.Send()
	} else {
		if IsServiceUnavailable(newStatus) {
			newStatus = &AbortedError{Message: fmt.Sprintf("aborted because of %v", newStatus)}
		}
		cmd.Finished(newStatus)
	}

	if !r.state.CompareAndSwap(int32(stateRunning), int32(stateIdle)) {
		// 一次 Abort 在此期间介入，Finished 保持不变，符合 spec 4.1。
		return
	}
}

// Abort 请求终止这次调用。非阻塞地把状态机推进到 Finished，然后
// 协作式地等待 reactor 确认取消（若任务仍在途）。
func (r *Retrier) Abort() {
	r.parkFinished()
	r.drainTaskID()
}

func (r *Retrier) parkFinished() {
	for {
		if r.state.CompareAndSwap(int32(stateIdle), int32(stateFinished)) {
			return
		}
		switch retrierState(r.state.Load()) {
		case stateFinished:
			return
		case stateWaiting:
			if r.state.CompareAndSwap(int32(stateWaiting), int32(stateFinished)) {
				return
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (r *Retrier) drainTaskID() {
	for {
		id := TaskID(r.taskID.Load())
		if id == InvalidTaskID {
			return
		}
		r.messenger.AbortOnReactor(id)
		time.Sleep(10 * time.Millisecond)
	}
}

// Close 校验 spec 3 的不变量 R3：一个即将被丢弃的 Retrier 必须处于
// Idle 或 Finished 状态且没有在途任务。Go 没有析构函数，调用方的清理
// 路径应显式调用 Close；违反不变量时记录 Error 日志而不是让进程崩溃
// （库代码不调用 os.Exit，参见 DESIGN.md）。
func (r *Retrier) Close() {
	id := TaskID(r.taskID.Load())
	st := retrierState(r.state.Load())
	if id != InvalidTaskID || (st != stateFinished && st != stateIdle) {
		r.log().Error(context.Background(), "destroying retrier in invalid state",
			slog.String("state", st.String()),
			slog.Uint64("task_id", uint64(id)))
	}
}
