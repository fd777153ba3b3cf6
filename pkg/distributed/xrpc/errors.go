package xrpc

import "errors"

// 以下哨兵错误对应 spec 中的状态分类：OK 用 nil 表示，
// 其余每种结果分类都有对应的哨兵或类型化错误。
var (
	// ErrIllegalState 表示对处于终态或已等待状态的 Retrier 发起了非法的重试请求。
	// 不会引发状态变更，仅作为警告返回给调用方。
	ErrIllegalState = errors.New("xrpc: illegal retrier state transition")

	// ErrAborted 表示命令被显式中止，或因 reactor 拒绝调度而被迫中止。
	ErrAborted = errors.New("xrpc: aborted")

	// ErrServiceUnavailable 表示底层 Messenger（reactor）已不可用，通常发生在关闭期间。
	ErrServiceUnavailable = errors.New("xrpc: service unavailable")

	// ErrTimedOut 表示调用超过了整体截止时间。
	ErrTimedOut = errors.New("xrpc: timed out")

	// ErrNilMessenger 表示构造 Retrier 时传入了 nil Messenger。
	ErrNilMessenger = errors.New("xrpc: nil messenger")

	// ErrNilCommand 表示需要非 nil Command 的操作收到了 nil。
	ErrNilCommand = errors.New("xrpc: nil command")

	// ErrAlreadyRegistered 表示 RegisterAndStart 收到了一个已经指向有效条目的 Handle。
	ErrAlreadyRegistered = errors.New("xrpc: handle already registered")

	// ErrDrainTimeout 表示 Registry.Shutdown 在计算得到的截止时间内未能排空 calls。
	// 这是一个不应在正常运行中出现的不变量违反；xrpc 记录 Error 日志而不是
	// 让进程崩溃，具体取舍见 DESIGN.md。
	ErrDrainTimeout = errors.New("xrpc: registry failed to drain before shutdown deadline")
)

// IsIllegalState 判断 err 是否表示非法的重试状态请求。
func IsIllegalState(err error) bool {
	return errors.Is(err, ErrIllegalState)
}

// IsAborted 判断 err 是否表示命令已被中止。
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}

// IsServiceUnavailable 判断 err 是否表示 Messenger 不可用。
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsTimedOut 判断 err 是否表示整体截止时间已过。
func IsTimedOut(err error) bool {
	return errors.Is(err, ErrTimedOut)
}
