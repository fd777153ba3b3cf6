package xrpc

import (
	"errors"
	"fmt"
)

// RemoteErrorCode 枚举远端返回的结构化错误码。
// 目前只定义 Retrier 的重试判定逻辑关心的取值；调用方可以在
// RemoteError.Err 中携带任意底层错误以保留完整信息。
type RemoteErrorCode int

const (
	// RemoteErrorUnknown 表示远端错误未携带已知的错误码。
	RemoteErrorUnknown RemoteErrorCode = iota

	// RemoteErrorServerTooBusy 对应 spec 中的 SERVER_TOO_BUSY：
	// 在调用方选择了忙碌重试（retryWhenBusy）时会被透明重试。
	RemoteErrorServerTooBusy
)

// String 实现 fmt.Stringer。
func (c RemoteErrorCode) String() string {
	switch c {
	case RemoteErrorServerTooBusy:
		return "SERVER_TOO_BUSY"
	default:
		return "UNKNOWN"
	}
}

// RemoteError 表示一次尝试收到的远端结构化错误。
// 通过 errors.As 从 Controller.Status() 返回的 error 中提取。
type RemoteError struct {
	Code RemoteErrorCode
	Err  error
}

// NewRemoteError 创建一个携带错误码的远端错误。
func NewRemoteError(code RemoteErrorCode, err error) *RemoteError {
	return &RemoteError{Code: code, Err: err}
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("xrpc: remote error %s", e.Code)
	}
	return fmt.Sprintf("xrpc: remote error %s: %v", e.Code, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// AsRemoteError 尝试将 err 解包为 *RemoteError。
// 这是对 errors.As 的一层薄封装，供调用方避免重复声明局部变量。
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// TimedOutError 表示整体截止时间已过，携带诊断信息。
// 实现 Unwrap 以便 errors.Is(err, ErrTimedOut) 成立。
type TimedOutError struct {
	Message string
}

func (e *TimedOutError) Error() string { return e.Message }

func (e *TimedOutError) Unwrap() error { return ErrTimedOut }

// AbortedError 表示命令已被中止，携带诊断信息。
type AbortedError struct {
	Message string
}

func (e *AbortedError) Error() string { return e.Message }

func (e *AbortedError) Unwrap() error { return ErrAborted }

// ServiceUnavailableError 表示 Messenger（reactor）已不可用，携带诊断信息。
type ServiceUnavailableError struct {
	Message string
}

func (e *ServiceUnavailableError) Error() string { return e.Message }

func (e *ServiceUnavailableError) Unwrap() error { return ErrServiceUnavailable }

// IllegalStateError 表示对 Retrier 的非法状态转换请求。
type IllegalStateError struct {
	Message string
}

func (e *IllegalStateError) Error() string { return e.Message }

func (e *IllegalStateError) Unwrap() error { return ErrIllegalState }
