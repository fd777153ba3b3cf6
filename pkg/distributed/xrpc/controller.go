package xrpc

import (
	"sync"
	"time"
)

// Controller 是单次 RPC 尝试的调用上下文（外部协作者）。
// 真实实现通常由传输层提供并负责将调用信息编码到线路上；proto 编码与
// 传输细节明确超出本包范围（见 SPEC_FULL.md 非目标）。
type Controller interface {
	// Status 返回上一次尝试完成后的结果，nil 表示成功。
	Status() error

	// RemoteError 返回结构化的远端错误（若 Status 是远端错误）。
	RemoteError() (*RemoteError, bool)

	// SetDeadline 设置本次尝试的截止时间。
	SetDeadline(deadline time.Time)

	// Reset 在发起下一次尝试前清空上一次尝试遗留的状态。
	Reset()
}

// DefaultController 是 Controller 的最小参考实现，供测试与简单调用方使用。
// 并发安全：Retrier 只在其独占状态（Scheduling/Running）时触碰 Controller，
// 但 Status/RemoteError 允许从其他 goroutine 只读观察（例如日志记录），
// 因此内部仍以互斥锁保护，取舍与 xkeylock 的"默认安全优先"一致。
type DefaultController struct {
	mu       sync.Mutex
	deadline time.Time
	status   error
}

// NewDefaultController 创建一个空的 DefaultController，初始状态为成功（nil）。
func NewDefaultController() *DefaultController {
	return &DefaultController{}
}

// SetStatus 设置本次尝试的结果，供测试或传输层实现调用。
func (c *DefaultController) SetStatus(status error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *DefaultController) Status() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *DefaultController) RemoteError() (*RemoteError, bool) {
	c.mu.Lock()
	status := c.status
	c.mu.Unlock()
	return AsRemoteError(status)
}

func (c *DefaultController) SetDeadline(deadline time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = deadline
}

// Deadline 返回当前设置的截止时间，主要用于测试断言。
func (c *DefaultController) Deadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline
}

func (c *DefaultController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = nil
}

var _ Controller = (*DefaultController)(nil)
