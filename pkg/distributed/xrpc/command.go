package xrpc

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Command 是可以被 Retrier 反复发起并重试的一次逻辑 RPC 调用契约。
//
// 与原始实现中 RpcCommand 的 shared_ptr 语义不同，Go 版本不需要引用计数：
// Retrier 通过闭包捕获 Command，Command 的生命周期完全由 Go 的垃圾回收器
// 管理（详见 DESIGN.md 中 Open Question (a) 的记录）。
type Command interface {
	// Send 使用 Retrier.PrepareController 准备好的 Controller 发起一次
	// 尝试。实现应异步完成尝试并最终调用 Finished 或触发 HandleResponse。
	Send()

	// Finished 在一次尝试最终失败（不会再重试）或成功时被调用一次。
	// err 为 nil 表示成功。
	Finished(err error)

	// Abort 请求提前终止这次调用，通常委托给内嵀的 Retrier.Abort。
	Abort()

	// String 返回适合出现在日志与错误信息中的诊断字符串。
	String() string

	// Deadline 返回这次调用的整体截止时间，零值表示没有设置。
	Deadline() time.Time
}

// BaseCommand 是一个可嵌入的 Command 基础实现，绑定了一个 Retrier 与一个
// 稳定的身份标识。具体命令类型通过嵌入 BaseCommand 获得 Retrier 访问、
// Deadline 转发以及 ScheduleRetry 便捷方法，只需要自己实现 Send/Finished
// 与业务相关的部分。
//
// 对应原始实现中 Rpc 基类（rpc.h/rpc.cc）：ScheduleRetry 是其上唯一定义
// 在 .cc 文件中的方法，直接转发给 mutable_retrier()->DelayedRetry。
type BaseCommand struct {
	id      uuid.UUID
	name    string
	retrier *Retrier
}

// NewBaseCommand 创建一个新的 BaseCommand，name 用于诊断信息，
// retrier 不得为 nil。
func NewBaseCommand(name string, retrier *Retrier) *BaseCommand {
	return &BaseCommand{
		id:      uuid.New(),
		name:    name,
		retrier: retrier,
	}
}

// ID 返回这次调用的稳定标识，仅用于日志关联，不承担生命周期管理职责。
func (b *BaseCommand) ID() uuid.UUID {
	return b.id
}

// Retrier 返回内嵌的 Retrier，供具体命令类型调用 HandleResponse 等方法。
func (b *BaseCommand) Retrier() *Retrier {
	return b.retrier
}

// Deadline 转发给内嵌 Retrier 的整体截止时间。
func (b *BaseCommand) Deadline() time.Time {
	return b.retrier.deadline
}

// Abort 转发给内嵌 Retrier。
func (b *BaseCommand) Abort() {
	b.retrier.Abort()
}

// String 返回默认诊断字符串，具体命令类型可以覆盖它以携带更多上下文。
func (b *BaseCommand) String() string {
	return fmt.Sprintf("%s(id: %s, retrier: %s)", b.name, b.id, b.retrier.String())
}

// ScheduleRetry 是 DelayedRetry 的便捷封装，对应原始实现中的
// Rpc::ScheduleRetry：使用 Retrier 配置的默认退避策略重新调度 cmd。
// 调度失败时（对应 rpc.cc:257-263 的 if (!retry_status.ok())）立即以该
// 错误调用 cmd.Finished，调用方不需要自己再处理一次失败路径。
func (b *BaseCommand) ScheduleRetry(cmd Command, status error) error {
	err := b.retrier.DelayedRetry(cmd, status)
	if err != nil {
		cmd.Finished(err)
	}
	return err
}

var _ Command = (*noopCommand)(nil)

// noopCommand 仅用于满足接口断言与文档示例，不面向调用方导出。
type noopCommand struct{ *BaseCommand }

func (c *noopCommand) Send()          {}
func (c *noopCommand) Finished(error) {}
