// Package xrpc 提供客户端 RPC 重试与在途命令登记的核心组件。
//
// # 设计理念
//
// xrpc 拆分为三个协作组件：
//   - Retrier：单个 RPC 调用的状态机，负责设置单次尝试超时、判定结果、
//     计算带抖动的退避时间、在 reactor 上重新调度下一次尝试，并遵守
//     整体截止时间。
//   - Command：由 Retrier 驱动的多态操作，暴露 Send/Finished/Abort。
//   - Registry：进程范围（或调用方提供锁的范围）内存活 Command 的集合，
//     支持有序关闭：全部终止、限时等待排空、以及来自多个调用方线程的
//     安全并发登记/注销。
//
// Retrier 与 Registry 依赖两个外部协作者的接口，而非具体实现：
//   - Messenger：reactor 事件循环，负责调度/取消延迟闭包。
//   - Controller：单次尝试的调用上下文，携带截止时间与结果状态。
//
// 生产环境下调用方应提供自己的 Messenger（通常包裹真实的网络 reactor）；
// InProcessMessenger 只是一个基于 time.AfterFunc 的最小参考实现，用于
// 测试与简单场景，不是线程池或事件循环的实现（后者明确超出本包范围）。
//
// # 状态机
//
// Retrier 的状态只能沿以下路径迁移：
//
//	Idle --(DelayedRetry)--> Scheduling --(任务被接受)--> Waiting
//	                              `--(任务被拒绝)--> Finished
//	Waiting --(计时器触发，CAS 成功)--> Running --(尝试完成)--> Idle
//	Waiting --(Abort)--> Finished
//	Idle --(Abort)--> Finished
//
// 只有当前持有 Scheduling 状态的 goroutine 才能将其推进到 Waiting 或
// Finished；这一约束是正确性的关键，详见 retrier.go。
//
// # 使用方式
//
//	messenger := xrpc.NewInProcessMessenger()
//	defer messenger.Close()
//
//	registry := xrpc.NewRegistry(nil) // 内部持有互斥锁
//	retrier, err := xrpc.NewRetrier(messenger, nil, xrpc.WithRetrierConfig(xrpc.NewConfig()))
//	if err != nil {
//		// 处理构造失败（例如 messenger 为 nil）
//	}
//	cmd := myCommand{BaseCommand: xrpc.NewBaseCommand("myCommand", retrier)}
//	handle := registry.Register(&cmd)
//	// ... 之后
//	registry.Unregister(handle)
//
// 详细用法参见 example_test.go。
package xrpc
