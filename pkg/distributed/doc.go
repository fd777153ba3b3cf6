// Package distributed 提供分布式协调相关的子包。
//
// 子包列表：
//   - xrpc: 客户端 RPC 重试与在途命令登记
//
// 设计原则：
//   - 外部协作者（reactor、调用上下文）一律通过接口注入，不绑定具体传输实现
//   - 状态迁移通过原子 CAS 完成，避免额外的锁开销
package distributed
