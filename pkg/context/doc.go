// Package context 提供上下文与身份管理相关的子包。
//
// 子包列表：
//   - xctx: Context 增强，注入/提取追踪信息
//
// 设计原则：
//   - 所有上下文信息通过 context.Context 传递，不使用全局变量
package context
