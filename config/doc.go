// Package config 提供 handoffd 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → HANDOFF_* 环境变量 的顺序叠加，
// 覆盖 HTTP 触发服务、宿主连接、交接流程、日志与遥测五个部分。
package config
