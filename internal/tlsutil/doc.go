// Package tlsutil 提供 handoffd 的 TLS 设置：访问宿主运行时的请求客户端与
// SSE 事件流客户端（可信任私有 CA），以及 HTTPS 监听使用的服务端配置。
// 统一要求 TLS 1.2+，仅 AEAD 密码套件。
package tlsutil
