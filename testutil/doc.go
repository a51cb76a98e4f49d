// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供会话交接测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 断言工具: AssertErrorCode
  - 异步断言: AssertEventuallyTrue / AssertEventuallyEqual，
    支持超时轮询等待条件满足
  - 日志辅助: ObservedLogger 基于 zaptest/observer 捕获日志
  - 时间辅助: WaitFor / WaitForChannel / NoSleep

# 子包

  - testutil/mocks: MockHost，同时实现 handoff.CompletionService、
    handoff.SessionService 与 handoff.UIService，
    支持 Builder 模式、调用记录与错误注入

# 使用示例

	ctx := testutil.TestContext(t)
	host := mocks.NewMockHost().WithResponse("@a.go\n\nThe goal is to ...")
	coord := handoff.NewCoordinator(host, host, host, handoff.WithSleep(testutil.NoSleep))
	res, err := coord.ExecuteHandoff(ctx, req)
*/
package testutil
