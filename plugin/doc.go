// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
包 plugin 把宿主事件总线上的事件路由到 handoff.Coordinator。

# 事件映射

  - command.executed（name == "handoff"）：解析参数，可选前缀
    --type=<类别> 或 --type <类别> 覆盖自动分类，其余部分为目标；
    目标为空时提示用法，否则提示"正在分析"，执行交接，失败时弹出
    "Handoff Failed"。
  - tui.session.select / session.idle：调用 Activate 投递待处理提示词。
  - 其他事件一律忽略。

所有提示都走 handoff.BestEffort，UI 失败不会影响事件处理结果。
*/
package plugin
