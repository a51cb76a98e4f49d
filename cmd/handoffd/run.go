package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BaSui01/sessionhandoff/handoff"
	"github.com/BaSui01/sessionhandoff/types"
)

// dryRunPlan 是 run --dry-run 的输出：不访问宿主，只展示将发送的内容
type dryRunPlan struct {
	Category     handoff.Category `json:"category"`
	Title        string           `json:"title"`
	SystemPrompt string           `json:"system_prompt"`
	UserPrompt   string           `json:"user_prompt"`
}

// runOnce 执行一次交接并把结果以 JSON 写入 out
func runOnce(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "Path to config file")
	sessionID := fs.String("session", "", "Current session id")
	goal := fs.String("goal", "", "Goal for the new session")
	category := fs.String("type", "", "Category override")
	dryRun := fs.Bool("dry-run", false, "Print the plan without calling the host")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *goal == "" && fs.NArg() > 0 {
		*goal = strings.Join(fs.Args(), " ")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	req := handoff.HandoffRequest{SessionID: *sessionID, Goal: *goal}
	if *category != "" {
		c, err := handoff.ParseCategory(*category)
		if err != nil {
			return err
		}
		req.Category = c
	}

	if *dryRun {
		if strings.TrimSpace(req.Goal) == "" {
			return types.NewError(types.ErrInvalidInput, "handoff goal must not be empty")
		}
		return writeJSON(out, plan(req, cfg.Handoff.MaxTitleLength))
	}

	// stdout carries the JSON result
	logCfg := cfg.Log
	logCfg.OutputPaths = make([]string, 0, len(cfg.Log.OutputPaths))
	for _, path := range cfg.Log.OutputPaths {
		if path == "stdout" {
			path = "stderr"
		}
		logCfg.OutputPaths = append(logCfg.OutputPaths, path)
	}
	logger := initLogger(logCfg)
	defer func() { _ = logger.Sync() }()

	p, err := newPipeline(cfg, logger, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := p.coordinator.ExecuteHandoff(ctx, req)
	if err != nil {
		return err
	}
	return writeJSON(out, result)
}

// plan 计算交接的本地部分：分类、标题与两段提示词
func plan(req handoff.HandoffRequest, maxTitle int) dryRunPlan {
	goal := strings.TrimSpace(req.Goal)
	category := req.Category
	if category == "" {
		category = handoff.Classify(goal)
	}
	return dryRunPlan{
		Category:     category,
		Title:        handoff.DeriveTitle(goal, category, maxTitle),
		SystemPrompt: handoff.BuildSystemPrompt(category),
		UserPrompt:   handoff.BuildUserPrompt(goal, category),
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
