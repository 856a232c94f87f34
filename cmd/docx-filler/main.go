package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/allanpk716/docx_filler/internal/cmd"
)

func main() {
	kctx, cli, err := cmd.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	setupLogging(cli.Verbose)
	slog.Debug("启动", "app", cmd.AppName, "version", cmd.AppVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Run(ctx, kctx, cli, cmd.NewPrinter(os.Stdout)); err != nil {
		slog.Error("处理失败", "error", err)
		stop()
		os.Exit(1)
	}
}

// setupLogging 配置默认日志，verbose 时输出调试信息和源码位置
func setupLogging(verbose bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}
