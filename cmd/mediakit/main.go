package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/gemini-media-kit/pkg/config"
)

const usage = `usage: mediakit <command> [flags]

commands:
  edit       1枚の画像を指示に従って編集する
  composite  2枚の画像を合成する
  text       テキストから画像を生成する
  video      画像から動画を生成する
  presets    利用可能なプリセットを表示する
  serve      HTTP サーバーを起動する
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	name, rest := args[0], args[1:]
	if name == "presets" {
		printPresets(stdout)
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", name, usage)
		return 2
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if err := cmd(ctx, cfg, rest, stdout); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		slog.Error("コマンドの実行に失敗しました", "command", name, "error", err)
		return 1
	}
	return 0
}
