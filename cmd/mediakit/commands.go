package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/shouni/gemini-media-kit/pkg/assetio"
	"github.com/shouni/gemini-media-kit/pkg/config"
	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
	"github.com/shouni/gemini-media-kit/pkg/httpapi"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

var errUsage = errors.New("usage")

type command func(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error

var commands = map[string]command{
	"edit":      runEdit,
	"composite": runComposite,
	"text":      runText,
	"video":     runVideo,
	"serve":     runServe,
}

// deps は設定から Studio と入力画像の Loader を組み立てます。
// inputs に gs:// が含まれる場合だけ GCS クライアントを作成し、release で解放します。
func deps(ctx context.Context, cfg *config.Config, inputs ...string) (studio *generator.Studio, loader *assetio.Loader, release func(), err error) {
	release = func() {}
	if err := cfg.Validate(); err != nil {
		return nil, nil, release, err
	}
	studio, err = generator.NewGeminiStudio(ctx, cfg.APIKey, nil, cfg.Encoder(), cfg.StudioOptions())
	if err != nil {
		return nil, nil, release, err
	}

	var reader remoteio.InputReader = remoteio.NewUniversalInputReader(nil, nil)
	if slices.ContainsFunc(inputs, remoteio.IsGCSURI) {
		factory, err := gcsfactory.New(ctx)
		if err != nil {
			return nil, nil, release, err
		}
		release = func() {
			if err := factory.Close(); err != nil {
				slog.Warn("GCSクライアントのクローズに失敗しました", "error", err)
			}
		}
		if reader, err = factory.InputReader(); err != nil {
			release()
			return nil, nil, func() {}, err
		}
	}

	// 入力画像の取得には API キーを付与しない
	loader, err = assetio.NewLoader(reader, generator.NewFetcher(nil))
	if err != nil {
		release()
		return nil, nil, func() {}, err
	}
	return studio, loader, release, nil
}

func parse(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func runEdit(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	in := fs.String("in", "", "入力画像のパスまたはURL")
	mode := fs.String("mode", string(domain.EditInstruct), "instruct, mockup, variation, extend, resize")
	preset := fs.String("preset", "", "プリセットのIDまたは名前")
	prompt := fs.String("prompt", "", "指示文（resize の場合はアスペクト比）")
	out := fs.String("out", "", "出力ファイル")
	if err := parse(fs, args); err != nil {
		return err
	}

	instruction, err := domain.BuildEditPrompt(domain.EditMode(*mode), *preset, *prompt)
	if err != nil {
		return err
	}
	studio, loader, release, err := deps(ctx, cfg, *in)
	if err != nil {
		return err
	}
	defer release()
	asset, err := loader.Load(ctx, *in)
	if err != nil {
		return err
	}

	res, err := studio.EditImage(ctx, asset, instruction)
	if err != nil {
		return err
	}
	return writeResult(stdout, *out, "edited", res)
}

func runComposite(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("composite", flag.ContinueOnError)
	base := fs.String("base", "", "背景となる画像")
	overlay := fs.String("overlay", "", "重ねる画像")
	preset := fs.String("preset", "", "プリセットのIDまたは名前")
	prompt := fs.String("prompt", "", "合成の指示（空なら既定の指示）")
	out := fs.String("out", "", "出力ファイル")
	if err := parse(fs, args); err != nil {
		return err
	}

	instruction, err := domain.BuildCompositePrompt(*preset, *prompt)
	if err != nil {
		return err
	}
	studio, loader, release, err := deps(ctx, cfg, *base, *overlay)
	if err != nil {
		return err
	}
	defer release()
	baseAsset, err := loader.Load(ctx, *base)
	if err != nil {
		return err
	}
	overlayAsset, err := loader.Load(ctx, *overlay)
	if err != nil {
		return err
	}

	res, err := studio.CompositeImages(ctx, baseAsset, overlayAsset, instruction)
	if err != nil {
		return err
	}
	return writeResult(stdout, *out, "composite", res)
}

func runText(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("text", flag.ContinueOnError)
	prompt := fs.String("prompt", "", "生成する画像の説明")
	aspect := fs.String("aspect", "", "アスペクト比 (1:1, 16:9, 9:16, 4:3, 3:4)")
	out := fs.String("out", "", "出力ファイル")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *aspect != "" && !domain.IsSupportedAspectRatio(*aspect) {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedAspectRatio, *aspect)
	}

	studio, _, _, err := deps(ctx, cfg)
	if err != nil {
		return err
	}
	res, err := studio.GenerateImageWithAspect(ctx, *prompt, *aspect)
	if err != nil {
		return err
	}
	return writeResult(stdout, *out, "generated", res)
}

func runVideo(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("video", flag.ContinueOnError)
	in := fs.String("in", "", "入力画像のパスまたはURL")
	preset := fs.String("preset", "", "動画プリセットのIDまたは名前")
	prompt := fs.String("prompt", "", "動きの指示")
	if err := parse(fs, args); err != nil {
		return err
	}

	instruction, err := domain.BuildVideoPrompt(*preset, *prompt)
	if err != nil {
		return err
	}
	studio, loader, release, err := deps(ctx, cfg, *in)
	if err != nil {
		return err
	}
	defer release()
	asset, err := loader.Load(ctx, *in)
	if err != nil {
		return err
	}

	stream := generator.NewProgressStream(16)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for e := range stream.Events() {
			printProgress(stdout, e)
		}
	}()

	res, err := studio.GenerateVideo(ctx, asset, instruction, stream)
	stream.Close()
	<-printed
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, res.Path)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.HTTPAddr, "待ち受けアドレス")
	if err := parse(fs, args); err != nil {
		return err
	}

	studio, _, _, err := deps(ctx, cfg)
	if err != nil {
		return err
	}
	srv, err := httpapi.NewServer(studio, cfg.OutputDir)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTPサーバーを起動します", "addr", *addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("HTTPサーバーを停止します")
	return httpServer.Shutdown(shutdownCtx)
}

func printProgress(w io.Writer, e generator.ProgressEvent) {
	if e.Attempt > 0 {
		fmt.Fprintf(w, "[%s #%d] %s\n", e.Phase, e.Attempt, e.Message)
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", e.Phase, e.Message)
}

func printPresets(w io.Writer) {
	groups := []struct {
		title   string
		presets []domain.Preset
	}{
		{"instruct (edit -mode instruct)", domain.InstructTemplates},
		{"mockup (edit -mode mockup)", domain.MockupTemplates},
		{"composite", domain.CompositeTemplates},
		{"video", domain.VideoPresets},
		{"video custom", domain.VideoCustomTemplates},
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%s:\n", g.title)
		for _, p := range g.presets {
			fmt.Fprintf(w, "  %-20s %s\n", p.ID, p.Name)
		}
	}
	fmt.Fprintln(w, "aspect ratios:")
	for _, r := range domain.AspectRatios {
		fmt.Fprintf(w, "  %-20s %s\n", r.Value, r.Label)
	}
}

// outputPath は出力先が未指定なら MIME タイプから拡張子を決めてファイル名を作ります。
func outputPath(out, stem, mimeType string) string {
	if out != "" {
		return out
	}
	ext := ".bin"
	switch mimeType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	default:
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return stem + ext
}

func writeResult(stdout io.Writer, out, stem string, res *domain.MediaResult) error {
	path := outputPath(out, stem, strings.ToLower(res.MimeType))
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return fmt.Errorf("出力ファイルの書き込みに失敗しました: %w", err)
	}
	fmt.Fprintln(stdout, path)
	return nil
}
