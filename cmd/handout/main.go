package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kirillkom/handout-assistant/internal/adapters/tui"
	"github.com/kirillkom/handout-assistant/internal/bootstrap"
	"github.com/kirillkom/handout-assistant/internal/config"
	"github.com/kirillkom/handout-assistant/internal/observability/logging"
)

func main() {
	pdfPath := flag.String("pdf", "", "path to the handout PDF")
	highlight := flag.String("highlight", "", "file with phrases to highlight, one per line (- for stdin)")
	outPath := flag.String("out", "", "output PDF for -highlight (default <pdf>_highlighted.pdf)")
	logFile := flag.String("log-file", "", "write logs to this file instead of discarding them")
	flag.Parse()

	if *pdfPath == "" && flag.NArg() > 0 {
		*pdfPath = flag.Arg(0)
	}
	if *pdfPath == "" {
		fmt.Fprintln(os.Stderr, "usage: handout -pdf notes.pdf [-highlight phrases.txt [-out out.pdf]]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logOut, closeLog, err := openLogOutput(*logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logging.New(logOut, "handout", cfg.LogLevel, "text"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *highlight != "" {
		if err := runHighlight(ctx, *pdfPath, *highlight, *outPath); err != nil {
			fmt.Fprintf(os.Stderr, "highlight: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	assistant, err := bootstrap.NewAssistant(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	defer assistant.Close()

	if err := tui.Run(assistant, *pdfPath, cfg.QuestionTimeout); err != nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		os.Exit(1)
	}
}

func runHighlight(ctx context.Context, pdfPath, phrasesPath, outPath string) error {
	var (
		raw []byte
		err error
	)
	if phrasesPath == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(phrasesPath)
	}
	if err != nil {
		return fmt.Errorf("read phrases: %w", err)
	}
	if outPath == "" {
		outPath = defaultHighlightPath(pdfPath)
	}

	count, err := bootstrap.NewHighlighter().Highlight(ctx, pdfPath, outPath, string(raw))
	if err != nil {
		return err
	}
	fmt.Printf("Highlighted %d occurrence(s) in %s\n", count, outPath)
	return nil
}

func defaultHighlightPath(pdfPath string) string {
	ext := filepath.Ext(pdfPath)
	return strings.TrimSuffix(pdfPath, ext) + "_highlighted.pdf"
}

func openLogOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
