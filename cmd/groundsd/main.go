package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"grounds/internal/app"
	"grounds/internal/config"
	"grounds/internal/llm"
	"grounds/internal/readiness"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	cfg, err := config.Load(os.Getenv("GR_CONFIG"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "serve":
		runServe(ctx, cfg)
	case "compare":
		runCompare(ctx, cfg, os.Args[2:])
	case "score":
		runScore(os.Args[2:])
	default:
		usage()
	}
}

func runServe(ctx context.Context, cfg config.Config) {
	appInstance, err := app.New(cfg, log.Default())
	if err != nil {
		log.Fatalf("app init error: %v", err)
	}

	log.Printf("groundsd serving on %s", cfg.HTTP.Addr)
	if err := appInstance.Serve(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runCompare(ctx context.Context, cfg config.Config, args []string) {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("read stdin: %v", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		log.Fatal("missing prompt (pass as arguments or on stdin)")
	}

	appInstance, err := app.New(cfg, log.Default())
	if err != nil {
		log.Fatalf("app init error: %v", err)
	}
	run, err := appInstance.Compare(ctx, llm.Request{Prompt: prompt}, nil, nil)
	if err != nil {
		log.Fatalf("compare error: %v", err)
	}
	printJSON(run)
}

func runScore(args []string) {
	var (
		data []byte
		err  error
	)
	if len(args) > 0 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	printJSON(readiness.ScoreReportText(string(data), readiness.DefaultConfig()))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Println("Usage: groundsd <serve|compare|score>")
}
