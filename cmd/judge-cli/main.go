package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Gooit/Interpreter/internal/cli/command"
	"github.com/Gooit/Interpreter/internal/cli/config"
	httpclient "github.com/Gooit/Interpreter/internal/cli/http"
	"github.com/Gooit/Interpreter/internal/cli/repl"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 30s)")
	history := flag.String("history", "", "Override history file path")
	pretty := flag.Bool("pretty", false, "Pretty print JSON response")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		return
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *history != "" {
		cfg.HistoryFile = *history
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}

	client := httpclient.New(cfg.BaseURL, cfg.Timeout)
	session := repl.New(client, command.Registry(), cfg.Defaults, cfg.PrettyJSON != nil && *cfg.PrettyJSON, os.Stdout)
	if err := session.Run(context.Background(), cfg.HistoryFile); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
