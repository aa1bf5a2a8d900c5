package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/vijay-kartik/iphonetoagent/internal/agent"
	"github.com/vijay-kartik/iphonetoagent/internal/config"
	"github.com/vijay-kartik/iphonetoagent/internal/llm"
	"github.com/vijay-kartik/iphonetoagent/internal/logger"
)

// Debug tool: runs the transaction analysis agent over one SMS from the
// command line and prints the extracted transaction as JSON.
func main() {
	level := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	sms := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if sms == "" {
		fmt.Fprintln(os.Stderr, "usage: analyse [-log-level level] <sms text>")
		os.Exit(2)
	}

	log := logger.New(*level)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	llmClient, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.CallTimeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	factory := agent.NewFactory(llmClient, agent.FactoryConfig{
		Model:         cfg.Gemini.Model,
		FixModel:      cfg.Gemini.FixModel,
		MaxIterations: cfg.Gemini.MaxIterations,
	}, log)

	tx, err := factory.AnalyseSMS(ctx, sms)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	if tx.IsFallback() {
		fmt.Println(`{"extracted": false}`)
		return
	}

	out, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode transaction")
	}
	fmt.Println(string(out))
}
