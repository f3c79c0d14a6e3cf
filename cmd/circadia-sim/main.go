package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/lumenlab/circadia-platform/internal/pipeline"
	"github.com/lumenlab/circadia-platform/internal/session"
	"github.com/lumenlab/circadia-platform/internal/simulate"
)

// circadia-sim re-runs a captured session under a modified exposure
// scenario and prints the base and counterfactual metrics side by side.
func main() {
	var (
		sessionPath  string
		scenarioPath string
		lightType    string
		logLevel     string
	)

	pflag.StringVar(&sessionPath, "session", "", "Path to session JSON file")
	pflag.StringVar(&scenarioPath, "scenario", "", "Path to scenario YAML file")
	pflag.StringVar(&lightType, "light-type", "neutral_led_4000k", "Light-type label for the session")
	pflag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pflag.Parse()

	if sessionPath == "" || scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: circadia-sim --session session.json --scenario scenario.yaml")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(logLevel),
	}))

	sess, err := loadSession(sessionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load session: %v\n", err)
		os.Exit(1)
	}

	scenario, err := simulate.LoadScenario(scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
		os.Exit(1)
	}

	processor := pipeline.NewProcessor(pipeline.DefaultModelParams(), logger)
	engine := simulate.NewEngine(processor, logger)

	ctx := context.Background()

	base, err := processor.Process(ctx, sess, lightType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to process base session: %v\n", err)
		os.Exit(1)
	}

	modified, err := engine.Simulate(ctx, sess, scenario, lightType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		os.Exit(1)
	}

	printComparison(scenario, base, modified)
}

func loadSession(path string) (*session.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session JSON: %w", err)
	}
	return &sess, nil
}

func printComparison(scenario *simulate.Scenario, base, modified *session.Results) {
	label := scenario.Label
	if label == "" {
		label = "scenario"
	}

	fmt.Printf("Session %s (%d samples, %.1f h)\n\n", base.SessionID, len(base.Timestamps), base.DurationHours)
	fmt.Printf("%-24s %12s %12s\n", "metric", "base", label)
	row := func(name string, a, b float64) {
		fmt.Printf("%-24s %12.4f %12.4f\n", name, a, b)
	}

	row("total dose (CS·h)", base.TotalDose, modified.TotalDose)
	row("MSI", base.MSI, modified.MSI)
	row("phase shift (h)", base.PhaseShiftHours, modified.PhaseShiftHours)
	row("average CS", base.AverageCS, modified.AverageCS)
	row("peak CS", base.PeakCS, modified.PeakCS)
	row("avg melanopic lux", base.AverageMelanopicLux, modified.AverageMelanopicLux)
	row("health score", base.HealthScore(), modified.HealthScore())
	fmt.Printf("%-24s %12s %12s\n", "risk level", base.RiskLevel(), modified.RiskLevel())
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
