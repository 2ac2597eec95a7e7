package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ulasan/internal/app"
	"ulasan/internal/config"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	a, err := app.New(ctx, ctx, cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer a.Close()

	cp, _, _ := a.Models.ActiveCheckpoint()
	fmt.Printf("%sCheckpoint:%s %s\n\n", colorCyan, colorReset, cp)

	suites := []struct {
		name      string
		scenarios []Scenario
	}{
		{name: "Reviews", scenarios: reviewScenarios},
		{name: "Social media slang", scenarios: slangScenarios},
	}
	for _, suite := range suites {
		fmt.Printf("==== %s ====\n", suite.name)
		outcomes, passed := evaluate(ctx, a.Inference, suite.scenarios)
		for _, o := range outcomes {
			printOutcome(o)
		}
		fmt.Printf("Total Passed: %d/%d\n\n", passed, len(outcomes))
	}
}

func printOutcome(o Outcome) {
	if o.Err != nil {
		fmt.Printf("%s[ERROR]%s %v\nText: %s\n%s\n", colorRed, colorReset, o.Err, o.Scenario.Input, strings.Repeat("-", 50))
		return
	}
	status, color := "PASS", colorGreen
	if !o.Passed() {
		status, color = "FAIL", colorRed
	}
	fmt.Printf("%s[%s]%s Expected: %s, Actual: %s, Conf: %.2f%%\n", color, status, colorReset,
		o.Scenario.Expected, o.Actual.Label, o.Actual.Confidence*100)
	fmt.Printf("Text: %s\n%s\n", o.Scenario.Input, strings.Repeat("-", 50))
}
