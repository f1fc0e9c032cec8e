package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nilaware/nilify/formatter"
	"github.com/nilaware/nilify/internal"
	"github.com/nilaware/nilify/internal/nilreport"
	tt "github.com/nilaware/nilify/internal/types"
	"github.com/nilaware/nilify/rewrite"
)

var (
	dryRun         bool
	ruleList       string
	nilReportPath  string
	jsonOutput     bool
	jsonOutputPath string
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [paths...]",
	Short: "Rewrite implicit nilness encodings in the given files",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := buildEngine()
		if err != nil {
			logger.Fatal("Failed to initialize rewrite engine", zap.Error(err))
		}

		results, err := rewrite.ProcessFiles(ctx, logger, engine, args)
		if err != nil {
			logger.Error("Error processing files", zap.Error(err))
			os.Exit(1)
		}

		if !dryRun {
			if err := rewrite.WriteResults(results); err != nil {
				logger.Error("Error writing rewritten files", zap.Error(err))
				os.Exit(1)
			}
		}

		printResults(results)
	},
}

func init() {
	rewriteCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show rewrites without applying them")
	rewriteCmd.Flags().StringVar(&ruleList, "rules", "", "Comma-separated ordered list of rules, overriding configuration")
	rewriteCmd.Flags().StringVar(&nilReportPath, "nilreport", "", "JSON report of possibly-nil spans from an external checker")
	rewriteCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output changes in JSON format")
	rewriteCmd.Flags().StringVarP(&jsonOutputPath, "output", "o", "", "Output path (when using JSON)")
}

func buildEngine() (*internal.Engine, error) {
	var report nilreport.Report
	if nilReportPath != "" {
		var err error
		report, err = nilreport.Load(nilReportPath)
		if err != nil {
			return nil, err
		}
	}

	if ruleList != "" {
		engine, err := rewrite.NewWithRules(parseRuleList(ruleList), nil, logger)
		if err != nil {
			return nil, err
		}
		engine.SetNilReport(report)
		return engine, nil
	}

	cfg := cfgFile
	if cfg == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			cfg = defaultConfigFile
		}
	}
	engine, err := rewrite.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	engine.SetNilReport(report)
	return engine, nil
}

func printResults(results []rewrite.Result) {
	changesByFile := make(map[string][]tt.Change)
	for _, r := range results {
		if len(r.Changes) > 0 {
			changesByFile[r.Filename] = append(changesByFile[r.Filename], r.Changes...)
		}
	}

	if jsonOutput {
		d, err := json.Marshal(changesByFile)
		if err != nil {
			logger.Error("Error marshalling changes to JSON", zap.Error(err))
			return
		}
		if jsonOutputPath == "" {
			fmt.Println(string(d))
			return
		}
		if err := os.WriteFile(jsonOutputPath, d, 0o644); err != nil {
			logger.Error("Error writing JSON output file", zap.Error(err))
		}
		return
	}

	for _, r := range results {
		if len(r.Changes) == 0 {
			continue
		}
		sourceCode, err := formatter.ReadSourceCode(r.Filename)
		if err != nil {
			logger.Error("Error reading source file", zap.String("file", r.Filename), zap.Error(err))
			continue
		}
		fmt.Println(formatter.GenerateFormattedChanges(r.Changes, sourceCode))
	}
}

func parseRuleList(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

