package rewrite

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nilaware/nilify/internal"
	"github.com/nilaware/nilify/internal/rules"
	tt "github.com/nilaware/nilify/internal/types"
	"github.com/nilaware/nilify/scanner"
)

// RewriteEngine is the part of the engine the facade needs.
type RewriteEngine interface {
	Run(filePath string) ([]byte, []tt.Change, error)
	RunSource(source []byte) ([]byte, []tt.Change, error)
}

// Result is the outcome of rewriting one file.
type Result struct {
	Filename string
	Output   []byte
	Changed  bool
	Changes  []tt.Change
}

// New builds an engine from a configuration file. An empty path falls
// back to the default rule order.
func New(configurationPath string, logger *zap.Logger) (*internal.Engine, error) {
	ruleNames := internal.DefaultRuleOrder
	if configurationPath != "" {
		config, err := parseConfigurationFile(configurationPath)
		if err != nil {
			return nil, err
		}
		if len(config.Rules) > 0 {
			ruleNames = config.Rules
		}
	}
	return internal.NewEngine(ruleNames, logger)
}

// NewWithRules builds an engine with an explicit ordered rule list,
// bypassing configuration.
func NewWithRules(ruleNames []string, spans []rules.Span, logger *zap.Logger) (*internal.Engine, error) {
	engine, err := internal.NewEngine(ruleNames, logger)
	if err != nil {
		return nil, err
	}
	engine.SetPossiblyNil(spans)
	return engine, nil
}

// ProcessFiles rewrites every path in order and collects the results.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine RewriteEngine,
	paths []string,
) ([]Result, error) {
	var all []Result
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, engine, path)
		if err != nil {
			if logger != nil {
				logger.Error("error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		all = append(all, results...)
	}
	return all, nil
}

// ProcessPath rewrites a single file, or every Go file under a
// directory. Directory walks fan out over a bounded worker pool with a
// progress bar, the way large trees are expected to be processed.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine RewriteEngine,
	path string,
) ([]Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		result, err := ProcessFile(engine, path)
		if err != nil {
			return nil, err
		}
		return []Result{result}, nil
	}

	files, err := scanner.New(path).Scan()
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", path, err)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription(path),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
	)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []Result
		errs    []error
	)
	sem := make(chan struct{}, runtime.NumCPU())

	for _, filePath := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := ProcessFile(engine, fp)
			_ = bar.Add(1)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if logger != nil {
					logger.Error("error processing file", zap.String("file", fp), zap.Error(err))
				}
				errs = append(errs, err)
				return
			}
			results = append(results, result)
		}(filePath)
	}
	wg.Wait()
	fmt.Println()

	if len(errs) > 0 {
		return results, errs[0]
	}
	return results, nil
}

// ProcessFile rewrites one file in memory.
func ProcessFile(engine RewriteEngine, filePath string) (Result, error) {
	output, changes, err := engine.Run(filePath)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Filename: filePath,
		Output:   output,
		Changed:  len(changes) > 0,
		Changes:  changes,
	}, nil
}

// WriteResults writes every changed file back in place. Unchanged files
// are not touched.
func WriteResults(results []Result) error {
	for _, r := range results {
		if !r.Changed {
			continue
		}
		if err := os.WriteFile(r.Filename, r.Output, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", r.Filename, err)
		}
	}
	return nil
}

// Config represents the overall configuration with a name and an ordered
// list of rules to run.
type Config struct {
	Name  string   `yaml:"name"`
	Rules []string `yaml:"rules"`
}

func parseConfigurationFile(configurationPath string) (Config, error) {
	var config Config

	f, err := os.Open(configurationPath)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&config); err != nil {
		return config, err
	}

	return config, nil
}
