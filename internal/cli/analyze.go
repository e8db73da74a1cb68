package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pkoval/attestor/internal/cache"
	"github.com/pkoval/attestor/internal/llm"
	"github.com/pkoval/attestor/internal/model"
	"github.com/pkoval/attestor/internal/pipeline"
	"github.com/pkoval/attestor/internal/retrieval"
	"github.com/spf13/cobra"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	author      string
	indexPath   string
	searchURL   string
	noCache     bool
	noFooter    bool
	storeUnits  bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <dir>",
	Short: "Analyze a single submission and generate an originality report",
	Long: `Analyze reads every text file in a submission directory to:
- Normalize content and classify it as code or prose
- Compare the submission's files against each other for duplication
- Search a prior-submission index for cross-submission overlap
- Classify each file's likely authorship (human vs machine)
- Aggregate the signals into a bounded originality score

Example:
  attestor analyze ./submission-042
  attestor analyze ./submission-042 --json report.json --md report.md
  attestor analyze ./submission-042 --index priors.db --author alice
  attestor analyze ./submission-042 --llm --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Analysis flags
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall analysis deadline")
	analyzeCmd.Flags().StringVar(&author, "author", "", "submission author (excludes their own prior work from cross-matches)")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable embedding cache")

	// Index flags
	analyzeCmd.Flags().StringVar(&indexPath, "index", "", "local sqlite index of prior submissions")
	analyzeCmd.Flags().StringVar(&searchURL, "search-url", "", "remote vector-search service URL (overrides --index)")
	analyzeCmd.Flags().BoolVar(&storeUnits, "store", false, "index this submission's units for future cross-checks")

	// LLM flags
	analyzeCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM-backed authorship classification")
	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default if empty)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", dir)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
		fmt.Fprintln(os.Stderr)
	}

	// Build configuration from flags
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	// Resolve the LLM provider (nil when disabled)
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("configure LLM: %w", err)
	}

	// Resolve the prior-submission index
	searcher, indexer, closeIndex, err := openIndex(cfg)
	if err != nil {
		return err
	}
	if closeIndex != nil {
		defer closeIndex()
	}

	// Load the submission
	sub, err := loadSubmission(dir, author)
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded %d file(s)\n", len(sub.Units))
	}

	// Run the pipeline
	p := pipeline.NewPipeline(cfg, provider, searcher, embeddingCache(cfg))
	report, err := p.Analyze(ctx, sub)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoAnalyzableContent) {
			return fmt.Errorf("nothing to analyze in %s: every file was empty or unusable", dir)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Compared %d internal pair(s)\n", len(report.InternalPairs))
		fmt.Fprintf(os.Stderr, "✓ Found %d cross-submission match(es)\n", len(report.CrossMatches))
		fmt.Fprintf(os.Stderr, "✓ Classified %d unit(s)\n", len(report.Verdicts))
		fmt.Fprintf(os.Stderr, "✓ Originality score: %d/100\n", report.OriginalityScore)
		fmt.Fprintln(os.Stderr)
	}

	// Render outputs
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if err := renderer.RenderJSON(report, outJSON); err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outMD)
		}
	}
	renderer.RenderSummary(report)

	// Optionally index this submission for future cross-checks
	if storeUnits {
		if indexer == nil {
			fmt.Fprintf(os.Stderr, "Warning: --store requires --index or --search-url; skipping\n")
		} else if rc := p.RetrievalClient(); rc != nil {
			p.Normalize(sub)
			if err := rc.Store(context.Background(), sub, indexer); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to index submission: %v\n", err)
			} else if verbose {
				fmt.Fprintf(os.Stderr, "✓ Indexed submission %s\n", sub.ID)
			}
		}
	}

	return nil
}

// buildConfig merges defaults with CLI flags and environment keys.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Pipeline.Deadline = timeout
	cfg.Retrieval.IndexPath = indexPath
	cfg.Retrieval.SearchURL = searchURL
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if cfg.Cache.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Cache.Dir = home + "/.attestor/cache"
		} else {
			cfg.Cache.Enabled = false
		}
	}

	// Configure LLM if enabled
	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		// Get API key from environment
		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			baseURL := os.Getenv("OLLAMA_BASE_URL")
			if baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

// openIndex resolves the configured prior-submission index. A remote
// search service takes precedence over a local sqlite file. Both nil
// means the cross-submission stage is skipped and reported as such.
func openIndex(cfg *model.Config) (retrieval.Searcher, retrieval.Indexer, func(), error) {
	if cfg.Retrieval.SearchURL != "" {
		idx := retrieval.NewHTTPIndex(cfg.Retrieval.SearchURL, cfg.Pipeline.CallTimeout)
		return idx, idx, nil, nil
	}
	if cfg.Retrieval.IndexPath != "" {
		idx, err := retrieval.OpenSQLiteIndex(cfg.Retrieval.IndexPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open index %s: %w", cfg.Retrieval.IndexPath, err)
		}
		return idx, idx, func() { _ = idx.Close() }, nil
	}
	return nil, nil, nil, nil
}

// embeddingCache builds the layered embedding cache, or nil when disabled.
func embeddingCache(cfg *model.Config) cache.Cache {
	if !cfg.Cache.Enabled || cfg.Cache.Dir == "" {
		return nil
	}
	return cache.NewLayeredCache(time.Hour, cfg.Cache.Dir, cfg.Cache.TTL)
}
