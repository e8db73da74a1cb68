package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkoval/attestor/internal/model"
)

// Analyzer defines the interface for analyzing one submission
type Analyzer interface {
	Analyze(ctx context.Context, sub *model.Submission) (*model.Report, error)
}

// AnalyzeJob analyzes a single submission
type AnalyzeJob struct {
	Submission *model.Submission
	Analyzer   Analyzer
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.Analyze(ctx, j.Submission)
	return &AnalyzeResult{
		SubmissionID: j.Submission.ID,
		Author:       j.Submission.Author,
		Report:       report,
		Error:        err,
	}
}

// AnalyzeResult is the outcome of one submission analysis
type AnalyzeResult struct {
	SubmissionID string
	Author       string
	Report       *model.Report
	Error        error
}

// GetError returns the error from the analysis result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// SubmissionLoader builds a Submission from a directory path.
// Injected so the batch processor stays decoupled from file layout.
type SubmissionLoader func(dir string) (*model.Submission, error)

// BatchProcessor analyzes multiple submissions concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	loader      SubmissionLoader
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, loader SubmissionLoader, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		loader:      loader,
		concurrency: concurrency,
	}
}

// Process analyzes the given submissions concurrently. The context
// bounds the whole batch: once it ends, submissions not yet accepted
// are reported as cancelled rather than analyzed.
func (b *BatchProcessor) Process(ctx context.Context, subs []*model.Submission) []*AnalyzeResult {
	if len(subs) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	var cancelled []*AnalyzeResult
	for _, sub := range subs {
		if !pool.Submit(&AnalyzeJob{Submission: sub, Analyzer: b.analyzer}) {
			cancelled = append(cancelled, &AnalyzeResult{
				SubmissionID: sub.ID,
				Author:       sub.Author,
				Error:        fmt.Errorf("batch cancelled: %w", ctx.Err()),
			})
		}
	}

	results := pool.Wait()

	out := make([]*AnalyzeResult, 0, len(results)+len(cancelled))
	for _, result := range results {
		out = append(out, result.(*AnalyzeResult))
	}
	return append(out, cancelled...)
}

// ProcessFile reads submission directories from a list file (one per
// line, # comments allowed) and analyzes them concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*AnalyzeResult, error) {
	f, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open list file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var subs []*model.Submission
	var failed []*AnalyzeResult
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sub, err := b.loader(line)
		if err != nil {
			// A bad directory fails its own entry, not the batch
			failed = append(failed, &AnalyzeResult{
				SubmissionID: line,
				Error:        fmt.Errorf("load %s: %w", line, err),
			})
			continue
		}
		subs = append(subs, sub)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list file: %w", err)
	}

	return append(b.Process(ctx, subs), failed...), nil
}
