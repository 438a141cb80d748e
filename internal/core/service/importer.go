package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hive-corporation/fusion/internal/adapter/metrics"
	"github.com/hive-corporation/fusion/internal/adapter/provider"
	"github.com/hive-corporation/fusion/internal/adapter/reader"
	"github.com/hive-corporation/fusion/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

type ImporterConfig struct {
	Workers       int
	MaxErrors     int
	MaxLineLength int
}

func DefaultImporterConfig() ImporterConfig {
	return ImporterConfig{
		Workers:       4,
		MaxErrors:     10,
		MaxLineLength: 2048,
	}
}

// ImportItem is one uploaded artifact.
type ImportItem struct {
	Name   string
	Data   []byte
	Format reader.Format
	Source provider.SourceKind
	Label  string
}

// BulkRequest is a newline-delimited list of values of one kind.
type BulkRequest struct {
	Kind              domain.BulkKind
	Data              string
	AutoConfidence    bool
	DefaultConfidence *int
	Tags              []string
}

// BatchResult summarizes a batch. Errors holds at most MaxErrors messages;
// Failed always has the exact count.
type BatchResult struct {
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Added      int               `json:"added"`
	Errors     []string          `json:"errors"`
	Analytics  *domain.Analytics `json:"analytics,omitempty"`
}

// Importer runs read, adapt and normalize for each item in parallel and
// appends every successful item's points with a single store mutation.
type Importer struct {
	sessions *SessionService
	config   ImporterConfig
}

func NewImporter(sessions *SessionService, config ImporterConfig) *Importer {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.MaxErrors <= 0 {
		config.MaxErrors = DefaultImporterConfig().MaxErrors
	}
	return &Importer{sessions: sessions, config: config}
}

func (im *Importer) Import(ctx context.Context, sessionID string, items []ImportItem) (BatchResult, error) {
	timer := metrics.StartBatchTimer()
	defer timer.ObserveDuration()

	if _, err := im.sessions.GetSession(ctx, sessionID); err != nil {
		return BatchResult{}, err
	}

	points := make([][]domain.DataPoint, len(items))
	failures := make([]error, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(im.config.Workers)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			points[i], failures[i] = im.processItem(item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, fmt.Errorf("import cancelled: %w", err)
	}

	result := newBatchResult(len(items))
	var accepted []domain.DataPoint
	for i, err := range failures {
		if err != nil {
			result.fail(fmt.Sprintf("%s: %v", itemName(items[i], i), err), im.config.MaxErrors)
			metrics.RecordImportFailure(failureReason(err))
			continue
		}
		result.Successful++
		accepted = append(accepted, points[i]...)
	}

	return im.commit(ctx, sessionID, accepted, result)
}

// ImportBulk adapts each non-blank line of req.Data as one item of req.Kind.
func (im *Importer) ImportBulk(ctx context.Context, sessionID string, req BulkRequest) (BatchResult, error) {
	timer := metrics.StartBatchTimer()
	defer timer.ObserveDuration()

	if !req.Kind.IsValid() {
		return BatchResult{}, fmt.Errorf("%q: %w", req.Kind, domain.ErrInvalidBulkKind)
	}
	if _, err := im.sessions.GetSession(ctx, sessionID); err != nil {
		return BatchResult{}, err
	}

	items := provider.AdaptLines(provider.SplitLines(req.Data), provider.BulkOptions{
		Kind:              req.Kind,
		AutoConfidence:    req.AutoConfidence,
		DefaultConfidence: req.DefaultConfidence,
		Tags:              req.Tags,
		MaxLineLength:     im.config.MaxLineLength,
	})

	defaults := domain.Defaults{Confidence: req.DefaultConfidence, Tags: req.Tags}
	result := newBatchResult(len(items))
	accepted := make([]domain.DataPoint, 0, len(items))
	for _, item := range items {
		if item.Err != nil {
			result.fail(item.Err.Error(), im.config.MaxErrors)
			metrics.RecordImportFailure("line_too_long")
			continue
		}
		result.Successful++
		accepted = append(accepted, im.sessions.Normalize(item.Draft, defaults))
	}

	return im.commit(ctx, sessionID, accepted, result)
}

func (im *Importer) commit(ctx context.Context, sessionID string, accepted []domain.DataPoint, result BatchResult) (BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return BatchResult{}, fmt.Errorf("import cancelled: %w", err)
	}

	if len(accepted) > 0 {
		session, err := im.sessions.AddDataPoints(ctx, sessionID, accepted)
		if err != nil {
			return BatchResult{}, err
		}
		result.Added = len(accepted)
		result.Analytics = &session.Analytics
	}

	log.Printf("📥 Session %s: imported %d/%d items, %d data points added, %d failed",
		sessionID, result.Successful, result.Total, result.Added, result.Failed)
	return result, nil
}

func (im *Importer) processItem(item ImportItem) ([]domain.DataPoint, error) {
	parsed, err := reader.Read(item.Data, item.Format)
	if err != nil {
		return nil, err
	}

	drafts := provider.Adapt(item.Source, parsed, item.Label)
	points := make([]domain.DataPoint, 0, len(drafts))
	for _, d := range drafts {
		points = append(points, im.sessions.Normalize(d, domain.Defaults{}))
	}
	return points, nil
}

func newBatchResult(total int) BatchResult {
	return BatchResult{Total: total, Errors: []string{}}
}

func (r *BatchResult) fail(msg string, maxErrors int) {
	r.Failed++
	if len(r.Errors) < maxErrors {
		r.Errors = append(r.Errors, msg)
	}
}

func itemName(item ImportItem, i int) string {
	if item.Name != "" {
		return item.Name
	}
	return fmt.Sprintf("item %d", i+1)
}

func failureReason(err error) string {
	var readErr *reader.ReadError
	if errors.As(err, &readErr) {
		return string(readErr.Kind)
	}
	return "other"
}
