package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/marcin-skalski/progress-tracker/internal/annotate"
	"github.com/marcin-skalski/progress-tracker/internal/chart"
	"github.com/marcin-skalski/progress-tracker/internal/config"
	"github.com/marcin-skalski/progress-tracker/internal/fsutil"
	"github.com/marcin-skalski/progress-tracker/internal/git"
	"github.com/marcin-skalski/progress-tracker/internal/readme"
	"github.com/marcin-skalski/progress-tracker/internal/store"
	"github.com/marcin-skalski/progress-tracker/internal/summary"
	"github.com/marcin-skalski/progress-tracker/internal/texcount"
)

type Tracker struct {
	root    string
	cfg     config.Config
	git     *git.Client
	counter *texcount.Counter
	store   *store.Store
	cache   *store.CommitCache
	logger  *slog.Logger

	now      func() time.Time
	debounce time.Duration
}

// Result describes what a run wrote.
type Result struct {
	Document    string
	Record      store.Record
	Records     []store.Record
	Annotations []annotate.Annotation
	Stats       summary.Stats
	PlotFile    string
	ReadmeFile  string
}

// New wires a tracker for the manuscript repository at root.
func New(root string, cfg config.Config, g *git.Client, counter *texcount.Counter, logger *slog.Logger) *Tracker {
	t := &Tracker{
		root:     root,
		cfg:      cfg,
		git:      g,
		counter:  counter,
		logger:   logger,
		now:      time.Now,
		debounce: 500 * time.Millisecond,
	}
	dataFile := t.path(cfg.Output.DataFile)
	t.store = store.New(dataFile, logger)
	t.cache = store.NewCommitCache(filepath.Join(filepath.Dir(dataFile), "commits.json"), logger)
	return t
}

func (t *Tracker) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(t.root, p)
}

// Run records the word count of HEAD and regenerates the chart and README section.
// Everything that can fail is computed before the first write.
func (t *Tracker) Run(ctx context.Context) (*Result, error) {
	doc, err := texcount.ResolveMainFile(t.root, t.cfg.MainTexFile)
	if err != nil {
		return nil, err
	}
	t.logger.Info("using LaTeX file", "file", doc)

	words, err := t.counter.Count(ctx, doc, t.cfg.TexcountOptions)
	if err != nil {
		return nil, err
	}
	t.logger.Info("current word count", "words", words)

	head, err := t.git.Head(ctx)
	if err != nil {
		return nil, err
	}

	readmePath := t.path(t.cfg.Readme.Path)
	if err := readme.Check(readmePath, t.cfg.Readme.StartMarker, t.cfg.Readme.EndMarker); err != nil {
		return nil, err
	}

	rec := store.Record{
		Timestamp: head.Date,
		WordCount: words,
		CommitSHA: head.SHA,
		Message:   head.Subject,
	}
	records, err := t.store.Prepare(rec)
	if err != nil {
		return nil, err
	}

	commits, err := t.commits(ctx, lastRecorded(records, head.SHA))
	if err != nil {
		return nil, err
	}
	selected := annotate.Select(commits, t.cfg.PlotStyle.Categories)
	annotations := annotate.Extract(selected, t.cfg.PlotStyle.Categories)
	t.logger.Debug("extracted annotations", "commits", len(commits), "annotations", len(annotations))

	c, err := chart.Build(records, annotations, t.cfg.PlotStyle)
	if err != nil {
		return nil, fmt.Errorf("build chart: %w", err)
	}
	var img bytes.Buffer
	if err := chart.Render(&img, c); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	plotPath := t.path(t.cfg.Output.PlotFile)
	stats := summary.Compute(records)
	section := summary.Markdown(stats, annotations, imageRef(readmePath, plotPath), t.now())
	edit, err := readme.Prepare(readmePath, t.cfg.Readme.StartMarker, t.cfg.Readme.EndMarker, section)
	if err != nil {
		return nil, err
	}

	if err := t.store.Save(records); err != nil {
		return nil, err
	}
	if err := fsutil.WriteFileAtomic(plotPath, img.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write chart: %w", err)
	}
	if err := t.cache.Save(selected); err != nil {
		return nil, err
	}
	if err := edit.Apply(); err != nil {
		return nil, err
	}

	t.logger.Info("progress recorded",
		"commit", head.Short(),
		"words", words,
		"records", len(records),
		"annotations", len(annotations),
		"plot", plotPath)

	return &Result{
		Document:    doc,
		Record:      records[indexOf(records, head.SHA)],
		Records:     records,
		Annotations: annotations,
		Stats:       stats,
		PlotFile:    plotPath,
		ReadmeFile:  readmePath,
	}, nil
}

// Report summarizes the stored log without counting or writing anything.
func (t *Tracker) Report(ctx context.Context) (summary.Stats, []annotate.Annotation, error) {
	records, err := t.store.Load()
	if err != nil {
		var storeErr *store.Error
		if !errors.As(err, &storeErr) {
			return summary.Stats{}, nil, err
		}
		t.logger.Warn("progress log is corrupt", "path", t.store.Path(), "err", storeErr.Err)
	}

	commits, err := t.commits(ctx, lastRecorded(records, ""))
	if err != nil {
		return summary.Stats{}, nil, err
	}
	return summary.Compute(records), annotate.Extract(commits, t.cfg.PlotStyle.Categories), nil
}

// commits returns the history to annotate: the commits after since merged with the
// cached ones. Without a usable cache, or when since is no longer in the history,
// the full history is read.
func (t *Tracker) commits(ctx context.Context, since string) ([]git.Commit, error) {
	cached, err := t.cache.Load()
	if err != nil {
		var storeErr *store.Error
		if !errors.As(err, &storeErr) {
			return nil, err
		}
		t.logger.Warn("commit cache is corrupt, rescanning history", "path", t.cache.Path(), "err", storeErr.Err)
		cached = nil
	}
	if cached == nil || since == "" {
		return t.git.Log(ctx, "")
	}

	fresh, err := t.git.Log(ctx, since)
	if err != nil {
		t.logger.Warn("last recorded commit is not in the history, rescanning", "since", since, "err", err)
		return t.git.Log(ctx, "")
	}
	t.logger.Debug("scanned new commits", "since", since, "new", len(fresh), "cached", len(cached))
	return merge(fresh, cached), nil
}

func merge(fresh, cached []git.Commit) []git.Commit {
	seen := make(map[string]bool, len(fresh))
	out := make([]git.Commit, 0, len(fresh)+len(cached))
	for _, c := range append(fresh, cached...) {
		if seen[c.SHA] {
			continue
		}
		seen[c.SHA] = true
		out = append(out, c)
	}
	return out
}

// lastRecorded is the newest recorded commit other than skip.
func lastRecorded(records []store.Record, skip string) string {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].CommitSHA != skip {
			return records[i].CommitSHA
		}
	}
	return ""
}

func imageRef(readmePath, plotPath string) string {
	rel, err := filepath.Rel(filepath.Dir(readmePath), plotPath)
	if err != nil {
		return filepath.Base(plotPath)
	}
	return filepath.ToSlash(rel)
}

func indexOf(records []store.Record, sha string) int {
	for i, r := range records {
		if r.CommitSHA == sha {
			return i
		}
	}
	return len(records) - 1
}
