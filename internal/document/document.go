// Package document ties loading, parsing and validation of one document
// together and implements the test, sync and edit workflows over a list of
// documents.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/harrison/goodread/internal/display"
	"github.com/harrison/goodread/internal/executor"
	"github.com/harrison/goodread/internal/filelock"
	"github.com/harrison/goodread/internal/logger"
	"github.com/harrison/goodread/internal/models"
	"github.com/harrison/goodread/internal/parser"
	"github.com/harrison/goodread/internal/validation"
)

// ErrOutOfSync is returned by Edit when the main copy differs from the sync copy.
var ErrOutOfSync = errors.New("out of sync")

// Logger receives diagnostics and per-document reports.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogReport(path string, report models.Report)
}

// Options configure how documents are tested and opened.
type Options struct {
	Parser       parser.Options
	Separator    string
	MaxSteps     uint64
	FetchTimeout time.Duration

	Sink     models.EventSink // report events, usually a display.Printer
	Warnings io.Writer        // lint warnings; nil disables them
	Logger   Logger
	Opener   Opener
}

func (o Options) withDefaults() Options {
	if o.Separator == "" {
		o.Separator = executor.DefaultSeparator
	}
	if o.Logger == nil {
		o.Logger = logger.NewNoOpLogger()
	}
	if o.Opener == nil {
		o.Opener = SystemOpener{}
	}
	return o
}

// Document is one document under test.
type Document struct {
	desc   models.DocumentDescriptor
	opts   Options
	linter *parser.Linter
	report models.Report
	tested bool
}

// New creates a Document for desc.
func New(desc models.DocumentDescriptor, opts Options) *Document {
	opts = opts.withDefaults()
	return &Document{
		desc:   desc,
		opts:   opts,
		linter: parser.NewLinter(opts.Parser),
	}
}

// Descriptor returns the main, edit and sync paths.
func (d *Document) Descriptor() models.DocumentDescriptor {
	return d.desc
}

// Report returns the report of the last Test call and whether one ran.
func (d *Document) Report() (models.Report, bool) {
	return d.report, d.tested
}

// TestPath returns the path Test reads: the sync copy when fromSync is set,
// otherwise the main copy. It may be empty.
func (d *Document) TestPath(fromSync bool) string {
	if fromSync {
		return d.desc.Sync
	}
	return d.desc.Main
}

// Test loads the document and validates its code blocks.
// A document without the requested path is valid and reports nothing.
func (d *Document) Test(ctx context.Context, fromSync, haltOnFirstFailure bool) (models.Report, error) {
	path := d.TestPath(fromSync)
	if path == "" {
		return models.Report{Valid: true}, nil
	}

	raw, err := Load(ctx, path, d.opts.FetchTimeout)
	if err != nil {
		return models.Report{}, err
	}
	return d.testContents(path, raw, haltOnFirstFailure)
}

func (d *Document) testContents(path, raw string, halt bool) (models.Report, error) {
	d.lint(path, raw)

	runner := executor.NewBlockExecutor(
		executor.WithSeparator(d.opts.Separator),
		executor.WithMaxSteps(d.opts.MaxSteps),
		executor.WithLogger(d.opts.Logger),
	)
	validator := validation.NewValidator(runner, d.opts.Sink)

	d.opts.Logger.LogDebug(fmt.Sprintf("testing %s", path))
	report, err := validator.Validate(parser.ParseElements(raw, d.opts.Parser), halt)
	d.report, d.tested = report, true

	var haltErr *validation.HaltError
	if errors.As(err, &haltErr) {
		haltErr.Path = path
	}
	if err != nil {
		return report, err
	}

	d.opts.Logger.LogReport(path, report)
	return report, nil
}

// lint warns about fenced blocks that readers see but the verifier skips.
func (d *Document) lint(path, raw string) {
	if d.opts.Warnings == nil {
		return
	}
	issues, err := d.linter.Lint(raw)
	if err != nil {
		d.opts.Logger.LogWarn(fmt.Sprintf("lint %s: %v", path, err))
		return
	}
	if len(issues) > 0 {
		display.WarnLintIssues(path, issues).Display(d.opts.Warnings)
	}
}

// Sync tests the sync copy and, when it is valid, writes it over the main
// copy. It returns whether the sync copy was valid. Documents without a
// sync path are valid and untouched.
func (d *Document) Sync(ctx context.Context) (bool, error) {
	if d.desc.Sync == "" {
		return true, nil
	}

	raw, err := Load(ctx, d.desc.Sync, d.opts.FetchTimeout)
	if err != nil {
		return false, err
	}
	return d.syncContents(ctx, raw)
}

func (d *Document) syncContents(ctx context.Context, raw string) (bool, error) {
	report, err := d.testContents(d.desc.Sync, raw, false)
	if err != nil {
		return false, err
	}
	if !report.Valid {
		return false, nil
	}

	if IsRemote(d.desc.Main) {
		return true, fmt.Errorf("cannot sync %s: main document is remote", d.desc.Main)
	}
	changed, err := filelock.LockAndWrite(ctx, d.desc.Main, []byte(raw))
	if err != nil {
		return true, fmt.Errorf("failed to sync %s: %w", d.desc.Main, err)
	}
	if changed {
		d.opts.Logger.LogInfo(fmt.Sprintf("synced %s from %s", d.desc.Main, d.desc.Sync))
	} else {
		d.opts.Logger.LogDebug(fmt.Sprintf("%s already matches %s", d.desc.Main, d.desc.Sync))
	}
	return true, nil
}

// Edit opens the edit path. When the edit path is a separate copy, the main
// and sync copies must match first, otherwise edits would be made to stale
// content.
func (d *Document) Edit(ctx context.Context) error {
	if d.desc.Edit == "" {
		return nil
	}

	if d.desc.Main != d.desc.Edit && d.desc.Sync != "" {
		main, err := Load(ctx, d.desc.Main, d.opts.FetchTimeout)
		if err != nil {
			return err
		}
		synced, err := Load(ctx, d.desc.Sync, d.opts.FetchTimeout)
		if err != nil {
			return err
		}
		if main != synced {
			return fmt.Errorf("document '%s' is %w", d.desc.Edit, ErrOutOfSync)
		}
	}

	d.opts.Logger.LogDebug(fmt.Sprintf("opening %s", d.desc.Edit))
	return d.opts.Opener.Open(ctx, d.desc.Edit)
}
