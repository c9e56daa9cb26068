package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/goodread/internal/config"
	"github.com/harrison/goodread/internal/display"
	"github.com/harrison/goodread/internal/document"
	"github.com/harrison/goodread/internal/fileutil"
	"github.com/harrison/goodread/internal/history"
	"github.com/harrison/goodread/internal/logger"
	"github.com/harrison/goodread/internal/parser"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// ErrInvalidDocuments is returned when at least one document failed. The
// report has already been printed, so callers exit without another message.
var ErrInvalidDocuments = errors.New("one or more documents are invalid")

// NewRootCommand creates and returns the root cobra command for goodread
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goodread [paths...]",
		Short: "Verify the code examples in your documentation",
		Long: `goodread executes the marked code blocks of markdown documents and checks
inline assertions written as "actual // expected".

Blocks fenced with ` + "```starlark goodread" + ` run in order against one shared scope
per document. Every block line is reported as passed, failed or skipped.

Documents are taken from the arguments, then from goodread.yml, then README.md.

Examples:
  goodread                      # test the configured documents
  goodread README.md docs/*.md  # test specific documents
  goodread -x                   # stop at the first failure and show the scope
  goodread --sync               # pull valid upstream copies over local documents
  goodread --edit               # open the edit location of each document`,
		Version: Version,
		Args:    cobra.ArbitraryArgs,
		RunE:    runRoot,
		// The report already explains failures
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolP("edit", "e", false, "Open each document's edit path")
	cmd.Flags().BoolP("sync", "s", false, "Test each sync copy and write valid ones over the main document")
	cmd.Flags().BoolP("exit-first", "x", false, "Stop at the first failed line and print the current scope")
	cmd.MarkFlagsMutuallyExclusive("edit", "sync")

	cmd.PersistentFlags().String("config", config.DefaultPath, "Path to config file")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")

	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// loadConfig reads the config file named by --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		cfg.MergeWithFlags(&level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// colorEnabled reports whether w is a terminal that should get ANSI colors.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runRoot implements the test, sync and edit workflows.
func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	loggers := []logger.Logger{logger.NewConsoleLogger(stderr, cfg.LogLevel)}
	if cfg.LogDir != "" {
		fileLogger, err := logger.NewFileLoggerWithLevel(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer fileLogger.Close()
		loggers = append(loggers, fileLogger)
	}
	log := logger.NewMulti(loggers...)

	opts := document.Options{
		Parser: parser.Options{
			Language:      cfg.Language,
			CaptureMarker: cfg.CaptureMarker,
		},
		Separator:    cfg.AssertionSeparator,
		MaxSteps:     uint64(cfg.MaxSteps),
		FetchTimeout: cfg.FetchTimeout,
		Sink:         display.NewPrinter(stdout, colorEnabled(stdout)),
		Warnings:     stderr,
		Logger:       log,
	}
	paths, err := fileutil.ExpandPaths(args, fileutil.DefaultOptions)
	if err != nil {
		return err
	}
	list := document.NewDocumentList(paths, cfg.Descriptors(), opts)

	edit, _ := cmd.Flags().GetBool("edit")
	sync, _ := cmd.Flags().GetBool("sync")
	exitFirst, _ := cmd.Flags().GetBool("exit-first")

	if edit {
		return list.Edit(cmd.Context())
	}

	r := &run{
		list: list,
		log:  log,
		mode: "test",
	}
	if sync {
		r.mode = "sync"
	}
	if cfg.HistoryDB != "" {
		store, err := history.NewStore(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		r.store = store
	}

	return r.execute(cmd, exitFirst)
}

// run carries one test or sync invocation.
type run struct {
	list  *document.DocumentList
	log   logger.Logger
	store *history.Store
	mode  string
}

func (r *run) execute(cmd *cobra.Command, exitFirst bool) error {
	ctx := cmd.Context()
	start := time.Now()

	var historyRun *history.Run
	if r.store != nil {
		var err error
		historyRun, err = r.store.StartRun(ctx, r.mode)
		if err != nil {
			return err
		}
	}

	var success bool
	var err error
	if r.mode == "sync" {
		success, err = r.list.Sync(ctx)
	} else {
		success, err = r.list.Test(ctx, exitFirst)
	}

	tested, invalid := 0, 0
	for _, doc := range r.list.Documents() {
		report, ok := doc.Report()
		if !ok {
			continue
		}
		tested++
		if !report.Valid {
			invalid++
		}
		if historyRun != nil {
			path := doc.TestPath(r.mode == "sync")
			if recErr := r.store.RecordReport(ctx, historyRun.ID, path, report); recErr != nil {
				r.log.LogWarn(recErr.Error())
			}
		}
	}
	r.log.LogSummary(tested, invalid, time.Since(start))

	if historyRun != nil {
		if finErr := r.store.FinishRun(ctx, historyRun.ID, err == nil && success); finErr != nil {
			r.log.LogWarn(finErr.Error())
		}
	}

	if err != nil {
		return err
	}
	if !success {
		return ErrInvalidDocuments
	}
	return nil
}
