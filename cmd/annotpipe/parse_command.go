package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kbukum/annotpipe/annotator"
	"github.com/kbukum/annotpipe/bootstrap"
	"github.com/kbukum/annotpipe/config"
	"github.com/kbukum/annotpipe/errors"
	"github.com/kbukum/annotpipe/logger"
	"github.com/kbukum/annotpipe/resilience"
	"github.com/kbukum/annotpipe/stage"
)

type parseOptions struct {
	includeConllu bool
	summary       bool
	// retries bounds submissions rejected as busy.
	retries int
}

func newParseCommand(ctx *commandContext) *cobra.Command {
	var opts parseOptions
	cmd := &cobra.Command{
		Use:   "parse [FILE]",
		Short: "Annotate a file, or stdin, once and print the annotations as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			return runParse(runCtx, cfg, text, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&opts.includeConllu, "include-conllu", false, "Add the raw stage output under tnpp/conllu")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print span counts to stderr")
	cmd.Flags().IntVar(&opts.retries, "retries", 5, "Attempts before giving up on a busy pipeline")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runParse(ctx context.Context, cfg *config.AppConfig, text string, opts parseOptions, stdout, stderr io.Writer) error {
	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, stderr)
	app, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(log), bootstrap.WithoutSummary())
	if err != nil {
		return err
	}
	svc := annotator.NewService(cfg.Pipeline, stage.Builtins(), annotator.WithLogger(log))
	if err := app.RegisterComponent(svc); err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		start := time.Now()
		res, err := annotate(ctx, svc, text, opts, cfg.Pipeline.PollInterval, log)
		if err != nil {
			return err
		}
		if err := writeJSON(stdout, res); err != nil {
			return err
		}
		if opts.summary {
			_, err = fmt.Fprintln(stderr, renderParseSummary(res, len(text), time.Since(start)))
		}
		return err
	})
}

// annotate runs one request, resubmitting while the pipeline is busy; a
// large input is polled until merged.
func annotate(ctx context.Context, svc *annotator.Service, text string, opts parseOptions, poll time.Duration, log *logger.Logger) (*annotator.Result, error) {
	include := opts.includeConllu
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = opts.retries
	retry.InitialBackoff = poll
	retry.RetryIf = func(err error) bool { return errors.HasCode(err, errors.ErrCodeBusy) }
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("pipeline busy, retrying", logger.Fields("attempt", attempt, "backoff", backoff.String()))
	}

	res, err := resilience.Retry(ctx, retry, func() (*annotator.Result, error) {
		return svc.Annotate(ctx, annotator.Request{Content: text, IncludeConllu: include})
	})
	if err != nil {
		return nil, err
	}
	if res.Annotations != nil || res.Features == nil {
		return res, nil
	}

	jobID := res.Features.JobID
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		res, err := svc.Progress(ctx, jobID, include)
		if err != nil {
			return nil, err
		}
		if res.Annotations != nil {
			return res, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func renderParseSummary(res *annotator.Result, size int, elapsed time.Duration) string {
	ann := res.Annotations
	words := 0
	for _, tok := range ann.Tokens {
		words += len(tok.Features.Words)
	}
	chunks := 1
	if res.Features != nil && res.Features.Counts != nil {
		chunks = len(res.Features.Counts.Tokens)
	}
	rows := [][]string{
		{"Input", humanize.Bytes(uint64(size))},
		{"Chunks", strconv.Itoa(chunks)},
		{"Documents", humanize.Comma(int64(len(ann.Docs)))},
		{"Paragraphs", humanize.Comma(int64(len(ann.Paragraphs)))},
		{"Sentences", humanize.Comma(int64(len(ann.Sentences)))},
		{"Tokens", humanize.Comma(int64(len(ann.Tokens)))},
		{"Words", humanize.Comma(int64(words))},
		{"Elapsed", elapsed.Round(time.Millisecond).String()},
	}
	return renderTable([]string{"Item", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}
