package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stacklok/wiki-index-sync/internal/app"
	"github.com/stacklok/wiki-index-sync/internal/config"
	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/sync/job"
	"github.com/stacklok/wiki-index-sync/internal/telemetry"
)

const oneShotJobName = "cli"

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization and print its summary",
		Long: `Run a single synchronization between the document store and the index.

Examples:
  # Incremental sync of one space
  index-sync sync --config config.yaml --root xwiki:Main

  # Show what a configured job would change without writing
  index-sync sync --config config.yaml --job nightly --dry-run

  # Rebuild the index entries of one wiki
  index-sync sync --config config.yaml --root xwiki --overwrite

  # Reindex one document with all its translations, dropping stale ones
  index-sync sync --config config.yaml --root xwiki:Main/WebHome --overwrite`,
		RunE: runSync,
	}

	cmd.Flags().String("job", "", "Start from the settings of a configured job")
	cmd.Flags().String("root", "", "Root scope: wiki, wiki:Space.Sub or wiki:Space.Sub/Page (empty = everything)")
	cmd.Flags().Bool("overwrite", false, "Reindex every store document without diffing")
	cmd.Flags().Bool("remove-missing", true, "Delete index entries whose document is gone from the store")
	cmd.Flags().Bool("clean-invalid", false, "Remove malformed index entries before diffing")
	cmd.Flags().Bool("dry-run", false, "Compute and count the changes without applying them")
	cmd.Flags().String("format", "text", "Output format (text or json)")
	return cmd
}

// buildRequest starts from the named job, or the default request, and
// applies the flags that were set explicitly
func buildRequest(cmd *cobra.Command, cfg *config.Config) (string, job.Request, error) {
	name := oneShotJobName
	req := job.DefaultRequest()

	jobName, err := cmd.Flags().GetString("job")
	if err != nil {
		return "", job.Request{}, fmt.Errorf("failed to get job flag: %w", err)
	}
	if jobName != "" {
		jc := findJob(cfg, jobName)
		if jc == nil {
			return "", job.Request{}, fmt.Errorf("job %q is not configured", jobName)
		}
		if req, err = app.RequestFor(jc); err != nil {
			return "", job.Request{}, err
		}
		name = jobName
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		raw, _ := flags.GetString("root")
		if req.Root, err = reference.ParseScope(raw); err != nil {
			return "", job.Request{}, fmt.Errorf("invalid --root: %w", err)
		}
	}
	for flag, target := range map[string]*bool{
		"overwrite":      &req.Overwrite,
		"remove-missing": &req.RemoveMissing,
		"clean-invalid":  &req.CleanInvalid,
		"dry-run":        &req.DryRun,
	} {
		if flags.Changed(flag) {
			*target, _ = flags.GetBool(flag)
		}
	}
	return name, req, nil
}

func findJob(cfg *config.Config, name string) *config.JobConfig {
	for i := range cfg.Sync.Jobs {
		if cfg.Sync.Jobs[i].Name == name {
			return &cfg.Sync.Jobs[i]
		}
	}
	return nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	name, req, err := buildRequest(cmd, cfg)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(contextOrBackground(cmd)); err != nil {
			slog.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	index, err := app.OpenIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := index.Close(); err != nil {
			slog.Error("Failed to close index", "error", err)
		}
	}()

	j, err := app.NewJob(name, cfg, store, index, tel)
	if err != nil {
		return err
	}

	result, runErr := j.Run(ctx, req)
	if err := printResult(cmd.OutOrStdout(), format, req, result); err != nil {
		return err
	}
	return runErr
}

func printResult(w io.Writer, format string, req job.Request, result *job.Result) error {
	if result == nil {
		return nil
	}
	switch format {
	case "json":
		out := struct {
			Root   string      `json:"root"`
			DryRun bool        `json:"dry_run"`
			Result *job.Result `json:"result"`
		}{Root: req.Root.String(), DryRun: req.DryRun, Result: result}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "text", "":
		prefix := ""
		if req.DryRun {
			prefix = "dry run: "
		}
		_, err := fmt.Fprintf(w, "%s%s invalid=%d duration=%s\n", prefix, result.Summary(), result.Invalid, result.Duration)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
