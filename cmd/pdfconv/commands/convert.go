package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"pdf-toolkit/internal/config"
	"pdf-toolkit/internal/domain"
	"pdf-toolkit/internal/service"
	"pdf-toolkit/pkg/logger"
)

var outputDir string

var convertCmd = &cobra.Command{
	Use:   "convert <tool> <file.pdf>...",
	Short: "Run one conversion tool on local PDF files",
	Example: `  pdfconv convert pdf-to-text report.pdf
  pdfconv convert merge-pdf a.pdf b.pdf -o out/
  pdfconv convert split-pdf book.pdf`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tool, err := domain.ParseTool(args[0])
		if err != nil {
			return err
		}

		cfg, err := cliConfig(outputDir)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		container := config.NewContainerWithConfig(cfg, logger.NewLoggerWithWriter(logLevel, "console", cmd.ErrOrStderr()))
		return convert(ctx, container.Dispatcher, tool, args[1:], cfg.OutputDir, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for the converted file (default $OUTPUT_DIR or ./output)")
}

// cliConfig reads the environment for a local run. Output always goes to the
// local output directory, so remote storage settings are dropped.
func cliConfig(dir string) (*config.AppConfig, error) {
	cfg, ok := config.NewConfig().(*config.AppConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config type")
	}
	if dir != "" {
		cfg.OutputDir = dir
	}
	cfg.SupabaseURL = ""
	cfg.SupabaseKey = ""
	return cfg, nil
}

// runner is the part of the dispatcher the command drives.
type runner interface {
	RunWithProgress(ctx context.Context, tool domain.Tool, files []domain.FileHandle, progress domain.ProgressReporter) domain.Outcome
}

func convert(ctx context.Context, r runner, tool domain.Tool, paths []string, dir string, out, errOut io.Writer) error {
	files := make([]domain.FileHandle, len(paths))
	for i, p := range paths {
		files[i] = service.LocalFile{Path: p}
	}

	var progress domain.ProgressReporter = domain.NopProgress
	var bar *barReporter
	if !noBar {
		bar = newBarReporter(errOut, tool.Info().Title)
		progress = bar
	}

	outcome := r.RunWithProgress(ctx, tool, files, progress)
	if bar != nil && outcome.Completed() {
		bar.Finish()
	}

	switch outcome.Status {
	case domain.OutcomeCompleted:
	case domain.OutcomeCancelled:
		fmt.Fprintln(errOut)
		return domain.ErrCancelled
	default:
		fmt.Fprintln(errOut)
		if outcome.Err != nil {
			return outcome.Err
		}
		return fmt.Errorf("%s", outcome.Message)
	}

	// Immediate tools were already handed to the saver.
	if tool.Delivery() == domain.DeliverImmediate {
		if outcome.AutoSaved {
			fmt.Fprintln(out, outcome.Message)
			return nil
		}
		return fmt.Errorf("could not save %s", outcome.Artifact.Filename)
	}

	path, err := writeArtifact(dir, outcome.Artifact)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", path)
	return nil
}

func writeArtifact(dir string, a *domain.Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(a.Filename))
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
