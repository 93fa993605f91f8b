package commands

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pdf-toolkit/internal/domain"
)

var (
	logLevel string
	noBar    bool
)

var rootCmd = &cobra.Command{
	Use:   "pdfconv",
	Short: "Convert, merge, split and compress PDF files",
	Long: `pdfconv runs the PDF toolkit conversions from the command line.
Each run converts the given files with one tool and writes the result
to the output directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or could not be loaded: %v", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noBar, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(toolsCmd, convertCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	if errors.Is(err, domain.ErrCancelled) {
		return 130
	}
	return 1
}
