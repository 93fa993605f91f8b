package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pdf-toolkit/internal/domain"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available conversion tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printTools(cmd.OutOrStdout())
	},
}

func printTools(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tOUTPUT\tMIN FILES\tDESCRIPTION")
	for _, tool := range domain.AllTools() {
		info := tool.Info()
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", info.ID, info.OutputName, info.MinFiles, info.Title)
	}
	return tw.Flush()
}
