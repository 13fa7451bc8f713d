package cli

import (
	"fmt"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/services"
	"github.com/spf13/cobra"
)

func (c *cli) newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render CSV reports",
	}

	cmd.AddCommand(
		c.newReportWriteCmd("inactive", services.ReportInactiveUsers, "Accounts inactive beyond the configured threshold"),
		c.newReportWriteCmd("top", services.ReportTopUsage, "Accounts with the highest all-time usage"),
		c.newReportArchiveCmd(),
	)

	return cmd
}

func (c *cli) newReportWriteCmd(use, kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short + " (CSV on stdout)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.reports.WriteReport(cmd.Context(), kind, cmd.OutOrStdout())
		},
	}
}

func (c *cli) newReportArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "archive <" + services.ReportInactiveUsers + "|" + services.ReportTopUsage + ">",
		Short:     "Upload a report to object storage and print a download link",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{services.ReportInactiveUsers, services.ReportTopUsage},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, url, err := c.app.reports.ArchiveReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", key, url)
			return nil
		},
	}
}
