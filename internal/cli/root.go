// Package cli implements hotspotctl, the administrative command line for the
// hotspot account store: schema migration, account lifecycle, operator
// bootstrap and CSV reports.
package cli

import (
	"context"
	"io"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/config"
	"github.com/spf13/cobra"
)

type wireFunc func(ctx context.Context, cfg *config.Config) (*app, error)

type cli struct {
	wire       wireFunc
	app        *app
	configPath string
	dsn        string
}

// Run executes the command line in args and releases the pool afterwards.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	c := &cli{wire: wireApp}
	defer c.close()

	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "hotspotctl",
		Short:             "Administer hotspot accounts, operators and reports",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to JSON config file")
	root.PersistentFlags().StringVarP(&c.dsn, "dsn", "d", "", "PostgreSQL DSN, overrides the config file")

	root.AddCommand(
		c.newMigrateCmd(),
		c.newAccountCmd(),
		c.newOperatorCmd(),
		c.newReportCmd(),
	)
	return root
}

// setup loads the config and wires the services once flags are parsed.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.app != nil {
		return nil
	}

	var args []string
	if c.configPath != "" {
		args = append(args, "-c", c.configPath)
	}
	if c.dsn != "" {
		args = append(args, "-d", c.dsn)
	}
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	a, err := c.wire(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() {
	if c.app != nil && c.app.close != nil {
		_ = c.app.close()
	}
}

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.migrate(cmd.Context()); err != nil {
				return err
			}
			_, _ = cmd.OutOrStdout().Write([]byte("migrations applied\n"))
			return nil
		},
	}
}
