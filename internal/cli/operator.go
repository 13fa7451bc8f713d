package cli

import (
	"fmt"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/services"
	"github.com/spf13/cobra"
)

func (c *cli) newOperatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage logins of the management interface",
	}
	cmd.AddCommand(c.newOperatorAddCmd())
	return cmd
}

// newOperatorAddCmd bootstraps operators, including the first admin that
// the HTTP API cannot create by itself.
func (c *cli) newOperatorAddCmd() *cobra.Command {
	var in services.NewOperator
	var password string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add an operator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Username = args[0]
			in.Password = password
			if !cmd.Flags().Changed("password") {
				pw, err := promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
				in.Password = pw
			}

			op, err := c.app.operators.CreateOperator(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "operator %s created with ID %d (%s)\n", op.Username, op.ID, op.Role)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Fullname, "fullname", "", "full name")
	f.StringVar(&in.Role, "role", models.RoleUser, "role: admin or user")
	f.StringVar(&password, "password", "", "password (prompted when omitted)")

	return cmd
}
