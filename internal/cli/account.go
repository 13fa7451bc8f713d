package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/services"
	"github.com/spf13/cobra"
)

func (c *cli) newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage hotspot accounts",
	}

	cmd.AddCommand(
		c.newAccountCreateCmd(),
		c.newAccountUpdateCmd(),
		c.newAccountDeleteCmd(),
		c.newAccountShowCmd(),
	)

	return cmd
}

func (c *cli) newAccountCreateCmd() *cobra.Command {
	var (
		in       models.NewAccount
		planID   int64
		password string
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an account with its credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Username = args[0]
			if cmd.Flags().Changed("plan") {
				in.PlanID = &planID
			}

			in.Password = password
			if !cmd.Flags().Changed("password") {
				pw, err := promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
				in.Password = pw
			}

			a, err := c.app.accounts.CreateAccount(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account %s created\n", a.Username)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Firstname, "firstname", "", "first name")
	f.StringVar(&in.Lastname, "lastname", "", "last name")
	f.StringVar(&in.Company, "company", "", "company")
	f.Int64Var(&planID, "plan", 0, "plan id")
	f.StringVar(&password, "password", "", "password (prompted when omitted)")

	return cmd
}

func (c *cli) newAccountUpdateCmd() *cobra.Command {
	var (
		firstname, lastname, company, password string
		planID                                 int64
		clearPlan, askPassword                 bool
	)

	cmd := &cobra.Command{
		Use:   "update <username>",
		Short: "Change profile fields, plan or password of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()

			var patch models.AccountPatch
			if f.Changed("firstname") {
				patch.Firstname = &firstname
			}
			if f.Changed("lastname") {
				patch.Lastname = &lastname
			}
			if f.Changed("company") {
				patch.Company = &company
			}
			if f.Changed("plan") {
				patch.PlanID = &planID
			}
			patch.ClearPlan = clearPlan

			switch {
			case f.Changed("password"):
				patch.Password = &password
			case askPassword:
				pw, err := promptPassword(cmd, "New password: ")
				if err != nil {
					return err
				}
				patch.Password = &pw
			}

			if patch.IsEmpty() {
				return common.Validationf("nothing to update")
			}

			a, err := c.app.accounts.UpdateAccount(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account %s updated\n", a.Username)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&firstname, "firstname", "", "first name")
	f.StringVar(&lastname, "lastname", "", "last name")
	f.StringVar(&company, "company", "", "company")
	f.Int64Var(&planID, "plan", 0, "plan id")
	f.BoolVar(&clearPlan, "clear-plan", false, "detach the account from its plan")
	f.StringVar(&password, "password", "", "new password")
	f.BoolVar(&askPassword, "ask-password", false, "prompt for a new password")
	cmd.MarkFlagsMutuallyExclusive("plan", "clear-plan")
	cmd.MarkFlagsMutuallyExclusive("password", "ask-password")

	return cmd
}

func (c *cli) newAccountDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account and all its credentials; usage history is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.accounts.DeleteAccount(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account %s deleted\n", args[0])
			return nil
		},
	}
}

func (c *cli) newAccountShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Show an account with its usage totals and last session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.app.sessions.AccountUsageDetail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if d == nil {
				return fmt.Errorf("account %s: %w", args[0], common.ErrNotFound)
			}
			return printDetail(cmd.OutOrStdout(), d)
		},
	}
}

func printDetail(w io.Writer, d *models.AccountUsageDetail) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	plan := "-"
	if d.PlanName != nil {
		plan = *d.PlanName
	}
	last := "never"
	if d.LastSessionAt != nil {
		last = d.LastSessionAt.Format(time.DateTime)
		if d.LastClientIP != nil {
			last += " from " + *d.LastClientIP
		}
		if d.LastClientMAC != nil {
			last += " (" + *d.LastClientMAC + ")"
		}
	}

	_, _ = fmt.Fprintf(tw, "Username:\t%s\n", d.Username)
	_, _ = fmt.Fprintf(tw, "Name:\t%s %s\n", d.Firstname, d.Lastname)
	_, _ = fmt.Fprintf(tw, "Company:\t%s\n", d.Company)
	_, _ = fmt.Fprintf(tw, "Plan:\t%s\n", plan)
	_, _ = fmt.Fprintf(tw, "Created:\t%s\n", d.CreatedAt.Format(time.DateTime))
	_, _ = fmt.Fprintf(tw, "Download:\t%.2f GB\n", services.BytesToGB(d.TotalDownload))
	_, _ = fmt.Fprintf(tw, "Upload:\t%.2f GB\n", services.BytesToGB(d.TotalUpload))
	_, _ = fmt.Fprintf(tw, "Last session:\t%s\n", last)
	return tw.Flush()
}
