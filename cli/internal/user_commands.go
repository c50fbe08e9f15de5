package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ferndale-labs/gatehouse/internal/domain/services"
)

// newUserCommand creates the user command group
func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	userCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := getCliContext(cmd)

			users, err := ctx.Directory.Users(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSER\tEMAIL\tENABLED")
			for _, user := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", user.ID, user.DisplayName(), user.Email, user.Enabled)
			}
			return w.Flush()
		},
	})

	userCmd.AddCommand(&cobra.Command{
		Use:   "show <user-id>",
		Short: "Show one user with their roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := getCliContext(cmd)

			details, err := ctx.Directory.UserDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("User:    %s (%s)\n", details.User.DisplayName(), details.User.ID)
			fmt.Printf("Email:   %s\n", details.User.Email)
			fmt.Printf("Enabled: %t\n", details.User.Enabled)
			fmt.Printf("Roles:   ")
			if len(details.MemberRoles) == 0 {
				fmt.Println("none")
			} else {
				for i, name := range details.MemberRoles {
					if i > 0 {
						fmt.Print(", ")
					}
					fmt.Print(name)
				}
				fmt.Println()
			}
			return nil
		},
	})

	userCmd.AddCommand(setEnabledCommand("enable", true))
	userCmd.AddCommand(setEnabledCommand("disable", false))

	return userCmd
}

// setEnabledCommand builds the enable/disable pair, which differ only in
// the target state
func setEnabledCommand(verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <user-id>",
		Short: verb + " a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := getCliContext(cmd)

			report, err := ctx.Admin.SyncUserRoles(cmd.Context(), services.SyncUserRolesCommand{
				Actor:   ctx.Actor,
				UserID:  args[0],
				Enabled: enabled,
			})
			if err != nil {
				return err
			}
			if rerr := report.Err(); rerr != nil {
				return rerr
			}

			fmt.Printf("User %s %sd\n", args[0], verb)
			return nil
		},
	}
}
