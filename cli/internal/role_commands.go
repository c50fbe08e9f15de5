package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ferndale-labs/gatehouse/internal/domain/services"
)

// newRoleCommand creates the role command group
func newRoleCommand() *cobra.Command {
	roleCmd := &cobra.Command{
		Use:   "role",
		Short: "Manage roles",
	}

	roleCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := getCliContext(cmd)

			roles, err := ctx.Directory.Roles(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSLUG")
			for _, role := range roles {
				fmt.Fprintf(w, "%s\t%s\t%s\n", role.ID, role.Name, role.NormalizedName)
			}
			return w.Flush()
		},
	})

	roleCmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := getCliContext(cmd)

			role, err := ctx.Admin.CreateRole(cmd.Context(), services.CreateRoleCommand{
				Actor: ctx.Actor,
				Name:  args[0],
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created role %q (%s)\n", role.Name, role.ID)
			return nil
		},
	})

	roleCmd.AddCommand(&cobra.Command{
		Use:   "delete <role-id>",
		Short: "Delete a role and its memberships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := getCliContext(cmd)

			err := ctx.Admin.DeleteRole(cmd.Context(), services.DeleteRoleCommand{
				Actor:  ctx.Actor,
				RoleID: args[0],
			})
			if err != nil {
				return err
			}

			fmt.Printf("Deleted role %s\n", args[0])
			return nil
		},
	})

	roleCmd.AddCommand(&cobra.Command{
		Use:   "members <role-id>",
		Short: "List the members of a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := getCliContext(cmd)

			roleUsers, err := ctx.Directory.RoleUsers(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSER\tEMAIL")
			for _, user := range roleUsers.Members {
				fmt.Fprintf(w, "%s\t%s\t%s\n", user.ID, user.DisplayName(), user.Email)
			}
			return w.Flush()
		},
	})

	roleCmd.AddCommand(memberDeltaCommand("add-member", "Add a user to a role", true))
	roleCmd.AddCommand(memberDeltaCommand("remove-member", "Remove a user from a role", false))

	return roleCmd
}

// memberDeltaCommand builds the add-member/remove-member pair; the two
// differ only in which side of the sync delta carries the user
func memberDeltaCommand(verb, short string, add bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <role-id> <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := getCliContext(cmd)

			syncCmd := services.SyncRoleMembersCommand{
				Actor:  ctx.Actor,
				RoleID: args[0],
			}
			if add {
				syncCmd.AddIDs = []string{args[1]}
			} else {
				syncCmd.RemoveIDs = []string{args[1]}
			}

			report, err := ctx.Admin.SyncRoleMembers(cmd.Context(), syncCmd)
			if err != nil {
				return err
			}
			if rerr := report.Err(); rerr != nil {
				return rerr
			}
			for _, outcome := range report.Outcomes {
				if outcome.Skipped {
					return fmt.Errorf("user %s not found", outcome.ID)
				}
			}

			fmt.Printf("Updated members of role %s\n", args[0])
			return nil
		},
	}
}
