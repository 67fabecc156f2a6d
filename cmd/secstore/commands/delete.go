package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"del", "rm"},
		Short:   "Remove a secret",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer sess.Close() //nolint:errcheck

			if !sess.store.DeleteSecret(args[0]) {
				return fmt.Errorf("secret %q not found", args[0])
			}
			if err := sess.store.Save(ctx); err != nil {
				return err
			}
			cmd.Printf("Deleted %q\n", args[0])
			return nil
		},
	}
}
