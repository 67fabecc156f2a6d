package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Print a secret value",
		Long: `Get decrypts the named secret and writes it to standard output
without a trailing newline, so it can be captured directly:

  export DB_PASSWORD=$(secstore get db_password)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer sess.Close() //nolint:errcheck

			value, ok := sess.store.RetrieveSecret(ctx, args[0])
			if !ok {
				return fmt.Errorf("secret %q not found", args[0])
			}
			fmt.Fprint(cmd.OutOrStdout(), value)
			return nil
		},
	}
}
