package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewSetCommand creates the set command.
func NewSetCommand(cfg *Config) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set NAME [VALUE]",
		Short: "Store a secret",
		Long: `Set encrypts a secret under the given name and persists the store.
An existing secret with the same name is replaced.

With --stdin the value is read from standard input instead of the
command line, keeping it out of the shell history.`,
		Example: `  secstore set db_password hunter2
  echo -n "hunter2" | secstore set db_password --stdin`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			var value string
			switch {
			case fromStdin:
				if len(args) > 1 {
					return fmt.Errorf("cannot combine --stdin with a VALUE argument")
				}
				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read value from stdin: %w", err)
				}
				value = strings.TrimRight(line, "\r\n")
			case len(args) == 2:
				value = args[1]
			default:
				return fmt.Errorf("VALUE argument or --stdin is required")
			}

			ctx := cmd.Context()
			sess, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer sess.Close() //nolint:errcheck

			if err := sess.store.StoreSecret(name, value); err != nil {
				return err
			}
			if err := sess.store.Save(ctx); err != nil {
				return err
			}
			cmd.Printf("Stored %q\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the value from standard input")
	return cmd
}
