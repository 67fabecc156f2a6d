package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confkit/securestore"
)

// NewRotateCommand creates the rotate command.
func NewRotateCommand(cfg *Config) *cobra.Command {
	var prepareOnly bool

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the master key",
		Long: `Rotate generates a new master key, stages the old one inside the
store encrypted under the new key, writes the new key to the key
store, and reopens the store to re-encrypt every secret.

With --prepare-only the command stops after writing the new key to
the key store; the re-encryption then happens automatically on the
next open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer sess.Close() //nolint:errcheck

			if !sess.store.Valid() {
				return fmt.Errorf("refusing to rotate: master key does not match store %s", sess.store.Path())
			}

			newKey, err := sess.store.PrepareAutoKeyExchange(ctx)
			if err != nil {
				return err
			}
			if err := sess.provider.Set(ctx, securestore.MasterKeyName, newKey); err != nil {
				return fmt.Errorf("new master key could not be written to the key store, old key still valid: %w", err)
			}
			cmd.Printf("New master key stored as %q\n", cfg.KeyStore.Item)

			if prepareOnly {
				cmd.Println("Rotation prepared; secrets are re-encrypted on next open")
				return nil
			}

			// The provider now serves the new key, so reopening
			// completes the exchange and re-encrypts every item.
			store, err := securestore.Open(ctx, cfg.StoreFile, sess.provider)
			if err != nil {
				return err
			}
			if !store.Valid() {
				return fmt.Errorf("rotation incomplete: store %s failed validation under the new key", store.Path())
			}
			cmd.Printf("Rotated master key, %d secrets re-encrypted\n", len(store.SecretNames()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&prepareOnly, "prepare-only", false, "Stage the rotation without re-encrypting now")
	return cmd
}
