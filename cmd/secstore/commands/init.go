package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confkit/securestore"
)

// NewInitCommand creates the init command.
func NewInitCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the secret store and seed the master key",
		Long: `Init generates a master key if the configured key store does not
hold one yet, then creates the encrypted store file.

Running init against an existing store is safe: a present master key
and store file are left untouched.`,
		Example: `  secstore init
  secstore --config prod.yaml init`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cfg.Load(); err != nil {
				return err
			}
			ks, closeFn, err := cfg.openKeyStore(ctx)
			if err != nil {
				return err
			}
			if closeFn != nil {
				defer closeFn() //nolint:errcheck
			}

			_, err = ks.Get(ctx, cfg.KeyStore.Item)
			switch {
			case errors.Is(err, securestore.ErrKeyNotFound):
				key, genErr := securestore.GenerateMasterKey()
				if genErr != nil {
					return genErr
				}
				if setErr := ks.Set(ctx, cfg.KeyStore.Item, key); setErr != nil {
					return fmt.Errorf("failed to seed master key: %w", setErr)
				}
				cmd.Printf("Generated master key and stored it as %q\n", cfg.KeyStore.Item)
			case err != nil:
				return err
			default:
				cmd.Printf("Master key %q already present, keeping it\n", cfg.KeyStore.Item)
			}

			provider, err := securestore.NewProvider(map[string]securestore.Binding{
				securestore.MasterKeyName: {Store: ks, Item: cfg.KeyStore.Item},
			})
			if err != nil {
				return err
			}
			store, err := securestore.Open(ctx, cfg.StoreFile, provider)
			if err != nil {
				return err
			}
			cmd.Printf("Secret store ready at %s\n", store.Path())
			return nil
		},
	}
}
