package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/registrylabs/rdapnorm"
	"github.com/registrylabs/rdapnorm/cachesec"
	"github.com/registrylabs/rdapnorm/config"
)

func verifyEntryCmd(verbose *bool) *cobra.Command {
	var (
		masterKeyHex string
		tenantID     string
		configPath   string
	)

	cmd := &cobra.Command{
		Use:   "verify-entry [file]",
		Short: "Run a cache entry (file or stdin) through the five-layer validator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args)
			if err != nil {
				return err
			}
			var entry rdapnorm.CacheEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return fmt.Errorf("parsing cache entry: %w", err)
			}

			masterKey, err := hex.DecodeString(masterKeyHex)
			if err != nil {
				return fmt.Errorf("parsing --master-key-hex: %w", err)
			}

			opts := []cachesec.ValidatorOption{cachesec.WithLogger(newLogger(*verbose))}
			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				opts = append(opts, cachesec.WithLimits(cfg.CacheLimits()))
			}
			validator, err := cachesec.NewValidator(masterKey, opts...)
			if err != nil {
				return err
			}

			state, verr := validator.Validate(&entry, tenantID)
			if state == cachesec.StateValid {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			}
			return verr
		},
	}

	cmd.Flags().StringVar(&masterKeyHex, "master-key-hex", "", "hex-encoded master signing key (required)")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id the read is scoped to")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config with cache limits")
	_ = cmd.MarkFlagRequired("master-key-hex")

	return cmd
}
