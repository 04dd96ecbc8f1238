package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/registrylabs/rdapnorm"
	"github.com/registrylabs/rdapnorm/config"
	"github.com/registrylabs/rdapnorm/pipeline"
)

func normalizeCmd(verbose *bool) *cobra.Command {
	var (
		registry     string
		jurisdiction string
		legalBasis   string
		redactPII    bool
		configPath   string
	)

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Normalize one raw RDAP response (file or stdin) to canonical JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args)
			if err != nil {
				return err
			}

			opts := []pipeline.Option{pipeline.WithLogger(newLogger(*verbose))}
			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg.ApplyMappings()
				opts = append(opts, pipeline.WithRedactionPolicy(cfg.RedactionPolicy()))
			}

			doc, err := pipeline.New(opts...).Normalize(raw, rdapnorm.NormalizationContext{
				Jurisdiction: jurisdiction,
				LegalBasis:   legalBasis,
				RedactPII:    redactPII,
				RegistryID:   registry,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}

	cmd.Flags().StringVar(&registry, "registry", "", "registry id (verisign, arin, ripe, ...)")
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "jurisdiction code for the PII policy (EU, US, ...)")
	cmd.Flags().StringVar(&legalBasis, "legal-basis", "", "legal basis recorded with the request")
	cmd.Flags().BoolVar(&redactPII, "redact", true, "apply PII redaction")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config with policy and mapping overrides")

	return cmd
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(args[0]) //nolint:gosec // G304: caller controls path
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}
