package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"offer-harvester/textgen"
)

func newGenerateCommand(a *app) *cobra.Command {
	var (
		provider  string
		model     string
		system    string
		maxTokens int
	)

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Send a prompt to the configured text-generation provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if provider == "" {
				provider = cfg.TextgenProvider
			}
			if model == "" {
				model = cfg.TextgenModel
			}

			client := textgen.New(textgen.Config{
				Provider:     provider,
				Model:        model,
				Temperature:  cfg.TextgenTemperature,
				OpenAIKey:    cfg.OpenAIKey,
				GoogleAPIKey: cfg.GoogleAPIKey,
			}, a.logger)

			resp := client.Generate(cmd.Context(), strings.Join(args, " "), textgen.Options{
				System:    system,
				MaxTokens: maxTokens,
			})
			if !resp.OK() {
				return errors.New(resp.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "openai or gemini (default TEXTGEN_PROVIDER)")
	cmd.Flags().StringVar(&model, "model", "", "model name (default TEXTGEN_MODEL or the provider default)")
	cmd.Flags().StringVar(&system, "system", "", "system instruction")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "maximum output tokens")
	return cmd
}
