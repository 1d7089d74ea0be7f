package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newIdentifyCmd(flags *globalFlags) *cobra.Command {
	var imageURL string
	var showPrediction bool

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Identify the plant in a single photo and print its details",
		Long: `Runs the same pipeline as POST /predict for one image URL and prints the
resulting plant info document as JSON.`,
		Example: `  # Identify a plant photo
  plantid identify --url https://example.com/tulsi.jpg

  # Include the raw classifier prediction
  plantid identify --url https://example.com/tulsi.jpg --prediction`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			service, model, err := buildService(cfg)
			if err != nil {
				return err
			}
			defer model.Close()

			result, err := service.Identify(cmd.Context(), imageURL)
			if err != nil {
				return err
			}

			var out any = result.Document
			if showPrediction {
				out = map[string]any{
					"prediction": result.Prediction,
					"plant_info": result.Document,
				}
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(out); err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&imageURL, "url", "", "Image URL to identify (required)")
	cmd.Flags().BoolVar(&showPrediction, "prediction", false, "Also print the classifier's index, label and score")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
