package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	dto "github.com/turtacn/ToxInsight/pkg/types/molecule"
)

const (
	imageFile3D = "molecule.png"
	imageFile2D = "molecule_2d.svg"
)

// NewConvertCmd creates the convert command.
func NewConvertCmd() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "convert <smiles>",
		Short: "Convert a SMILES string to a 3D MOL block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cc.Timeout)
			defer cancel()

			resp, err := cc.Client.Convert(ctx, args[0])
			if err != nil {
				return err
			}
			if outFile != "" {
				if err := os.WriteFile(outFile, []byte(resp.MolBlock), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", outFile, err)
				}
				cc.Logger.Info("MOL block written", logging.String("path", outFile))
			}
			return PrintResult(cmd, resp, func() string {
				return resp.Message + "\n" + resp.MolBlock
			})
		},
	}
	cmd.Flags().StringVarP(&outFile, "file", "f", "", "also write the MOL block to this path")
	return cmd
}

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	var prompt, imageDir string
	cmd := &cobra.Command{
		Use:   "analyze <smiles>",
		Short: "Compute descriptors and Tox21 predictions, optionally asking the assistant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cc.Timeout)
			defer cancel()

			resp, err := cc.Client.Analyze(ctx, args[0], prompt)
			if err != nil {
				return err
			}
			if imageDir != "" {
				written, err := saveImages(imageDir, resp)
				if err != nil {
					return err
				}
				for _, p := range written {
					cc.Logger.Info("depiction written", logging.String("path", p))
				}
			}
			return PrintResult(cmd, resp, func() string { return formatAnalysis(resp) })
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "question for the language model")
	cmd.Flags().StringVar(&imageDir, "image-dir", "", "directory to write the returned depictions to")
	return cmd
}

// NewChartCmd creates the chart command.
func NewChartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chart <smiles>",
		Short: "Print the toxic-class probability for each Tox21 endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cc.Timeout)
			defer cancel()

			resp, err := cc.Client.Chart(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, resp, func() string { return formatChart(resp) })
		},
	}
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// No server connection needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "toxinsight %s (commit: %s, built: %s)\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}

func formatAnalysis(resp *dto.AnalyzeResponse) string {
	var sb strings.Builder
	if resp.Error != "" {
		fmt.Fprintf(&sb, "Error: %s\n\n", resp.Error)
	}

	if len(resp.Properties) > 0 {
		if name := resp.Properties[molecule.KeyMoleculeName]; name != "" {
			fmt.Fprintf(&sb, "Molecule: %s\n\n", name)
		}
		keys := make([]string, 0, len(resp.Properties))
		for k := range resp.Properties {
			if k != molecule.KeyMoleculeName {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, resp.Properties[k]})
		}
		sb.WriteString(FormatTable([]string{"PROPERTY", "VALUE"}, rows))
		sb.WriteString("\n")
	}

	if resp.Toxicity.Failed() {
		fmt.Fprintf(&sb, "Toxicity: %s\n", resp.Toxicity.Error)
	} else if len(resp.Toxicity.Predictions) > 0 {
		rows := make([][]string, 0, len(resp.Toxicity.Predictions))
		for _, ep := range molecule.Tox21Endpoints {
			if p, ok := resp.Toxicity.Predictions[string(ep)]; ok {
				rows = append(rows, []string{string(ep), p.Prediction, p.Confidence})
			}
		}
		sb.WriteString(FormatTable([]string{"ENDPOINT", "PREDICTION", "CONFIDENCE"}, rows))
	}

	if resp.GeminiResponse != "" {
		fmt.Fprintf(&sb, "\nAssistant:\n%s\n", resp.GeminiResponse)
	}
	return sb.String()
}

func formatChart(resp *dto.ChartResponse) string {
	rows := make([][]string, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		bar := strings.Repeat("#", int(p.Value*40+0.5))
		rows = append(rows, []string{p.Endpoint, fmt.Sprintf("%.3f", p.Value), bar})
	}
	return FormatTable([]string{"ENDPOINT", "P(TOXIC)", ""}, rows)
}

// saveImages decodes the base64 depictions in resp into dir. Missing images
// are skipped.
func saveImages(dir string, resp *dto.AnalyzeResponse) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	var written []string
	for name, img := range map[string]*string{imageFile3D: resp.MoleculeImage, imageFile2D: resp.MoleculeImage2D} {
		if img == nil || *img == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(*img)
		if err != nil {
			return written, fmt.Errorf("decoding %s: %w", name, err)
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", p, err)
		}
		written = append(written, p)
	}
	sort.Strings(written)
	return written, nil
}

//Personal.AI order the ending
