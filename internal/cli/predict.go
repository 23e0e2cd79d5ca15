package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kochabx/carelink/errors"
	"github.com/kochabx/carelink/service/waterquality"
)

func (c *CLI) predictCommand() *cobra.Command {
	var (
		file    string
		offline bool
		asJSON  bool
		values  = make(map[string]*float64, len(waterquality.Parameters))
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict whether a water sample is safe to drink",
		Long: "Score a water sample with the prediction service, or locally with the\n" +
			"threshold rule when --offline is given. Parameters come from --file and\n" +
			"may be overridden by flags.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sample, err := readSample(cmd, file, values)
			if err != nil {
				return err
			}

			var p *waterquality.Prediction
			if offline {
				p = waterquality.Offline(sample)
			} else {
				client, err := c.predictor()
				if err != nil {
					return err
				}
				if p, err = waterquality.New(client).Predict(cmd.Context(), sample); err != nil {
					return err
				}
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			printPrediction(cmd.OutOrStdout(), p)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&file, "file", "", "JSON sample file, - for stdin")
	flags.BoolVar(&offline, "offline", false, "use the local threshold rule")
	flags.BoolVar(&asJSON, "json", false, "print the full prediction as JSON")
	for _, p := range waterquality.Parameters {
		values[p.Name] = flags.Float64(strings.ReplaceAll(p.Name, "_", "-"), 0,
			fmt.Sprintf("%s, typically %g to %g", p.Name, p.Typical.Min, p.Typical.Max))
	}
	return cmd
}

// readSample merges the file, if any, with the parameter flags. Without a
// file every parameter flag is required.
func readSample(cmd *cobra.Command, file string, values map[string]*float64) (waterquality.Sample, error) {
	var s waterquality.Sample
	if file != "" {
		data, err := readInput(cmd, file)
		if err != nil {
			return s, err
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return s, errors.BadRequest("invalid sample file").WithCause(err)
		}
	}

	var missing []string
	for _, p := range waterquality.Parameters {
		flag := strings.ReplaceAll(p.Name, "_", "-")
		if cmd.Flags().Changed(flag) {
			_ = s.Set(p.Name, *values[p.Name])
			continue
		}
		if file == "" {
			missing = append(missing, "--"+flag)
		}
	}
	if len(missing) > 0 {
		return s, errors.BadRequest("missing parameters: %s", strings.Join(missing, ", "))
	}
	return s, nil
}

func printPrediction(w io.Writer, p *waterquality.Prediction) {
	fmt.Fprint(w, p.Prediction.SafetyStatus)
	if c := p.Prediction.Confidence; c != nil {
		fmt.Fprintf(w, " (confidence %.1f%%)", *c*100)
	} else {
		fmt.Fprint(w, " (threshold rule)")
	}
	fmt.Fprintln(w)
	for _, warning := range p.Validation.Warnings {
		fmt.Fprintln(w, "warning:", warning)
	}
}
