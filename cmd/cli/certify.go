package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/turtacn/pnet/internal/application/dto"
	"github.com/turtacn/pnet/internal/bootstrap"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/utils"
)

// Demo case study: a public exploit against a critical Windows Server vulnerability,
// mitigated by access enforcement.
const (
	demoAsset   = "Microsoft Windows Server 2019"
	demoControl = "AC-3"
)

var demoFeatures = map[string]float64{
	constants.FeatureBaseScore:        9.8,
	constants.FeatureHasPublicExploit: 1,
}

func newCalibrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate",
		Short: "Rank features, explain the risk model and print the significance thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *bootstrap.Container) error {
				result, err := c.Service.Calibrate(cmd.Context())
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.printJSON(cmd.OutOrStdout(), result)
				}
				printCalibration(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
}

func newAssessCommand(opts *rootOptions) *cobra.Command {
	var (
		asset       string
		control     string
		assignments []string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Calibrate, then rate a control against one asset",
		Example: `  pnet-cert assess --asset "Microsoft Windows Server 2019" --control AC-3 \
    --set base_score=9.8 --set has_public_exploit=1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			features, err := parseFeatures(assignments)
			if err != nil {
				return err
			}
			req := &dto.AssessmentRequest{AssetName: asset, ControlID: control, Features: features}
			return opts.withContainer(cmd.Context(), func(c *bootstrap.Container) error {
				return runAssessment(cmd, opts, c, req)
			})
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "", "asset name (required)")
	cmd.Flags().StringVar(&control, "control", "", "control id from the catalog (required)")
	cmd.Flags().StringArrayVar(&assignments, "set", nil, "override an asset feature, name=value (repeatable)")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("control")
	return cmd
}

func newDemoCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the Windows Server 2019 / AC-3 case study end to end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &dto.AssessmentRequest{AssetName: demoAsset, ControlID: demoControl, Features: demoFeatures}
			return opts.withContainer(cmd.Context(), func(c *bootstrap.Container) error {
				return runAssessment(cmd, opts, c, req)
			})
		},
	}
}

func newControlsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "controls",
		Short: "List the control catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *bootstrap.Container) error {
				resp, err := c.Service.Controls(cmd.Context())
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.printJSON(cmd.OutOrStdout(), resp)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tDRIVER\tSAFE VALUE")
				for _, ctl := range resp.Controls {
					fmt.Fprintf(w, "%s\t%s\t%s\t%g\n", ctl.ID, ctl.Name, ctl.DriverFeature, ctl.SafeValue)
				}
				return w.Flush()
			})
		},
	}
}

func runAssessment(cmd *cobra.Command, opts *rootOptions, c *bootstrap.Container, req *dto.AssessmentRequest) error {
	ctx := cmd.Context()
	result, err := c.Service.Calibrate(ctx)
	if err != nil {
		return err
	}
	resp, err := c.Service.Assess(ctx, req)
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return opts.printJSON(cmd.OutOrStdout(), resp)
	}

	out := cmd.OutOrStdout()
	printCalibration(out, result)
	fmt.Fprintln(out)
	fmt.Fprintln(out, resp.Verdict.Evidence)
	fmt.Fprintf(out, "\nInherent risk level: %s\n", resp.RiskLevel)
	if resp.Attestation != "" {
		fmt.Fprintf(out, "Attestation: %s\n", resp.Attestation)
	}
	return nil
}

func printCalibration(w io.Writer, r *dto.CalibrationResult) {
	fmt.Fprintf(w, "Calibration %s (%s, %d rows, %s)\n", r.ID, r.Model, r.Rows, r.Duration)
	fmt.Fprintf(w, "Thresholds: critical=%.4f material=%.4f\n", r.Thresholds.Critical, r.Thresholds.Material)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tFEATURE\tIMPORTANCE\tMEAN |SHAP|")
	for i, name := range r.RankedFeatures {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%s\n", i+1, name, r.Combined[name], meanAbs(r, name))
	}
	_ = tw.Flush()
}

func meanAbs(r *dto.CalibrationResult, feature string) string {
	v, ok := r.Distribution.Get(feature)
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func parseFeatures(assignments []string) (map[string]float64, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	features := make(map[string]float64, len(assignments))
	for _, a := range assignments {
		name, raw, err := utils.ParseAssignment(a)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.ErrInvalidRequest(fmt.Sprintf("feature %s: %q is not a number", name, raw))
		}
		features[name] = v
	}
	return features, nil
}

//Personal.AI order the ending
