// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	arctic "github.com/arctic-cti/core"
	"github.com/arctic-cti/core/correct"
	"github.com/arctic-cti/core/pixel"
)

var (
	scenarioPath string
	logLevel     string
	verbosity    int
)

var rootCmd = &cobra.Command{
	Use:   "arctic-cti",
	Short: "Charge-transfer-inefficiency simulator for CCD sensors",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a CTI scenario (add_cti or remove_cti) and print a summary",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		scenario, err := loadOrDefaultScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("loading scenario: %v", err)
		}
		if err := scenario.Validate(); err != nil {
			logrus.Fatalf("invalid scenario: %v", err)
		}
		scenario.Verbosity = verbosity

		if err := runScenario(scenario); err != nil {
			logrus.Fatalf("running scenario: %v", err)
		}
	},
}

// Execute runs the root command; main.go's only job is to call this.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a YAML scenario file (falls back to a built-in demo if empty)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().IntVar(&verbosity, "verbosity", 0, "Clocker/corrector verbosity (0 = quiet, 1 = per-clocking-pass and per-iteration progress)")

	rootCmd.AddCommand(runCmd)
}

// loadOrDefaultScenario loads path if given, otherwise falls back to a
// built-in scenario shaped like spec.md §8's S1: a single bright pixel
// clocked down a column with one InstantCapture species. There is no
// image-file codec; scenarios are YAML or this built-in default.
func loadOrDefaultScenario(path string) (*Scenario, error) {
	if path != "" {
		return LoadScenario(path)
	}
	allow := true
	return &Scenario{
		Image: ImageConfig{
			Rows:   20,
			Cols:   1,
			Pixels: []PixelConfig{{Row: 2, Col: 0, Value: 800}},
		},
		Traps: []TrapConfig{
			{Kind: "instant_capture", Density: 10, ReleaseTimescale: 1},
		},
		CCD: CCDConfig{
			FullWellDepth:     1000,
			WellNotchDepth:    0,
			WellFillPower:     1,
			FirstElectronFill: 0,
		},
		ROE: ROEConfig{
			DwellTimes:                  []float64{1},
			EmptyTrapsBetweenColumns:    true,
			ForceReleaseAwayFromReadout: true,
		},
		Operation:           "add",
		AllowNegativePixels: &allow,
	}, nil
}

// runScenario builds the image and the direction parameters, runs the
// requested operation, and prints a per-row trail summary (and, for
// remove_cti, convergence residuals) via logrus. No image-file I/O or
// plotting: the summary is the only output surface.
func runScenario(s *Scenario) error {
	img := pixel.New(s.Image.Rows, s.Image.Cols)
	for _, p := range s.Image.Pixels {
		img.Set(p.Row, p.Col, p.Value)
	}

	direction, err := s.buildDirection()
	if err != nil {
		return err
	}

	switch s.Operation {
	case "add":
		out, err := arctic.AddCTI(img, direction, nil, s.allowNegativePixels(), s.Verbosity)
		if err != nil {
			return err
		}
		printTrailSummary(out)
		return nil
	case "remove":
		estimate, residuals, err := arctic.RemoveCTI(img, s.Iterations, direction, nil, s.allowNegativePixels(), s.Verbosity)
		if err != nil {
			return err
		}
		printTrailSummary(estimate)
		printResiduals(residuals)
		return nil
	default:
		return fmt.Errorf("unknown operation %q", s.Operation)
	}
}

func printTrailSummary(img *pixel.Image) {
	for r := 0; r < img.Rows(); r++ {
		total := 0.0
		for c := 0; c < img.Cols(); c++ {
			total += img.At(r, c)
		}
		if total != 0 {
			logrus.Infof("row %3d: total electrons = %.3f", r, total)
		}
	}
}

func printResiduals(residuals []correct.Residual) {
	for _, res := range residuals {
		logrus.Infof("iteration %d: max|delta| = %.6g", res.Iteration, res.MaxAbsDelta)
	}
}
