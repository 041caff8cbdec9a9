// cmd/scenario.go
package cmd

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	arctic "github.com/arctic-cti/core"
	"github.com/arctic-cti/core/ccd"
	"github.com/arctic-cti/core/roe"
	"github.com/arctic-cti/core/traps"
)

// Scenario holds a complete demo run, loadable from a YAML file. Nil pointer
// fields mean "not set in YAML"; the CLI fills sensible defaults after
// loading. Follows the teacher's PolicyBundle pattern (sim/bundle.go):
// strict decoding, a Validate() method that checks the scenario's shape
// before any simulation runs.
type Scenario struct {
	Image               ImageConfig  `yaml:"image"`
	Traps               []TrapConfig `yaml:"traps"`
	CCD                 CCDConfig    `yaml:"ccd"`
	ROE                 ROEConfig    `yaml:"roe"`
	Express             int          `yaml:"express"`
	Operation           string       `yaml:"operation"`  // "add" or "remove"
	Iterations          int          `yaml:"iterations"` // only for "remove"
	AllowNegativePixels *bool        `yaml:"allow_negative_pixels"`
	Verbosity           int          `yaml:"verbosity"`
}

// ImageConfig declaratively synthesises an in-memory image: rows x cols of
// zeros, with Pixels overlaid. There is no image-file codec (out of scope);
// this is the CLI's only way to describe an image.
type ImageConfig struct {
	Rows   int           `yaml:"rows"`
	Cols   int           `yaml:"cols"`
	Pixels []PixelConfig `yaml:"pixels"`
}

// PixelConfig sets one non-zero pixel.
type PixelConfig struct {
	Row   int     `yaml:"row"`
	Col   int     `yaml:"col"`
	Value float64 `yaml:"value"`
}

// TrapConfig describes one trap species row, mirroring
// traps.LoadPopulationCSV's column set but in YAML form.
type TrapConfig struct {
	Kind              string  `yaml:"kind"`
	Density           float64 `yaml:"density"`
	ReleaseTimescale  float64 `yaml:"release_timescale"`
	CaptureTimescale  float64 `yaml:"capture_timescale"`
	Sigma             float64 `yaml:"sigma"`
	VolumeNoneExposed float64 `yaml:"volume_none_exposed"`
	VolumeFullExposed float64 `yaml:"volume_full_exposed"`
}

// CCDConfig describes a single-phase CCD (the common case for the CLI demo;
// multi-phase CCDs are exercised directly through the Go API and tests).
type CCDConfig struct {
	FullWellDepth     float64 `yaml:"full_well_depth"`
	WellNotchDepth    float64 `yaml:"well_notch_depth"`
	WellFillPower     float64 `yaml:"well_fill_power"`
	FirstElectronFill float64 `yaml:"first_electron_fill"`
}

// ROEConfig describes a Standard-clocking ROE (the CLI demo's default; other
// ROE types are reachable through the Go API).
type ROEConfig struct {
	DwellTimes                  []float64 `yaml:"dwell_times"`
	PrescanOffset               int       `yaml:"prescan_offset"`
	OverscanStart               int       `yaml:"overscan_start"`
	EmptyTrapsBetweenColumns    bool      `yaml:"empty_traps_between_columns"`
	EmptyTrapsForFirstTransfers bool      `yaml:"empty_traps_for_first_transfers"`
	ForceReleaseAwayFromReadout bool      `yaml:"force_release_away_from_readout"`
	UseIntegerExpressMatrix     bool      `yaml:"use_integer_express_matrix"`
}

// LoadScenario reads and strictly parses a YAML scenario file: unrecognized
// keys (typos) are rejected, same discipline as sim.LoadPolicyBundle.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}
	return &s, nil
}

// Validate checks the scenario's shape before any simulation runs: image
// size and pixel bounds, a non-empty trap list, the operation and its
// iteration count, non-empty dwell_times and a numeric full_well_depth.
// Trap, CCD and ROE parameter invariants are not checked here; the
// traps/ccd/roe constructors reject them when buildDirection runs.
func (s *Scenario) Validate() error {
	if s.Image.Rows <= 0 || s.Image.Cols <= 0 {
		return fmt.Errorf("image.rows and image.cols must be > 0, got %dx%d", s.Image.Rows, s.Image.Cols)
	}
	for _, p := range s.Image.Pixels {
		if p.Row < 0 || p.Row >= s.Image.Rows || p.Col < 0 || p.Col >= s.Image.Cols {
			return fmt.Errorf("pixel (%d,%d) outside image bounds %dx%d", p.Row, p.Col, s.Image.Rows, s.Image.Cols)
		}
	}
	if len(s.Traps) == 0 {
		return fmt.Errorf("at least one trap species is required")
	}
	if s.Operation != "add" && s.Operation != "remove" {
		return fmt.Errorf("operation must be %q or %q, got %q", "add", "remove", s.Operation)
	}
	if s.Operation == "remove" && s.Iterations <= 0 {
		return fmt.Errorf("iterations must be > 0 for operation=remove")
	}
	if len(s.ROE.DwellTimes) == 0 {
		return fmt.Errorf("roe.dwell_times must have at least one entry")
	}
	if math.IsNaN(s.CCD.FullWellDepth) {
		return fmt.Errorf("ccd.full_well_depth must be a number")
	}
	return nil
}

// buildSpecies turns the YAML trap rows into validated traps.Species values.
func (s *Scenario) buildSpecies() ([]traps.Species, error) {
	species := make([]traps.Species, 0, len(s.Traps))
	for i, t := range s.Traps {
		var (
			sp  traps.Species
			err error
		)
		switch t.Kind {
		case "instant_capture":
			sp, err = traps.NewInstantCapture(t.Density, t.ReleaseTimescale, t.VolumeNoneExposed, t.VolumeFullExposed)
		case "slow_capture":
			sp, err = traps.NewSlowCapture(t.Density, t.ReleaseTimescale, t.CaptureTimescale)
		case "instant_capture_continuum":
			sp, err = traps.NewInstantCaptureContinuum(t.Density, t.ReleaseTimescale, t.Sigma)
		case "slow_capture_continuum":
			sp, err = traps.NewSlowCaptureContinuum(t.Density, t.ReleaseTimescale, t.Sigma, t.CaptureTimescale)
		default:
			err = fmt.Errorf("unknown trap kind %q", t.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("traps[%d]: %w", i, err)
		}
		species = append(species, sp)
	}
	return species, nil
}

func (s *Scenario) buildCCD() (ccd.CCD, error) {
	return ccd.SinglePhase(s.CCD.FullWellDepth, s.CCD.WellNotchDepth, s.CCD.WellFillPower, s.CCD.FirstElectronFill)
}

func (s *Scenario) buildROE() (roe.ROE, error) {
	overscanStart := s.ROE.OverscanStart
	if overscanStart == 0 {
		overscanStart = -1
	}
	return roe.NewStandard(
		s.ROE.DwellTimes,
		s.ROE.PrescanOffset,
		overscanStart,
		s.ROE.EmptyTrapsBetweenColumns,
		s.ROE.EmptyTrapsForFirstTransfers,
		s.ROE.ForceReleaseAwayFromReadout,
		s.ROE.UseIntegerExpressMatrix,
	)
}

func (s *Scenario) allowNegativePixels() bool {
	if s.AllowNegativePixels == nil {
		return true
	}
	return *s.AllowNegativePixels
}

// buildDirection assembles the species, CCD and ROE into the single
// DirectionParams the CLI demo applies (the scenario YAML only describes
// one clocking direction; parallel-plus-serial scenarios are reached
// through the Go API directly).
func (s *Scenario) buildDirection() (*arctic.DirectionParams, error) {
	species, err := s.buildSpecies()
	if err != nil {
		return nil, err
	}
	ccdObj, err := s.buildCCD()
	if err != nil {
		return nil, fmt.Errorf("ccd: %w", err)
	}
	roeObj, err := s.buildROE()
	if err != nil {
		return nil, fmt.Errorf("roe: %w", err)
	}
	return &arctic.DirectionParams{
		Species: species,
		CCD:     ccdObj,
		ROE:     roeObj,
		Express: s.Express,
	}, nil
}
