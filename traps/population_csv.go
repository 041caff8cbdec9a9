package traps

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// populationCSVHeader lists the required columns, in order, for a trap
// population table. sigma and capture_timescale are 0.0 for kinds that
// ignore them, and volume_none_exposed/volume_full_exposed are 0.0 for
// kinds other than instant_capture.
var populationCSVHeader = []string{
	"kind", "density", "release_timescale", "capture_timescale", "sigma",
	"volume_none_exposed", "volume_full_exposed",
}

// LoadPopulationCSV reads a trap-population table such as those used to
// calibrate a CCD's measured trap inventory against observed trails, one
// row per species. Grounded on the teacher's CSV-table loading discipline
// (sim/mfu_database.go): a strict header check, one error naming the
// offending row for any malformed value, no silent coercion of bad data.
func LoadPopulationCSV(path string) ([]Species, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("traps: open population CSV: %w", err)
	}
	defer func() { _ = f.Close() }()
	return parsePopulationCSV(f)
}

func parsePopulationCSV(r io.Reader) ([]Species, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("traps: read population CSV: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("traps: population CSV is empty")
	}
	header := records[0]
	if len(header) < len(populationCSVHeader) {
		return nil, fmt.Errorf("traps: population CSV header has %d columns, want %d (%s)",
			len(header), len(populationCSVHeader), strings.Join(populationCSVHeader, ","))
	}
	for i, want := range populationCSVHeader {
		if strings.TrimSpace(header[i]) != want {
			return nil, fmt.Errorf("traps: population CSV column %d is %q, want %q", i+1, header[i], want)
		}
	}

	var out []Species
	for i, row := range records[1:] {
		rowNum := i + 2
		if len(row) < len(populationCSVHeader) {
			return nil, fmt.Errorf("traps: population CSV row %d: expected %d columns", rowNum, len(populationCSVHeader))
		}
		fields := make([]float64, 5)
		for j, col := range row[1:6] {
			v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
			if err != nil {
				return nil, fmt.Errorf("traps: population CSV row %d: invalid %s: %w", rowNum, populationCSVHeader[j+1], err)
			}
			fields[j] = v
		}
		density, releaseTimescale, captureTimescale, sigma, windowLo := fields[0], fields[1], fields[2], fields[3], fields[4]
		windowHi, err := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		if err != nil {
			return nil, fmt.Errorf("traps: population CSV row %d: invalid volume_full_exposed: %w", rowNum, err)
		}

		var sp Species
		switch kind := strings.TrimSpace(strings.ToLower(row[0])); kind {
		case "instant_capture":
			sp, err = NewInstantCapture(density, releaseTimescale, windowLo, windowHi)
		case "slow_capture":
			sp, err = NewSlowCapture(density, releaseTimescale, captureTimescale)
		case "instant_capture_continuum":
			sp, err = NewInstantCaptureContinuum(density, releaseTimescale, sigma)
		case "slow_capture_continuum":
			sp, err = NewSlowCaptureContinuum(density, releaseTimescale, sigma, captureTimescale)
		default:
			return nil, fmt.Errorf("traps: population CSV row %d: unknown kind %q", rowNum, row[0])
		}
		if err != nil {
			return nil, fmt.Errorf("traps: population CSV row %d: %w", rowNum, err)
		}
		out = append(out, sp)
	}
	return out, nil
}
