// Package report imports body-composition CSV exports from scales and
// clinics.
package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/storage"
)

// ErrNoDateColumn is returned when the header has no recognizable date column.
var ErrNoDateColumn = errors.New("no date column in header")

var (
	// headerUnitRe matches: Skeletal Muscle Mass(kg), Percent Body Fat [%]
	headerUnitRe = regexp.MustCompile(`^(.*?)\s*[(\[]([^)\]]*)[)\]]\s*$`)

	// digitsOnlyRe matches compact dates such as 20260219093000.
	digitsOnlyRe = regexp.MustCompile(`^\d{8}(\d{4}(\d{2})?)?$`)
)

// columnNames maps normalized header labels from scale exports to biomarkers.
var columnNames = map[string]models.BiomarkerName{
	"weight":                 models.Weight,
	"body weight":            models.Weight,
	"height":                 models.Height,
	"skeletal muscle mass":   models.SkeletalMuscleMass,
	"smm":                    models.SkeletalMuscleMass,
	"body fat mass":          models.BodyFatMass,
	"bfm":                    models.BodyFatMass,
	"percent body fat":       models.BodyFatPct,
	"body fat percentage":    models.BodyFatPct,
	"body fat":               models.BodyFatPct,
	"pbf":                    models.BodyFatPct,
	"bmi":                    models.BMI,
	"body mass index":        models.BMI,
	"visceral fat area":      models.VisceralFatArea,
	"vfa":                    models.VisceralFatArea,
	"right arm lean mass":    models.SegmentalLeanRightArm,
	"lean mass of right arm": models.SegmentalLeanRightArm,
	"left arm lean mass":     models.SegmentalLeanLeftArm,
	"lean mass of left arm":  models.SegmentalLeanLeftArm,
	"trunk lean mass":        models.SegmentalLeanTrunk,
	"lean mass of trunk":     models.SegmentalLeanTrunk,
	"right leg lean mass":    models.SegmentalLeanRightLeg,
	"lean mass of right leg": models.SegmentalLeanRightLeg,
	"left leg lean mass":     models.SegmentalLeanLeftLeg,
	"lean mass of left leg":  models.SegmentalLeanLeftLeg,
}

var dateColumns = map[string]bool{"date": true, "test date": true, "datetime": true, "measured at": true}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
	"20060102150405",
	"200601021504",
	"20060102",
}

// column is one mapped value column of an export.
type column struct {
	index     int
	biomarker models.BiomarkerName
	unit      string
}

// Export is a parsed body-composition export.
type Export struct {
	Rows     int
	Readings []storage.Reading
	// Unmapped lists header labels that are not biomarkers.
	Unmapped []string
}

// Parse reads a scale or clinic body-composition CSV export: one header row
// naming the columns (units in parentheses) and one row per measurement.
// Both comma and semicolon delimiters are accepted; with semicolons, decimal
// commas are too. Empty and "-" cells are skipped.
func Parse(r io.Reader) (*Export, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	semicolon := detectSemicolon(first)

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if semicolon {
		cr.Comma = ';'
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty export")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	dateIdx := -1
	var cols []column
	out := &Export{}
	for i, h := range header {
		label, unit := splitHeader(h)
		if dateColumns[label] {
			dateIdx = i
			continue
		}
		name, ok := columnNames[label]
		if !ok {
			if _, known := models.LookupBiomarker(models.BiomarkerName(label)); known {
				name, ok = models.BiomarkerName(label), true
			}
		}
		if !ok {
			if label != "" {
				out.Unmapped = append(out.Unmapped, strings.TrimSpace(h))
			}
			continue
		}
		cols = append(cols, column{index: i, biomarker: name, unit: unit})
	}
	if dateIdx < 0 {
		return nil, ErrNoDateColumn
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if dateIdx >= len(rec) || strings.TrimSpace(rec[dateIdx]) == "" {
			continue
		}
		at, err := parseDate(rec[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out.Rows++

		for _, c := range cols {
			if c.index >= len(rec) {
				continue
			}
			cell := strings.TrimSpace(rec[c.index])
			if cell == "" || cell == "-" {
				continue
			}
			v, err := parseNumber(cell, semicolon)
			if err != nil {
				return nil, fmt.Errorf("line %d, %s: %w", line, c.biomarker, err)
			}
			out.Readings = append(out.Readings, storage.Reading{
				Metric: string(c.biomarker),
				Units:  c.unit,
				Qty:    v,
				Time:   at,
			})
		}
	}
	return out, nil
}

// detectSemicolon reports whether the header line uses ';' as delimiter.
func detectSemicolon(b []byte) bool {
	line := string(b)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.Count(line, ";") > strings.Count(line, ",")
}

// splitHeader returns the normalized label and unit of a header cell.
// "Skeletal Muscle Mass(kg)" -> ("skeletal muscle mass", "kg")
func splitHeader(h string) (label, unit string) {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	if m := headerUnitRe.FindStringSubmatch(h); m != nil {
		h, unit = m[1], strings.TrimSpace(m[2])
	}
	label = strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(h, "_", " ")), " "))
	if _, ok := models.LookupBiomarker(models.BiomarkerName(strings.ReplaceAll(label, " ", "_"))); ok {
		label = strings.ReplaceAll(label, " ", "_")
	}
	return label, unit
}

// parseNumber handles decimal commas in semicolon-delimited exports.
// "24,1" -> 24.1
func parseNumber(s string, decimalComma bool) (float64, error) {
	if decimalComma {
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if digitsOnlyRe.MatchString(s) != isCompact(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}

func isCompact(layout string) bool {
	return !strings.ContainsAny(layout, "-.:")
}
