// Package models holds the biomarker, exercise and plan types shared by the
// optimizer and its interfaces.
package models

import (
	"encoding/json"
	"sort"
)

// BiomarkerName identifies a body-composition measurement from a report.
type BiomarkerName string

const (
	SkeletalMuscleMass    BiomarkerName = "skeletal_muscle_mass"
	BodyFatPct            BiomarkerName = "body_fat_pct"
	BodyFatMass           BiomarkerName = "body_fat_mass"
	BMI                   BiomarkerName = "bmi"
	VisceralFatArea       BiomarkerName = "visceral_fat_area"
	Weight                BiomarkerName = "weight"
	Height                BiomarkerName = "height"
	SegmentalLeanRightArm BiomarkerName = "segmental_lean_mass_right_arm"
	SegmentalLeanLeftArm  BiomarkerName = "segmental_lean_mass_left_arm"
	SegmentalLeanTrunk    BiomarkerName = "segmental_lean_mass_trunk"
	SegmentalLeanRightLeg BiomarkerName = "segmental_lean_mass_right_leg"
	SegmentalLeanLeftLeg  BiomarkerName = "segmental_lean_mass_left_leg"
)

// BiomarkerSpec describes one accepted biomarker: its canonical unit and the
// physiologically plausible range a reading must fall in.
type BiomarkerSpec struct {
	Name        BiomarkerName `json:"name"`
	Unit        string        `json:"unit"`
	Min         float64       `json:"min"`
	Max         float64       `json:"max"`
	Required    bool          `json:"required"`
	Description string        `json:"description"`
}

// BiomarkerCatalog lists every biomarker the normalizer accepts, in report order.
var BiomarkerCatalog = []BiomarkerSpec{
	{Name: SkeletalMuscleMass, Unit: "kg", Min: 10, Max: 70, Required: true, Description: "Skeletal muscle mass"},
	{Name: BodyFatPct, Unit: "%", Min: 3, Max: 60, Required: true, Description: "Percent body fat (derived from body_fat_mass and weight when absent)"},
	{Name: BMI, Unit: "kg/m2", Min: 12, Max: 60, Required: true, Description: "Body mass index (derived from weight and height when absent)"},
	{Name: VisceralFatArea, Unit: "cm2", Min: 10, Max: 400, Description: "Visceral fat area"},
	{Name: Weight, Unit: "kg", Min: 25, Max: 300, Description: "Body weight"},
	{Name: Height, Unit: "cm", Min: 100, Max: 230, Description: "Standing height"},
	{Name: BodyFatMass, Unit: "kg", Min: 1, Max: 150, Description: "Body fat mass"},
	{Name: SegmentalLeanRightArm, Unit: "kg", Min: 0.5, Max: 10, Description: "Segmental lean mass, right arm"},
	{Name: SegmentalLeanLeftArm, Unit: "kg", Min: 0.5, Max: 10, Description: "Segmental lean mass, left arm"},
	{Name: SegmentalLeanTrunk, Unit: "kg", Min: 8, Max: 50, Description: "Segmental lean mass, trunk"},
	{Name: SegmentalLeanRightLeg, Unit: "kg", Min: 2, Max: 25, Description: "Segmental lean mass, right leg"},
	{Name: SegmentalLeanLeftLeg, Unit: "kg", Min: 2, Max: 25, Description: "Segmental lean mass, left leg"},
}

// LookupBiomarker returns the catalog entry for name.
func LookupBiomarker(name BiomarkerName) (BiomarkerSpec, bool) {
	for _, s := range BiomarkerCatalog {
		if s.Name == name {
			return s, true
		}
	}
	return BiomarkerSpec{}, false
}

func catalogIndex(name BiomarkerName) int {
	for i, s := range BiomarkerCatalog {
		if s.Name == name {
			return i
		}
	}
	return len(BiomarkerCatalog)
}

// RawReading is an unvalidated biomarker value as supplied by the report
// extractor or the caller. An empty Unit means the canonical unit.
type RawReading struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// RawBiomarkers maps biomarker names to raw readings.
type RawBiomarkers map[BiomarkerName]RawReading

// Biomarker is a validated reading in its canonical unit.
type Biomarker struct {
	Name  BiomarkerName `json:"name"`
	Value float64       `json:"value"`
	Unit  string        `json:"unit"`
	Min   float64       `json:"min"`
	Max   float64       `json:"max"`
}

// BiomarkerSet is an immutable collection of validated biomarkers.
type BiomarkerSet struct {
	values map[BiomarkerName]Biomarker
}

// NewBiomarkerSet copies items into a new set. Later duplicates win.
func NewBiomarkerSet(items ...Biomarker) BiomarkerSet {
	values := make(map[BiomarkerName]Biomarker, len(items))
	for _, b := range items {
		values[b.Name] = b
	}
	return BiomarkerSet{values: values}
}

// Get returns the biomarker stored under name.
func (s BiomarkerSet) Get(name BiomarkerName) (Biomarker, bool) {
	b, ok := s.values[name]
	return b, ok
}

// Value returns just the numeric value stored under name.
func (s BiomarkerSet) Value(name BiomarkerName) (float64, bool) {
	b, ok := s.values[name]
	return b.Value, ok
}

func (s BiomarkerSet) Len() int {
	return len(s.values)
}

// All returns the biomarkers in catalog order.
func (s BiomarkerSet) All() []Biomarker {
	out := make([]Biomarker, 0, len(s.values))
	for _, b := range s.values {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return catalogIndex(out[i].Name) < catalogIndex(out[j].Name)
	})
	return out
}

func (s BiomarkerSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.All())
}
