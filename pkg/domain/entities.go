// Package domain defines the typed observable model for heavy-ion
// experimental measurements: collision systems, collaborations, observable
// kinds with their required parameters, and the validated measurement
// entity that the persistence layer stores and reconstructs.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Bin is a half-open interval [low, high) of a binned quantity, most
// commonly a centrality percentile class or a transverse-momentum slice.
type Bin [2]float64

// Low returns the inclusive lower edge of the bin.
func (b Bin) Low() float64 { return b[0] }

// High returns the exclusive upper edge of the bin.
func (b Bin) High() float64 { return b[1] }

// Range is a closed numeric interval [min, max] used for kinematic
// acceptance parameters such as rapidity and transverse-momentum windows.
type Range [2]float64

// Min returns the lower bound of the range.
func (r Range) Min() float64 { return r[0] }

// Max returns the upper bound of the range.
func (r Range) Max() float64 { return r[1] }

// CollisionSystem identifies the colliding species and the per-nucleon
// center-of-mass energy. Name is the canonical natural key, e.g.
// "Pb-Pb-2760" for Pb+Pb collisions at sqrt(s_NN) = 2760 GeV.
type CollisionSystem struct {
	Name       string  `json:"name"`
	Projectile string  `json:"projectile"`
	Target     string  `json:"target"`
	SqrtS      float64 `json:"sqrt_s"`
}

// NewCollisionSystem builds a system from its parts, deriving the canonical
// name used as the dimension natural key.
func NewCollisionSystem(projectile, target string, sqrtS float64) CollisionSystem {
	return CollisionSystem{
		Name:       fmt.Sprintf("%s-%s-%s", projectile, target, strconv.FormatFloat(sqrtS, 'f', -1, 64)),
		Projectile: projectile,
		Target:     target,
		SqrtS:      sqrtS,
	}
}

// ParseCollisionSystem parses a canonical system name of the form
// "<projectile>-<target>-<sqrt_s>" (e.g. "Au-Au-200") back into its parts.
func ParseCollisionSystem(name string) (CollisionSystem, error) {
	parts := strings.Split(name, "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return CollisionSystem{}, fmt.Errorf("malformed collision system name %q", name)
	}
	energy, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || energy <= 0 {
		return CollisionSystem{}, fmt.Errorf("malformed collision energy in system name %q", name)
	}
	return CollisionSystem{Name: name, Projectile: parts[0], Target: parts[1], SqrtS: energy}, nil
}

// Reference is the bibliographic record a measurement was published in.
type Reference struct {
	ArXiv string `json:"arXiv,omitempty"`
	DOI   string `json:"doi,omitempty"`
	Title string `json:"title,omitempty"`
}

// TriggerInfo captures free-form trigger and centrality-selection metadata,
// e.g. {"Trigger": "VZERO and SPD detectors", "Centrality Selection":
// "V0M amplitude"}. Keys are preserved verbatim.
type TriggerInfo map[string]string

// KinematicCut describes optional acceptance bounds attached to a result.
// Nil fields mean the bound is not specified; the cut has no lifecycle of
// its own beyond the result that owns it.
type KinematicCut struct {
	EtaMin *float64 `json:"eta_min,omitempty"`
	EtaMax *float64 `json:"eta_max,omitempty"`
	PtMin  *float64 `json:"pt_min,omitempty"`
	PtMax  *float64 `json:"pt_max,omitempty"`
	YMin   *float64 `json:"y_min,omitempty"`
	YMax   *float64 `json:"y_max,omitempty"`
}

// Params carries the kind-specific parameters of an observable as named,
// statically typed members. Which fields must be set is dictated by the
// kind's registry entry; Construct rejects both missing required fields and
// fields set without being required.
type Params struct {
	ParticleType  string `json:"particle_type,omitempty"`
	RapidityRange *Range `json:"rapidity_range,omitempty"`
	PTRange       *Range `json:"pT_range,omitempty"`
	HarmonicN     int    `json:"harmonic_n,omitempty"`
	PTBins        []Bin  `json:"pT_bins,omitempty"`
}

// ObservableEntity is one measurement series as published by a
// collaboration: an observable identified by ShortName, measured over
// CentralityBins for a collision system, with symmetric uncertainties.
//
// Integrated observables carry one value per centrality bin in Values and
// Errors. Differential observables instead carry one row per centrality bin
// in DiffValues and DiffErrors, indexed within the row by Params.PTBins.
// Exactly one of the two shapes is populated, determined by the kind.
//
// Entities are constructed only through Construct and never mutated
// afterwards.
type ObservableEntity struct {
	Kind           Kind             `json:"kind"`
	Name           string           `json:"name"`
	ShortName      string           `json:"short_name"`
	System         CollisionSystem  `json:"collision_system"`
	Collaboration  string           `json:"collaboration"`
	Reference      Reference        `json:"reference"`
	CentralityBins []Bin            `json:"centrality_bins"`
	Values         []float64        `json:"values,omitempty"`
	Errors         []float64        `json:"errors,omitempty"`
	DiffValues     [][]float64      `json:"diff_values,omitempty"`
	DiffErrors     [][]float64      `json:"diff_errors,omitempty"`
	Trigger        TriggerInfo      `json:"trigger_info,omitempty"`
	Params         Params           `json:"params"`
	Cut            *KinematicCut    `json:"kinematic_cut,omitempty"`
}
