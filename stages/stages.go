// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package stages maps a submission's yes-vote count to its lifecycle stage.
package stages

import (
	"fmt"
	"math"

	"github.com/qolzam/metamorph/internal/apperr"
)

// Stage is a named lifecycle stage of a submission
type Stage string

const (
	Egg         Stage = "egg"
	Caterpillar Stage = "caterpillar"
	Chrysalis   Stage = "chrysalis"
	Butterfly   Stage = "butterfly"
)

// Default is used for new submissions and ballots when the user has no stage
const Default = Egg

type rule struct {
	match func(votes int) bool
	stage Stage
}

// Evaluated in order, first match wins.
var rules = []rule{
	{match: func(v int) bool { return v <= 0 }, stage: Egg},
	{match: func(v int) bool { return v == 1 }, stage: Caterpillar},
	{match: func(v int) bool { return v == 2 }, stage: Chrysalis},
	{match: func(v int) bool { return v >= 3 }, stage: Butterfly},
}

func init() {
	if err := CheckCoverage(-16, 64); err != nil {
		panic(err)
	}
}

// Classify returns the stage for a vote count
func Classify(votes int) (Stage, error) {
	return classify(rules, votes)
}

func classify(table []rule, votes int) (Stage, error) {
	for _, r := range table {
		if r.match(votes) {
			return r.stage, nil
		}
	}
	return "", &apperr.Error{
		Kind:     apperr.KindConfiguration,
		Resource: apperr.ResourceStage,
		Detail:   fmt.Sprintf("vote count %d does not fit into any stage", votes),
	}
}

// CheckCoverage verifies that every count in [lo, hi] and both integer
// extremes classify to a known stage.
func CheckCoverage(lo, hi int) error {
	return checkCoverage(rules, lo, hi)
}

func checkCoverage(table []rule, lo, hi int) error {
	probe := func(v int) error {
		s, err := classify(table, v)
		if err != nil {
			return err
		}
		if !s.Valid() {
			return apperr.Configuration(fmt.Sprintf("vote count %d maps to unknown stage %q", v, s))
		}
		return nil
	}

	for _, v := range []int{math.MinInt, math.MaxInt} {
		if err := probe(v); err != nil {
			return err
		}
	}
	for v := lo; v <= hi; v++ {
		if err := probe(v); err != nil {
			return err
		}
	}
	return nil
}

// All returns the stages in lifecycle order
func All() []Stage {
	return []Stage{Egg, Caterpillar, Chrysalis, Butterfly}
}

// Valid reports whether s is a known stage
func (s Stage) Valid() bool {
	switch s {
	case Egg, Caterpillar, Chrysalis, Butterfly:
		return true
	}
	return false
}

func (s Stage) String() string {
	return string(s)
}

// Parse converts user input into a Stage
func Parse(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", apperr.Validation("stage", fmt.Sprintf("unknown stage %q", raw))
	}
	return s, nil
}

// OrDefault returns s, or Default when s is empty or unknown
func OrDefault(s Stage) Stage {
	if s.Valid() {
		return s
	}
	return Default
}
