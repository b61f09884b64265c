// Package calculator implements the BMI and energy expenditure formulas used by
// the public calculators. All functions are pure; inputs are metric unless the
// name says otherwise.
package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is wrapped by every validation failure in this package.
var ErrInvalidInput = errors.New("invalid calculator input")

// Accepted input ranges.
const (
	MinWeightKg   = 20.0
	MaxWeightKg   = 400.0
	MinHeightCm   = 100.0
	MaxHeightCm   = 250.0
	MinAge        = 15
	MaxAge        = 100
	MinBodyFatPct = 3.0
	MaxBodyFatPct = 70.0
)

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

func checkRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return invalid(field, fmt.Sprintf("must be between %g and %g", lo, hi))
	}
	return nil
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// --- BMI ---

type BMICategory string

const (
	Underweight BMICategory = "underweight"
	Normal      BMICategory = "normal"
	Overweight  BMICategory = "overweight"
	Obese       BMICategory = "obese"
)

// BMI returns weight / height² rounded to one decimal.
func BMI(weightKg, heightCm float64) (float64, error) {
	if err := checkRange("weight", weightKg, MinWeightKg, MaxWeightKg); err != nil {
		return 0, err
	}
	if err := checkRange("height", heightCm, MinHeightCm, MaxHeightCm); err != nil {
		return 0, err
	}
	m := heightCm / 100
	return Round(weightKg/(m*m), 1), nil
}

// BMICategoryFor classifies a BMI value. Lower bounds are inclusive.
func BMICategoryFor(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi < 25:
		return Normal
	case bmi < 30:
		return Overweight
	default:
		return Obese
	}
}

// HealthyWeightRange returns the weights (kg) giving a normal BMI at heightCm.
func HealthyWeightRange(heightCm float64) (minKg, maxKg float64) {
	m := heightCm / 100
	return Round(18.5*m*m, 1), Round(24.9*m*m, 1)
}

// --- BMR ---

type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

type Formula string

const (
	MifflinStJeor  Formula = "mifflin_st_jeor"
	HarrisBenedict Formula = "harris_benedict"
	KatchMcArdle   Formula = "katch_mcardle"
)

// Profile is the body data the BMR formulas consume.
type Profile struct {
	Sex        Sex
	Age        int
	WeightKg   float64
	HeightCm   float64
	BodyFatPct float64 // only required by Katch-McArdle
}

// Validate checks every field used by formula.
func (p Profile) Validate(formula Formula) error {
	if p.Sex != Male && p.Sex != Female {
		return invalid("sex", "must be male or female")
	}
	if p.Age < MinAge || p.Age > MaxAge {
		return invalid("age", fmt.Sprintf("must be between %d and %d", MinAge, MaxAge))
	}
	if err := checkRange("weight", p.WeightKg, MinWeightKg, MaxWeightKg); err != nil {
		return err
	}
	if err := checkRange("height", p.HeightCm, MinHeightCm, MaxHeightCm); err != nil {
		return err
	}
	if formula == KatchMcArdle {
		if err := checkRange("bodyFat", p.BodyFatPct, MinBodyFatPct, MaxBodyFatPct); err != nil {
			return err
		}
	}
	return nil
}

// LeanMassKg is body weight minus fat mass.
func (p Profile) LeanMassKg() float64 {
	return p.WeightKg * (1 - p.BodyFatPct/100)
}

// BMR returns basal metabolic rate in kcal/day, unrounded.
// An empty formula selects Mifflin-St Jeor.
func BMR(formula Formula, p Profile) (float64, error) {
	if formula == "" {
		formula = MifflinStJeor
	}
	if err := p.Validate(formula); err != nil {
		return 0, err
	}
	w, h, a := p.WeightKg, p.HeightCm, float64(p.Age)

	switch formula {
	case MifflinStJeor:
		base := 10*w + 6.25*h - 5*a
		if p.Sex == Male {
			return base + 5, nil
		}
		return base - 161, nil
	case HarrisBenedict:
		// Roza & Shizgal revision.
		if p.Sex == Male {
			return 88.362 + 13.397*w + 4.799*h - 5.677*a, nil
		}
		return 447.593 + 9.247*w + 3.098*h - 4.330*a, nil
	case KatchMcArdle:
		return 370 + 21.6*p.LeanMassKg(), nil
	default:
		return 0, invalid("formula", fmt.Sprintf("%q is not supported", formula))
	}
}

// --- TDEE ---

type ActivityLevel string

const (
	Sedentary  ActivityLevel = "sedentary"
	Light      ActivityLevel = "light"
	Moderate   ActivityLevel = "moderate"
	Active     ActivityLevel = "active"
	VeryActive ActivityLevel = "very_active"
)

var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:  1.2,
	Light:      1.375,
	Moderate:   1.55,
	Active:     1.725,
	VeryActive: 1.9,
}

// ActivityMultiplier returns the TDEE factor for level.
func ActivityMultiplier(level ActivityLevel) (float64, error) {
	m, ok := activityMultipliers[level]
	if !ok {
		return 0, invalid("activity", fmt.Sprintf("%q is not a known activity level", level))
	}
	return m, nil
}

// TDEE scales bmr by the activity multiplier.
func TDEE(bmr float64, level ActivityLevel) (float64, error) {
	m, err := ActivityMultiplier(level)
	if err != nil {
		return 0, err
	}
	return bmr * m, nil
}

// --- Goals & macros ---

type Goal string

const (
	LoseWeight Goal = "lose"
	Maintain   Goal = "maintain"
	GainWeight Goal = "gain"
)

var goalAdjustments = map[Goal]float64{
	LoseWeight: -500,
	Maintain:   0,
	GainWeight: 300,
}

// MinimumCalories is the daily intake floor recommended without supervision.
func MinimumCalories(sex Sex) float64 {
	if sex == Male {
		return 1500
	}
	return 1200
}

// GoalCalories adjusts tdee for goal, never returning less than the floor for sex.
func GoalCalories(tdee float64, goal Goal, sex Sex) (float64, error) {
	adj, ok := goalAdjustments[goal]
	if !ok {
		return 0, invalid("goal", fmt.Sprintf("%q is not a known goal", goal))
	}
	return math.Max(tdee+adj, MinimumCalories(sex)), nil
}

// MacroSplit is a daily intake in grams.
type MacroSplit struct {
	ProteinG float64 `json:"proteinG"`
	FatG     float64 `json:"fatG"`
	CarbsG   float64 `json:"carbsG"`
}

type macroRatio struct{ protein, fat, carbs float64 }

var goalMacroRatios = map[Goal]macroRatio{
	LoseWeight: {0.35, 0.30, 0.35},
	Maintain:   {0.30, 0.30, 0.40},
	GainWeight: {0.25, 0.25, 0.50},
}

const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// Macros splits calories into grams following the ratio for goal.
func Macros(calories float64, goal Goal) (MacroSplit, error) {
	r, ok := goalMacroRatios[goal]
	if !ok {
		return MacroSplit{}, invalid("goal", fmt.Sprintf("%q is not a known goal", goal))
	}
	return MacroSplit{
		ProteinG: math.Round(calories * r.protein / kcalPerGramProtein),
		FatG:     math.Round(calories * r.fat / kcalPerGramFat),
		CarbsG:   math.Round(calories * r.carbs / kcalPerGramCarbs),
	}, nil
}

// --- Full estimate ---

// CalorieRequest is everything the calorie calculator needs.
type CalorieRequest struct {
	Profile  Profile
	Formula  Formula
	Activity ActivityLevel
	Goal     Goal
}

// CalorieEstimate is the rounded result returned to users.
type CalorieEstimate struct {
	Formula      Formula       `json:"formula"`
	BMR          float64       `json:"bmr"`
	TDEE         float64       `json:"tdee"`
	GoalCalories float64       `json:"goalCalories"`
	Goal         Goal          `json:"goal"`
	Activity     ActivityLevel `json:"activity"`
	Macros       MacroSplit    `json:"macros"`
}

// EstimateCalories runs BMR → TDEE → goal → macros. Calorie values are rounded
// to whole kcal only at the end.
func EstimateCalories(req CalorieRequest) (*CalorieEstimate, error) {
	if req.Formula == "" {
		req.Formula = MifflinStJeor
	}
	if req.Goal == "" {
		req.Goal = Maintain
	}
	bmr, err := BMR(req.Formula, req.Profile)
	if err != nil {
		return nil, err
	}
	tdee, err := TDEE(bmr, req.Activity)
	if err != nil {
		return nil, err
	}
	target, err := GoalCalories(tdee, req.Goal, req.Profile.Sex)
	if err != nil {
		return nil, err
	}
	target = math.Round(target)
	macros, err := Macros(target, req.Goal)
	if err != nil {
		return nil, err
	}
	return &CalorieEstimate{
		Formula:      req.Formula,
		BMR:          math.Round(bmr),
		TDEE:         math.Round(tdee),
		GoalCalories: target,
		Goal:         req.Goal,
		Activity:     req.Activity,
		Macros:       macros,
	}, nil
}
