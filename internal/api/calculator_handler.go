package api

import (
	"errors"
	"fitforge/server/internal/calculator"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CalculatorHandler exposes the BMI and calorie calculators. Both are public
// and stateless.
type CalculatorHandler struct{}

func NewCalculatorHandler() *CalculatorHandler {
	return &CalculatorHandler{}
}

// BMIRequest accepts metric (kg, cm) or imperial (lb, in) measures.
type BMIRequest struct {
	Units  calculator.UnitSystem `json:"units" binding:"omitempty,oneof=metric imperial"`
	Weight float64               `json:"weight" binding:"required,gt=0"`
	Height float64               `json:"height" binding:"required,gt=0"`
}

type BMIResponse struct {
	BMI              float64                `json:"bmi"`
	Category         calculator.BMICategory `json:"category"`
	HealthyWeightMin float64                `json:"healthyWeightMinKg"`
	HealthyWeightMax float64                `json:"healthyWeightMaxKg"`
}

// CalorieRequest mirrors calculator.CalorieRequest with unit handling.
type CalorieRequest struct {
	Units      calculator.UnitSystem    `json:"units" binding:"omitempty,oneof=metric imperial"`
	Sex        calculator.Sex           `json:"sex" binding:"required,oneof=male female"`
	Age        int                      `json:"age" binding:"required"`
	Weight     float64                  `json:"weight" binding:"required,gt=0"`
	Height     float64                  `json:"height" binding:"required,gt=0"`
	BodyFatPct float64                  `json:"bodyFatPct" binding:"omitempty,gt=0"`
	Formula    calculator.Formula       `json:"formula" binding:"omitempty,oneof=mifflin_st_jeor harris_benedict katch_mcardle"`
	Activity   calculator.ActivityLevel `json:"activity" binding:"required"`
	Goal       calculator.Goal          `json:"goal" binding:"omitempty,oneof=lose maintain gain"`
}

// BMI godoc
// @Summary Compute body mass index
// @Tags Calculators
// @Accept json
// @Produce json
// @Param body body BMIRequest true "Weight and height"
// @Success 200 {object} BMIResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /calculators/bmi [post]
func (h *CalculatorHandler) BMI(c *gin.Context) {
	var req BMIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	weightKg, heightCm, err := calculator.ToMetric(req.Units, req.Weight, req.Height)
	if err != nil {
		abortWithCalculatorError(c, err)
		return
	}
	bmi, err := calculator.BMI(weightKg, heightCm)
	if err != nil {
		abortWithCalculatorError(c, err)
		return
	}
	minKg, maxKg := calculator.HealthyWeightRange(heightCm)
	c.JSON(http.StatusOK, BMIResponse{
		BMI:              bmi,
		Category:         calculator.BMICategoryFor(bmi),
		HealthyWeightMin: minKg,
		HealthyWeightMax: maxKg,
	})
}

// Calories godoc
// @Summary Estimate daily calorie needs and macros
// @Tags Calculators
// @Accept json
// @Produce json
// @Param body body CalorieRequest true "Body profile, activity and goal"
// @Success 200 {object} calculator.CalorieEstimate
// @Failure 400 {object} gin.H "Invalid input"
// @Router /calculators/calories [post]
func (h *CalculatorHandler) Calories(c *gin.Context) {
	var req CalorieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	weightKg, heightCm, err := calculator.ToMetric(req.Units, req.Weight, req.Height)
	if err != nil {
		abortWithCalculatorError(c, err)
		return
	}
	estimate, err := calculator.EstimateCalories(calculator.CalorieRequest{
		Profile: calculator.Profile{
			Sex:        req.Sex,
			Age:        req.Age,
			WeightKg:   weightKg,
			HeightCm:   heightCm,
			BodyFatPct: req.BodyFatPct,
		},
		Formula:  req.Formula,
		Activity: req.Activity,
		Goal:     req.Goal,
	})
	if err != nil {
		abortWithCalculatorError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func abortWithCalculatorError(c *gin.Context, err error) {
	if errors.Is(err, calculator.ErrInvalidInput) {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	abortWithError(c, http.StatusInternalServerError, "Calculation failed.")
}
