package profile

import "fmt"

// Field describes one profile field for form generation and validation.
type Field struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"` // "integer", "number", "string", "boolean"
	Required    bool      `json:"required"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Description string    `json:"description"`
	Conditional string    `json:"conditional,omitempty"`
}

// ValidationResult carries field-level findings. Errors block a calculation;
// warnings flag implausible but accepted values.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func f64(v float64) *float64 { return &v }

// Schema returns the full field catalog, version-tagged. The ranges mirror
// the dose-response domains the resolver clamps to.
func Schema() []Field {
	return []Field{
		{Name: "age", Type: "integer", Required: true, Min: f64(0), Max: f64(120), Description: "Age in years"},
		{Name: "sex", Type: "string", Required: true, Enum: []string{"male", "female"}, Description: "Biological sex"},
		{Name: "smoking_status", Type: "string", Enum: []string{"never", "former", "current"}, Description: "Current smoking status"},
		{Name: "years_since_quit", Type: "integer", Min: f64(0), Max: f64(50), Description: "Years since quitting smoking", Conditional: "smoking_status == former"},
		{Name: "systolic_bp", Type: "number", Min: f64(80), Max: f64(250), Description: "Systolic blood pressure (mmHg)"},
		{Name: "diastolic_bp", Type: "number", Min: f64(40), Max: f64(150), Description: "Diastolic blood pressure (mmHg)"},
		{Name: "bp_treated", Type: "boolean", Description: "On antihypertensive medication"},
		{Name: "bmi", Type: "number", Min: f64(15), Max: f64(60), Description: "Body mass index (kg/m2)"},
		{Name: "diabetes", Type: "boolean", Description: "Diagnosed diabetes"},
		{Name: "total_cholesterol", Type: "number", Min: f64(100), Max: f64(400), Description: "Total cholesterol (mg/dL)"},
		{Name: "hdl_cholesterol", Type: "number", Min: f64(20), Max: f64(120), Description: "HDL cholesterol (mg/dL)"},
		{Name: "on_statin", Type: "boolean", Description: "On statin therapy"},
		{Name: "egfr", Type: "number", Min: f64(5), Max: f64(150), Description: "Estimated GFR (mL/min/1.73m2)"},
		{Name: "activity_level", Type: "string", Enum: []string{"sedentary", "moderate", "high"}, Description: "Physical activity level"},
		{Name: "alcohol_pattern", Type: "string", Enum: []string{"none", "moderate", "heavy", "binge"}, Description: "Alcohol consumption pattern"},
	}
}

// ValidateAgainstSchema checks a profile against the field catalog, returning
// every finding instead of stopping at the first.
func ValidateAgainstSchema(p RiskProfile) ValidationResult {
	res := ValidationResult{Valid: true, Errors: []string{}, Warnings: []string{}}

	fail := func(format string, args ...any) {
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
	}
	warn := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	if err := p.Validate(); err != nil {
		fail("%v", err)
	}

	checkRange := func(name string, v *float64, lo, hi float64) {
		if v == nil {
			return
		}
		if *v < lo || *v > hi {
			fail("%s %.1f outside accepted range %.0f-%.0f", name, *v, lo, hi)
		}
	}
	checkRange("systolic_bp", p.SystolicBP, 80, 250)
	checkRange("diastolic_bp", p.DiastolicBP, 40, 150)
	checkRange("bmi", p.BMI, 15, 60)
	checkRange("total_cholesterol", p.TotalCholesterol, 100, 400)
	checkRange("hdl_cholesterol", p.HDLCholesterol, 20, 120)
	checkRange("egfr", p.EGFR, 5, 150)

	if p.SystolicBP != nil && p.DiastolicBP != nil && *p.DiastolicBP >= *p.SystolicBP {
		fail("diastolic_bp %.0f must be below systolic_bp %.0f", *p.DiastolicBP, *p.SystolicBP)
	}

	if p.YearsSinceQuit != nil {
		if p.Smoking == nil || *p.Smoking != SmokingFormer {
			warn("years_since_quit is only used when smoking_status is 'former'")
		}
		if *p.YearsSinceQuit > 50 {
			fail("years_since_quit %d outside accepted range 0-50", *p.YearsSinceQuit)
		}
	}

	if p.SystolicBP != nil && *p.SystolicBP >= 180 {
		warn("systolic_bp %.0f indicates hypertensive crisis range; verify the reading", *p.SystolicBP)
	}
	if p.BMI != nil && *p.BMI < 16 {
		warn("bmi %.1f is severely underweight; verify the value", *p.BMI)
	}

	return res
}
