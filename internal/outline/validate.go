package outline

// ValidationResult classifies a heading sequence. Valid holds the individual
// verdict for each heading, indexed like the input.
type ValidationResult struct {
	WellStructured bool        `json:"well_structured"`
	Violations     []Violation `json:"violations"`
	Valid          []bool      `json:"-"`
}

// Validate checks that headings start at rank 1 and never skip a level on the
// way down. Comparisons always use the actual previous rank, so one bad
// heading does not hide or cause errors for the next one.
func Validate(headings []Heading) ValidationResult {
	if len(headings) == 0 {
		return ValidationResult{
			WellStructured: false,
			Violations:     []Violation{NoHeadingsFoundIn()},
		}
	}

	res := ValidationResult{
		WellStructured: true,
		Valid:          make([]bool, len(headings)),
	}
	prev := 0 // none yet
	for i, h := range headings {
		valid := true
		switch {
		case prev == 0 && h.Rank != 1:
			res.Violations = append(res.Violations, FirstNotTopLevelAt(h))
			valid = false
		case prev != 0 && h.Rank-prev > 1:
			res.Violations = append(res.Violations, NonConsecutiveJumpAt(h, prev))
			valid = false
		}
		res.Valid[i] = valid
		if !valid {
			res.WellStructured = false
		}
		prev = h.Rank
	}
	return res
}
