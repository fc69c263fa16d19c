package validation

import (
	"fmt"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Field builds an indexed key such as items[2].quantity.
func Field(parent string, i int, child string) string {
	return fmt.Sprintf("%s[%d].%s", parent, i, child)
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func NonNegativeInt(field string, val int, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

// OneOf rejects values outside allowed.
func OneOf(field string, val float64, allowed []float64, v Violations) {
	for _, a := range allowed {
		if a == val {
			return
		}
	}
	v[field] = "not_allowed"
}
