// Package validate wires up the request validator with the custom rules
// the journal API uses.
package validate

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	nameCharsRe = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚáéíóúÑñ0-9\s]+$`)
	tradeTypeRe = regexp.MustCompile(`(?i)^(short|long|long and short)$`)
	sessionRe   = regexp.MustCompile(`(?i)^(london|new york|asia|full day)$`)
	resultRe    = regexp.MustCompile(`(?i)^(win|loss|breakeven)$`)
)

// New returns a validator with the journal's custom rules registered:
//
//	namechars    letters (including accented), digits and spaces
//	tradetype    short | long | long and short (case-insensitive)
//	tradesession london | new york | asia | full day (case-insensitive)
//	traderesult  win | loss | breakeven (case-insensitive)
func New() *validator.Validate {
	v := validator.New()

	mustRegister(v, "namechars", nameCharsRe)
	mustRegister(v, "tradetype", tradeTypeRe)
	mustRegister(v, "tradesession", sessionRe)
	mustRegister(v, "traderesult", resultRe)

	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}
