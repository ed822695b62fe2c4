package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// fieldLabels names struct fields in client-facing messages.
var fieldLabels = map[string]string{
	"FirstName":   "First name",
	"LastName":    "Last name",
	"Email":       "Email",
	"PhoneNumber": "Phone number",
	"Password":    "Password",
}

// fieldMessage turns the first failed constraint into a sentence.
func fieldMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid input data"
	}

	fe := verrs[0]
	label, ok := fieldLabels[fe.StructField()]
	if !ok {
		label = fe.StructField()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", label, fe.Param())
	default:
		return label + " is invalid"
	}
}
