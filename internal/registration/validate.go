package registration

import (
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"

	dErrors "membergate/pkg/domain-errors"
)

// DefaultTitle is applied when the registrant leaves the title select on its
// initial value.
const DefaultTitle = "Mr"

// validatePhone checks the 10-digit local number from the phone screen.
func validatePhone(phone string) error {
	if !govalidator.IsNumeric(phone) || !govalidator.StringLength(phone, "10", "10") {
		return dErrors.New(dErrors.CodeInvalidInput, "phone number must be exactly 10 digits")
	}
	return nil
}

// validateCode checks the 6-digit one-time code from the verification screen.
func validateCode(code string) error {
	if !govalidator.IsNumeric(code) || !govalidator.StringLength(code, "6", "6") {
		return dErrors.New(dErrors.CodeInvalidInput, "verification code must be exactly 6 digits")
	}
	return nil
}

// validateProfile checks the mandatory fields from the profile screen and
// normalizes the defaults. It mutates p in place.
func validateProfile(p *Profile) error {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if !govalidator.StringLength(p.Gender, "1", "50") {
		return dErrors.New(dErrors.CodeInvalidInput, "gender is required")
	}
	if !govalidator.StringLength(p.Surname, "1", "100") {
		return dErrors.New(dErrors.CodeInvalidInput, "surname is required")
	}
	if !govalidator.StringLength(p.FirstName, "1", "100") {
		return dErrors.New(dErrors.CodeInvalidInput, "first name is required")
	}
	if !govalidator.StringLength(p.City, "1", "100") {
		return dErrors.New(dErrors.CodeInvalidInput, "city is required")
	}
	if err := validateDate(p.DOB); err != nil {
		return err
	}
	return nil
}

// validateDate checks the three date-of-birth selects compose a real
// calendar date.
func validateDate(d Date) error {
	if d.Year < 1900 || d.Year > time.Now().Year() {
		return dErrors.New(dErrors.CodeInvalidInput, "date of birth year is out of range")
	}
	if d.Month < 1 || d.Month > 12 {
		return dErrors.New(dErrors.CodeInvalidInput, "date of birth month is out of range")
	}
	if d.Day < 1 || d.Day > 31 {
		return dErrors.New(dErrors.CodeInvalidInput, "date of birth day is out of range")
	}
	composed := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if composed.Day() != d.Day || composed.Month() != time.Month(d.Month) {
		return dErrors.New(dErrors.CodeInvalidInput, "date of birth is not a valid calendar date")
	}
	return nil
}

// formatDate renders a Date as the stored "YYYY-MM-DD" form.
func formatDate(d Date) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}
