package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/testutil"
)

func TestValidatePhone(t *testing.T) {
	testutil.Given(t, "a 10-digit local number", func(t *testing.T) {
		assert.NoError(t, validatePhone("9876543210"))
	})

	testutil.Given(t, "anything else", func(t *testing.T) {
		for _, phone := range []string{"", "12345", "98765432101", "98765abcde", "+919876543210"} {
			err := validatePhone(phone)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "phone %q", phone)
		}
	})
}

func TestValidateCode(t *testing.T) {
	testutil.Given(t, "a 6-digit code", func(t *testing.T) {
		assert.NoError(t, validateCode("123456"))
	})

	testutil.Given(t, "anything else", func(t *testing.T) {
		for _, code := range []string{"", "12345", "1234567", "12345a"} {
			err := validateCode(code)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "code %q", code)
		}
	})
}

func TestValidateProfile(t *testing.T) {
	valid := func() Profile {
		return Profile{
			Title:     "Ms",
			Gender:    "Female",
			Surname:   "Sharma",
			FirstName: "Priya",
			City:      "Delhi",
			DOB:       Date{Day: 12, Month: 5, Year: 1990},
		}
	}

	testutil.When(t, "all mandatory fields are present", func(t *testing.T) {
		p := valid()
		assert.NoError(t, validateProfile(&p))
	})

	testutil.When(t, "the title is empty", func(t *testing.T) {
		p := valid()
		p.Title = ""
		assert.NoError(t, validateProfile(&p))
		assert.Equal(t, DefaultTitle, p.Title)
	})

	testutil.When(t, "a mandatory field is missing", func(t *testing.T) {
		for _, mutate := range []func(*Profile){
			func(p *Profile) { p.Gender = "" },
			func(p *Profile) { p.Surname = "" },
			func(p *Profile) { p.FirstName = "" },
			func(p *Profile) { p.City = "" },
		} {
			p := valid()
			mutate(&p)
			err := validateProfile(&p)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})

	testutil.When(t, "the date of birth is not a real date", func(t *testing.T) {
		for _, dob := range []Date{
			{Day: 31, Month: 2, Year: 1990},
			{Day: 0, Month: 5, Year: 1990},
			{Day: 12, Month: 13, Year: 1990},
			{Day: 12, Month: 5, Year: 1850},
		} {
			p := valid()
			p.DOB = dob
			err := validateProfile(&p)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "dob %+v", dob)
		}
	})
}

func TestFormatDate(t *testing.T) {
	testutil.Then(t, "fields are zero padded", func(t *testing.T) {
		assert.Equal(t, "1990-05-02", formatDate(Date{Day: 2, Month: 5, Year: 1990}))
		assert.Equal(t, "2004-11-30", formatDate(Date{Day: 30, Month: 11, Year: 2004}))
	})
}
