package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail_Valid(t *testing.T) {
	for _, s := range []string{
		"a@x.com",
		"first.last@example.co.uk",
		"user+tag@sub.domain.org",
		"x_y%z@example.io",
	} {
		assert.True(t, Email(s), s)
	}
}

func TestEmail_Invalid(t *testing.T) {
	for _, s := range []string{
		"",
		" ",
		"plainaddress",
		"@example.com",
		"a@",
		"a@x",
		"a@x.c",
		"a b@x.com",
		"a@@x.com",
		"\"quoted\"@x.com",
		"a@[127.0.0.1]",
	} {
		assert.False(t, Email(s), s)
	}
}

type signupForm struct {
	Email string `validate:"required,email"`
}

func TestStruct_ReportsFailedField(t *testing.T) {
	err := Struct(signupForm{})
	assert.ErrorContains(t, err, "field 'Email' failed 'required'")
	assert.NoError(t, Struct(signupForm{Email: "a@x.com"}))
}
