package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/elite-matchmaking/internal/eligibility"
	"github.com/oggyb/elite-matchmaking/internal/validation"
)

type form struct {
	Name    string `json:"name" validate:"required,min=2" msg:"Name is too short"`
	Age     int    `json:"age" validate:"gte=18"`
	Gender  string `json:"gender" validate:"oneof=Male Female"`
	Country string `json:"country" validate:"required"`
	Bio     string `json:"bio" validate:"max=150"`
}

func (f form) EligibilityFields() (string, string) { return f.Gender, f.Country }

func TestStruct_Valid(t *testing.T) {
	v := validation.New(form{})
	assert.NoError(t, v.Struct(&form{Name: "Asha", Age: 25, Gender: "Male", Country: "India"}))
}

func TestStruct_FieldMessages(t *testing.T) {
	v := validation.New(form{})
	err := v.Struct(&form{Name: "A", Age: 17, Gender: "Other", Country: "India"})

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Name is too short", verr.Fields["name"])
	assert.Equal(t, "age must be at least 18", verr.Fields["age"])
	assert.Equal(t, "gender must be one of: Male Female", verr.Fields["gender"])
	assert.NotContains(t, verr.Fields, "country")

	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestStruct_Eligibility(t *testing.T) {
	v := validation.New(form{})

	err := v.Struct(&form{Name: "Ravi", Age: 30, Gender: "Male", Country: "Latvia"})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{"country": eligibility.MaleRejected}, verr.Fields)

	err = v.Struct(&form{Name: "Lena", Age: 30, Gender: "Female", Country: "India"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, eligibility.FemaleRejected, verr.Fields["country"])
}

func TestStruct_RequiredBeatsEligibility(t *testing.T) {
	v := validation.New(form{})
	err := v.Struct(&form{Name: "Ravi", Age: 30, Gender: "Male"})

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "country is required", verr.Fields["country"])
}

func TestVar_Email(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Var("email", "a@example.com", "required,email"))

	err := v.Var("email", "nope", "required,email")
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid email address", verr.Fields["email"])
}
