package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall-admin/rollcall/internal/apperr"
)

type account struct {
	Username string `json:"username" validate:"required,username"`
	Name     string `json:"name" validate:"required,personname"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,role"`
}

func TestStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		in     account
		fields []string
	}{
		{"valid", account{Username: "jdoe", Name: "JOHN DOE", Email: "j@example.com", Role: "admin"}, nil},
		{"valid with diacritics", account{Username: "jmunoz", Name: "JUAN MUÑOZ"}, nil},
		{"username with digits", account{Username: "jdoe2", Name: "JOHN"}, []string{"username"}},
		{"reserved username", account{Username: "bulkcreate", Name: "X"}, []string{"username"}},
		{"missing name", account{Username: "jdoe"}, []string{"name"}},
		{"bad email", account{Username: "jdoe", Name: "J", Email: "nope"}, []string{"email"}},
		{"root is not assignable", account{Username: "jdoe", Name: "J", Role: "root"}, []string{"role"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.fields == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, apperr.ErrValidation)

			var verr *Error
			require.ErrorAs(t, err, &verr)

			got := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestVar(t *testing.T) {
	v := New()

	require.NoError(t, v.Var("email", "a@b.io", "email"))

	err := v.Var("email", "nope", "email")
	require.ErrorIs(t, err, apperr.ErrValidation)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "email", verr.Fields[0].Field)
	assert.Equal(t, "nope", verr.Fields[0].Value)

	require.NoError(t, v.Var("personId", "o'brien-smithjr.", "personid"))
	require.Error(t, v.Var("personId", "ana maria", "personid"))
	require.Error(t, v.Var("personId", "Ana", "personid"))
	require.Error(t, v.Var("personId", "ana/../root", "personid"))
	require.Error(t, v.Var("personId", "..", "personid"))
}

func TestPasswordValueNotEchoed(t *testing.T) {
	v := New()

	err := v.Struct(struct {
		Password string `json:"password" validate:"min=8"`
	}{Password: "short"})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "password", verr.Fields[0].Field)
	assert.Nil(t, verr.Fields[0].Value)
	assert.NotContains(t, err.Error(), "short")
}
