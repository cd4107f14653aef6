package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
)

func TestPromptMissing_AsksOnlyForEmptyFields(t *testing.T) {
	in := adminInput{Email: "root@hazeltonclinic.com", LastName: "Okafor"}
	stdin := bufio.NewReader(strings.NewReader("Ada\nlong-enough-pass-77"))
	var out bytes.Buffer

	require.NoError(t, promptMissing(&in, stdin, &out))

	assert.Equal(t, "First name: Password: ", out.String())
	assert.Equal(t, "Ada", in.FirstName)
	assert.Equal(t, "long-enough-pass-77", in.Password)
	assert.Equal(t, "Okafor", in.LastName)
}

func TestPromptMissing_EmptyInput(t *testing.T) {
	in := adminInput{}
	err := promptMissing(&in, bufio.NewReader(strings.NewReader("")), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestAdminInputValidate(t *testing.T) {
	valid := func() adminInput {
		return adminInput{
			Email:     "  Root@HazeltonClinic.com ",
			FirstName: " Ada ",
			LastName:  "Okafor",
			Password:  "long-enough-pass-77",
		}
	}

	t.Run("normalizes", func(t *testing.T) {
		in := valid()
		require.NoError(t, in.validate())
		assert.Equal(t, "root@hazeltonclinic.com", in.Email)
		assert.Equal(t, "Ada", in.FirstName)
	})

	t.Run("short password", func(t *testing.T) {
		in := valid()
		in.Password = "short-pw-1"
		assert.ErrorIs(t, in.validate(), auth.ErrPasswordTooShort)
	})

	t.Run("missing name", func(t *testing.T) {
		in := valid()
		in.LastName = "  "
		assert.Error(t, in.validate())
	})

	t.Run("bad email", func(t *testing.T) {
		in := valid()
		in.Email = "root"
		assert.Error(t, in.validate())
	})
}
