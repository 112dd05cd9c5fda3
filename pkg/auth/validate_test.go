package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
		confirm  string
		wantErr  string
	}{
		{
			name:     "valid input",
			userName: "Jane Doe",
			email:    "jane@example.com",
			password: "secret1!",
			confirm:  "secret1!",
		},
		{
			name:     "missing fields",
			userName: "",
			email:    "jane@example.com",
			password: "secret1!",
			confirm:  "secret1!",
			wantErr:  "Provide all fields",
		},
		{
			name:     "bad email",
			userName: "Jane Doe",
			email:    "not-an-email",
			password: "secret1!",
			confirm:  "secret1!",
			wantErr:  "Invalid email format",
		},
		{
			name:     "email with spaces",
			userName: "Jane Doe",
			email:    "jane doe@example.com",
			password: "secret1!",
			confirm:  "secret1!",
			wantErr:  "Invalid email format",
		},
		{
			name:     "digits in name",
			userName: "Jane42",
			email:    "jane@example.com",
			password: "secret1!",
			confirm:  "secret1!",
			wantErr:  "Invalid name format",
		},
		{
			name:     "disallowed password character",
			userName: "Jane Doe",
			email:    "jane@example.com",
			password: "secret with space",
			confirm:  "secret with space",
			wantErr:  "Password must contain only letters, numbers, and the following special characters: !@#$%^&*",
		},
		{
			name:     "mismatched confirmation",
			userName: "Jane Doe",
			email:    "jane@example.com",
			password: "secret1!",
			confirm:  "secret2!",
			wantErr:  "Passwords do not match",
		},
		{
			name:     "short password is accepted",
			userName: "Jane Doe",
			email:    "jane@example.com",
			password: "a",
			confirm:  "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(tt.userName, tt.email, tt.password, tt.confirm)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestValidateLogin(t *testing.T) {
	assert.NoError(t, ValidateLogin("jane@example.com", "secret1!"))

	err := ValidateLogin("", "secret1!")
	require.Error(t, err)
	assert.Equal(t, "Provide both email and password", err.Error())

	err = ValidateLogin("jane@example.com", "")
	require.Error(t, err)
	assert.Equal(t, "Provide both email and password", err.Error())

	err = ValidateLogin("bad", "secret1!")
	require.Error(t, err)
	assert.Equal(t, "Invalid email format", err.Error())

	err = ValidateLogin("jane@example.com", "has space")
	require.Error(t, err)
	assert.Equal(t, "Invalid password format", err.Error())
}

func TestValidateProfileUpdate(t *testing.T) {
	assert.NoError(t, ValidateProfileUpdate("Jane Doe", "jane@example.com", "secret1!", 5551234))
	assert.NoError(t, ValidateProfileUpdate("Jane Doe", "", "", 0))

	err := ValidateProfileUpdate("", "", "", 0)
	require.Error(t, err)
	assert.Equal(t, "Invalid input format", err.Error())

	err = ValidateProfileUpdate("Jane42", "", "", 0)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	err = ValidateProfileUpdate("Jane Doe", "bad-email", "", 0)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	err = ValidateProfileUpdate("Jane Doe", "", "has space", 0)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	err = ValidateProfileUpdate("Jane Doe", "", "", -1)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestValidateName(t *testing.T) {
	assert.True(t, ValidateName("Jane Doe"))
	assert.False(t, ValidateName(""))
	assert.False(t, ValidateName("Jane42"))
}

func TestValidatePositiveInt(t *testing.T) {
	assert.True(t, ValidatePositiveInt(1))
	assert.False(t, ValidatePositiveInt(0))
	assert.False(t, ValidatePositiveInt(-3))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("nope")))
	assert.False(t, IsValidation(ErrAccessDenied))
	assert.False(t, IsValidation(nil))
}
