package auth

import "regexp"

// Validation rules carried over from the legacy service: the email check is a
// loose local@domain.tld shape, names are letters and spaces, and passwords
// are restricted to a fixed character set. There is no password length
// minimum; clients relied on that.
var (
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRegex     = regexp.MustCompile(`^[a-zA-Z\s]*$`)
	passwordRegex = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*]*$`)
)

// ValidateRegistration checks registration input. Pure; no side effects.
func ValidateRegistration(name, email, password, confirmPassword string) error {
	if name == "" || email == "" || password == "" || confirmPassword == "" {
		return NewValidationError("Provide all fields")
	}

	if !emailRegex.MatchString(email) {
		return NewValidationError("Invalid email format")
	}

	if !nameRegex.MatchString(name) {
		return NewValidationError("Invalid name format")
	}

	if !passwordRegex.MatchString(password) {
		return NewValidationError("Password must contain only letters, numbers, and the following special characters: !@#$%^&*")
	}

	if password != confirmPassword {
		return NewValidationError("Passwords do not match")
	}

	return nil
}

// ValidateLogin checks login input. Pure; no side effects.
func ValidateLogin(email, password string) error {
	if email == "" || password == "" {
		return NewValidationError("Provide both email and password")
	}

	if !emailRegex.MatchString(email) {
		return NewValidationError("Invalid email format")
	}

	if !passwordRegex.MatchString(password) {
		return NewValidationError("Invalid password format")
	}

	return nil
}

// ValidateProfileUpdate checks a self-service profile update. Name is
// required; the remaining fields are validated only when supplied.
func ValidateProfileUpdate(name, email, password string, phone int64) error {
	if name == "" || !nameRegex.MatchString(name) {
		return NewValidationError("Invalid input format")
	}
	if phone < 0 {
		return NewValidationError("Invalid input format")
	}
	if email != "" && !emailRegex.MatchString(email) {
		return NewValidationError("Invalid input format")
	}
	if password != "" && !passwordRegex.MatchString(password) {
		return NewValidationError("Invalid input format")
	}
	return nil
}

// ValidateName checks the letters-and-spaces name rule
func ValidateName(name string) bool {
	return name != "" && nameRegex.MatchString(name)
}

// ValidatePositiveInt checks numeric fields (publication year, phone) that
// must be positive integers when supplied
func ValidatePositiveInt(v int64) bool {
	return v > 0
}
