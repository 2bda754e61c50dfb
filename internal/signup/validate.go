package signup

import (
	"regexp"
	"strings"

	"lionix-portal/internal/domain"
)

const (
	minPasswordLen = 6
	minUsernameLen = 3
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// FieldErrors maps a form field to a message key for the translation
// resolver. A non-empty map means the submission is rejected locally and no
// provider call is made.
type FieldErrors map[string]string

// Error implements error so validation failures travel the normal error path
// up to the handler, where they become field-level 422 responses.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	return "validation failed: " + strings.Join(keys, ", ")
}

// ValidateLogin checks the sign-in form.
func ValidateLogin(email, password string) FieldErrors {
	fe := FieldErrors{}
	checkEmail(fe, email)
	checkPassword(fe, password)
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// ValidateSignup checks the full signup form, including password
// confirmation equality and the required profile fields.
func ValidateSignup(d domain.SignupDetails, confirmPassword string) FieldErrors {
	fe := FieldErrors{}
	checkEmail(fe, d.Email)
	checkPassword(fe, d.Password)

	if confirmPassword == "" {
		fe["confirmPassword"] = "confirmPasswordRequired"
	} else if d.Password != confirmPassword {
		fe["confirmPassword"] = "passwordsDoNotMatch"
	}

	if d.Username == "" {
		fe["username"] = "usernameRequired"
	} else if len(d.Username) < minUsernameLen {
		fe["username"] = "usernameTooShort"
	}

	if d.PhoneNumber == "" {
		fe["phoneNumber"] = "phoneRequired"
	}

	if d.SportDiscipline == "" {
		fe["sportDiscipline"] = "sportRequired"
	}

	if len(fe) == 0 {
		return nil
	}
	return fe
}

// ValidateCode checks the one-time code form.
func ValidateCode(code string) FieldErrors {
	if code == "" {
		return FieldErrors{"otp": "otpRequired"}
	}
	return nil
}

func checkEmail(fe FieldErrors, email string) {
	if email == "" {
		fe["email"] = "emailRequired"
	} else if !emailPattern.MatchString(email) {
		fe["email"] = "invalidEmail"
	}
}

func checkPassword(fe FieldErrors, password string) {
	if password == "" {
		fe["password"] = "passwordRequired"
	} else if len(password) < minPasswordLen {
		fe["password"] = "passwordTooShort"
	}
}
