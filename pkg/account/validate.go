package account

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Validation bounds for form fields.
const (
	loginPasswordMinLength    = 6
	registerPasswordMinLength = 8
	nameMinLength             = 2
	minAge                    = 18
	maxAge                    = 130
)

// birthDateLayout is what the storefront's date input submits.
const birthDateLayout = "2006-01-02"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s]+$`)
)

const requiredFieldMessage = "Este campo es obligatorio"

// FieldErrors maps a form field to its user-facing validation message.
type FieldErrors map[string]string

// ValidationError reports that a form failed field validation. It carries the
// per-field messages so the UI can surface them inline.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("formulario inválido: %d campos con errores", len(e.Fields))
}

// IsValidation distinguishes user-correctable form failures from
// infrastructure errors.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// RegisterValidation is the outcome of validating a registration form:
// field errors and granted benefits, computed in the same pass.
type RegisterValidation struct {
	Errors   FieldErrors
	Benefits []Benefit
}

// Valid reports whether the form had no field errors.
func (v RegisterValidation) Valid() bool {
	return len(v.Errors) == 0
}

// ValidateLoginForm checks the login fields and returns inline messages for
// the ones that fail.
func ValidateLoginForm(form LoginForm) FieldErrors {
	errs := FieldErrors{}
	if msg := validateEmailField(form.Email); msg != "" {
		errs["email"] = msg
	}
	if msg := validateLoginPassword(form.Password); msg != "" {
		errs["password"] = msg
	}
	return errs
}

// ValidateRegisterForm checks every registration field and evaluates the
// benefit rules over the same input.
func ValidateRegisterForm(form RegisterForm) RegisterValidation {
	errs := FieldErrors{}

	if msg := validateNameField(form.FirstName); msg != "" {
		errs["firstName"] = msg
	}
	if msg := validateNameField(form.LastName); msg != "" {
		errs["lastName"] = msg
	}
	if msg := validateEmailField(form.Email); msg != "" {
		errs["email"] = msg
	}
	if msg, _ := validateBirthDateField(form.BirthDate); msg != "" {
		errs["birthDate"] = msg
	}
	if msg := validateRegisterPassword(form.Password); msg != "" {
		errs["password"] = msg
	}
	if msg := validatePasswordConfirmation(form.Password, form.ConfirmPassword); msg != "" {
		errs["confirmPassword"] = msg
	}
	if msg := validatePromoCode(form.PromoCode); msg != "" {
		errs["promoCode"] = msg
	}

	return RegisterValidation{Errors: errs, Benefits: EvaluateBenefits(form)}
}

// validateEmailField returns an empty string when the email is acceptable.
func validateEmailField(email string) string {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return requiredFieldMessage
	}
	if !emailPattern.MatchString(trimmed) {
		return "Ingresa un email válido"
	}
	return ""
}

func validateLoginPassword(password string) string {
	if password == "" {
		return requiredFieldMessage
	}
	if len(password) < loginPasswordMinLength {
		return fmt.Sprintf("La contraseña debe tener al menos %d caracteres", loginPasswordMinLength)
	}
	return ""
}

// validateRegisterPassword applies the stricter registration policy. RE2 has
// no lookahead, so the upper/lower/digit rule is a rune scan.
func validateRegisterPassword(password string) string {
	if password == "" {
		return requiredFieldMessage
	}
	if len(password) < registerPasswordMinLength {
		return fmt.Sprintf("La contraseña debe tener al menos %d caracteres", registerPasswordMinLength)
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return "La contraseña debe contener al menos una mayúscula, una minúscula y un número"
	}
	return ""
}

func validateNameField(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return requiredFieldMessage
	}
	if len([]rune(trimmed)) < nameMinLength {
		return fmt.Sprintf("El nombre debe tener al menos %d caracteres", nameMinLength)
	}
	if !namePattern.MatchString(trimmed) {
		return "El nombre solo puede contener letras"
	}
	return ""
}

// validateBirthDateField returns the validation message and the computed age.
func validateBirthDateField(birthDate string) (string, int) {
	if birthDate == "" {
		return requiredFieldMessage, 0
	}
	birth, err := time.Parse(birthDateLayout, birthDate)
	if err != nil {
		return "Ingresa una fecha válida", 0
	}
	age := ageFromBirthDate(birth)
	if age < minAge {
		return fmt.Sprintf("Debes ser mayor de %d años", minAge), age
	}
	if age > maxAge {
		return "Ingresa una fecha válida", age
	}
	return "", age
}

func validatePasswordConfirmation(password, confirm string) string {
	if confirm == "" {
		return "Confirma tu contraseña"
	}
	if confirm != password {
		return "Las contraseñas no coinciden"
	}
	return ""
}

// validatePromoCode accepts an empty field; a non-empty code must match
// PromoCode exactly, case-sensitively.
func validatePromoCode(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || trimmed == PromoCode {
		return ""
	}
	return "Código inválido"
}
