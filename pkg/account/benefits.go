package account

import (
	"fmt"
	"strings"
	"time"
)

// Promotional rules of the storefront. The three benefits are independent;
// any subset of them may apply to one registration.
const (
	InstitutionalEmailSuffix = "@duoc.cl"
	AgeDiscountMinimum       = 50
	AgeDiscountPercent       = 50
	PromoCode                = "FELICES50"
	PromoDiscountPercent     = 10
)

// Benefit codes.
const (
	BenefitBirthdayCake  = "birthday-cake"
	BenefitAgeDiscount   = "age-discount"
	BenefitLifetimePromo = "lifetime-promo"
)

// EvaluateBenefits grants every benefit the form qualifies for. It only looks
// at fields that passed validation, mirroring how the registration flow gates
// each rule behind its field check.
func EvaluateBenefits(form RegisterForm) []Benefit {
	var benefits []Benefit

	email := strings.TrimSpace(form.Email)
	if validateEmailField(email) == "" && strings.HasSuffix(email, InstitutionalEmailSuffix) {
		benefits = append(benefits, Benefit{
			Code:        BenefitBirthdayCake,
			Description: "Torta gratis en cumpleaños",
		})
	}

	if msg, age := validateBirthDateField(form.BirthDate); msg == "" && age >= AgeDiscountMinimum {
		benefits = append(benefits, Benefit{
			Code:        BenefitAgeDiscount,
			Description: fmt.Sprintf("%d%% de descuento", AgeDiscountPercent),
		})
	}

	if code := strings.TrimSpace(form.PromoCode); code == PromoCode {
		benefits = append(benefits, Benefit{
			Code:        BenefitLifetimePromo,
			Description: fmt.Sprintf("%d%% de descuento de por vida", PromoDiscountPercent),
		})
	}

	return benefits
}

// ageFromBirthDate computes age as a plain year difference. This matches the
// shipped behavior and misclassifies people who have not had their birthday
// yet this year; kept until product decides otherwise.
func ageFromBirthDate(birth time.Time) int {
	return time.Now().Year() - birth.Year()
}
