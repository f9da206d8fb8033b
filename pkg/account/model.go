package account

import "time"

// UserStorageKey is the fixed key the session user record is persisted under.
const UserStorageKey = "authUser"

// LoginForm carries the login fields. No dynamic field bags: every form has
// its own record type.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterForm carries the registration fields. PromoCode is optional; the
// birth date uses the 2006-01-02 layout the storefront's date input produces.
type RegisterForm struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	BirthDate       string `json:"birthDate"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	PromoCode       string `json:"promoCode"`
}

// Benefit describes one granted promotional perk.
type Benefit struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// User is the simulated session record. There is no real credential
// verification anywhere in this system.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	BirthDate     string    `json:"birthDate"`
	Benefits      []Benefit `json:"benefits,omitempty"`
	RegisteredAt  time.Time `json:"registeredAt,omitempty"`
	LoggedInAt    time.Time `json:"loggedInAt,omitempty"`
	Authenticated bool      `json:"authenticated"`
}

// HasBenefit reports whether the user was granted a benefit with the given
// code.
func (u User) HasBenefit(code string) bool {
	for _, benefit := range u.Benefits {
		if benefit.Code == code {
			return true
		}
	}
	return false
}
