package validator

import (
	"errors"
	"regexp"
	"strings"

	"oms/internal/domain/model"
	"oms/internal/usecase"
)

var (
	ErrNameTooShort     = errors.New("name must be at least 2 characters")
	ErrInvalidEmail     = errors.New("please enter a valid email")
	ErrPhoneTooShort    = errors.New("phone number must be at least 10 digits")
	ErrLine1Required    = errors.New("address line 1 is required")
	ErrCityRequired     = errors.New("city is required")
	ErrPostcodeRequired = errors.New("postcode is required")
	ErrCountryRequired  = errors.New("country is required")
)

type checkoutValidator struct{}

// Usecaseは interface を依存注入
func NewCheckoutValidator() usecase.CheckoutValidator {
	return &checkoutValidator{}
}

// チェックアウト入力を検証。リモート書き込みの前に必ず通す。
func (v *checkoutValidator) ValidateContact(c model.Contact) error {
	if len(strings.TrimSpace(c.Name)) < 2 {
		return ErrNameTooShort
	}
	if !isEmailLike(c.Email) {
		return ErrInvalidEmail
	}
	if countDigits(c.Phone) < 10 {
		return ErrPhoneTooShort
	}
	if len(strings.TrimSpace(c.Address.Line1)) < 5 {
		return ErrLine1Required
	}
	if len(strings.TrimSpace(c.Address.City)) < 2 {
		return ErrCityRequired
	}
	if len(strings.TrimSpace(c.Address.Postcode)) < 3 {
		return ErrPostcodeRequired
	}
	if len(strings.TrimSpace(c.Address.Country)) < 2 {
		return ErrCountryRequired
	}
	return nil
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
