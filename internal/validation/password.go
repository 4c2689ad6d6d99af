package validation

import (
	"fmt"
)

// MinPasswordLength — минимальная длина пароля.
const MinPasswordLength = 8

// ValidatePassword проверяет пароль на соответствие требованиям.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("пароль должен быть не менее %d символов", MinPasswordLength)
	}
	return nil
}
