package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail проверяет адрес электронной почты.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email обязателен")
	}
	if len(email) > 254 || !emailRe.MatchString(email) {
		return fmt.Errorf("некорректный email")
	}
	return nil
}

// ValidateUsername проверяет имя пользователя для входа.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}
	if len(username) < 3 || len(username) > 64 {
		return fmt.Errorf("имя пользователя должно быть от 3 до 64 символов")
	}
	return nil
}
