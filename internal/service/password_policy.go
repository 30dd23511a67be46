package service

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const defaultPasswordMinLen = 8

type passwordPolicyError struct {
	key    string
	minLen int
}

func (e passwordPolicyError) Error() string {
	return e.key
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

// Key i18n 消息键
func (e passwordPolicyError) Key() string {
	return e.key
}

// validatePassword 至少 minLen 个字符，且同时包含字母与数字
func validatePassword(minLen int, password string) error {
	if minLen <= 0 {
		minLen = defaultPasswordMinLen
	}
	if len([]rune(password)) < minLen {
		return passwordPolicyError{key: "error.password_too_short", minLen: minLen}
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return passwordPolicyError{key: "error.password_too_short", minLen: minLen}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
