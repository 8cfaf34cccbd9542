// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"time"
)

// IsValidDate проверяет дату в формате YYYY-MM-DD.
func IsValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// IsValidTimeOfDay проверяет время суток в формате HH:MM.
func IsValidTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// IsValidEmail выполняет грубую проверку адреса: локальная часть, @ и домен с точкой.
// Подтверждение адреса выполняет внешняя система рассылки.
func IsValidEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return false
	}
	domain := s[at+1:]
	if len(domain) < 3 || !strings.Contains(domain, ".") {
		return false
	}
	return !strings.ContainsAny(s, " \t\n")
}
