// Package middleware содержит HTTP middleware сервиса пекарни.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const ownerIDKey contextKey = "ownerID"

const sessionCookieName = "owner_session"

// OwnerAuth проверяет cookie сессии владельца, подписанную общим секретом.
// Саму сессию выдаёт внешний слой аутентификации; здесь только проверка подписи.
type OwnerAuth struct {
	secretKey []byte
}

// NewOwnerAuth создаёт проверку сессии с указанным секретным ключом.
// Пустой секрет заменяется случайным: сервис поднимется, но владельческие
// маршруты останутся недоступны, пока секрет не согласован с внешним слоем.
func NewOwnerAuth(secret string) *OwnerAuth {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &OwnerAuth{
		secretKey: key,
	}
}

// Middleware проверяет cookie сессии и добавляет идентификатор владельца в контекст запроса.
func (a *OwnerAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ownerID, ok := a.parseSession(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Sign подписывает идентификатор владельца; используется внешним слоем
// аутентификации и тестами для выпуска валидной сессии.
func (a *OwnerAuth) Sign(ownerID int64) string {
	return a.signString(strconv.FormatInt(ownerID, 10))
}

// SetSessionCookie устанавливает cookie сессии для указанного владельца.
func (a *OwnerAuth) SetSessionCookie(w http.ResponseWriter, ownerID int64) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.Sign(ownerID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *OwnerAuth) signString(idStr string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(idStr))
	signature := mac.Sum(nil)
	return idStr + "." + hex.EncodeToString(signature)
}

func (a *OwnerAuth) parseSession(value string) (int64, bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return 0, false
	}

	idStr := parts[0]
	signature := parts[1]

	expected := strings.Split(a.signString(idStr), ".")
	if len(expected) != 2 {
		return 0, false
	}

	if !hmac.Equal([]byte(signature), []byte(expected[1])) {
		return 0, false
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}

// GetOwnerIDFromContext извлекает идентификатор владельца из контекста запроса.
func GetOwnerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ownerIDKey).(int64)
	return id, ok
}
