// internal/middleware/webhook_auth.go
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// SecretTokenHeader - заголовок, которым Telegram подписывает вызовы вебхука.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// RequireSecretToken пропускает только запросы с верным секретом вебхука.
// Пустой secret отключает проверку.
func RequireSecretToken(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get(SecretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				slog.Warn("Запрос к вебхуку с неверным секретом", "ip", ClientIP(r), "path", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
