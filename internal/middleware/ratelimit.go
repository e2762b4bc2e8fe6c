// internal/middleware/ratelimit.go
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter хранит лимитер и время последнего обращения для одного ключа
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter ограничивает частоту событий по ключу (IP клиента, ID покупателя).
type KeyedLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

// NewKeyedLimiter создает лимитер: rps событий в секунду, burst - размер "пачки".
// Записи, не использовавшиеся дольше idleTTL, удаляются при очистке.
func NewKeyedLimiter(rps float64, burst int, idleTTL time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow сообщает, разрешено ли событие для ключа прямо сейчас.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	clientData, found := l.clients[key]
	if !found {
		clientData = &clientLimiter{
			limiter: rate.NewLimiter(l.rps, l.burst),
		}
		l.clients[key] = clientData
		slog.Debug("Создан новый лимитер", "key", key, "rps", float64(l.rps), "burst", l.burst)
	}
	now := l.now()
	clientData.lastSeen = now
	limiterInstance := clientData.limiter
	l.mu.Unlock()

	return limiterInstance.AllowN(now, 1)
}

// Cleanup удаляет записи неактивных ключей и возвращает их количество.
func (l *KeyedLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, client := range l.clients {
		if l.now().Sub(client.lastSeen) > l.idleTTL {
			delete(l.clients, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Удалены лимитеры неактивных клиентов", "count", removed)
	}
	return removed
}

// Len - количество отслеживаемых ключей.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Run периодически вызывает Cleanup до отмены ctx.
func (l *KeyedLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// ClientIP определяет IP клиента с учетом прокси.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit ограничивает количество запросов с одного IP.
func RateLimit(limiter *KeyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := ClientIP(r)
			if !limiter.Allow(clientIP) {
				slog.Warn("Превышен лимит запросов (Rate Limit)", "ip", clientIP, "path", r.URL.Path)
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
