package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"fieldcrew/internal/directory"
)

// IdentityContextKey - ключ для сохранения пользователя в контексте запроса.
var IdentityContextKey = &contextKey{"Identity"}

type contextKey struct {
	name string
}

// Identity - пользователь WebApp, найденный в справочнике бригады.
type Identity struct {
	ID     int64
	Name   string
	Admin  bool
	Worker bool
}

func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(Identity)
	return id, ok
}

// RequestLogger пишет в zap метод, путь, статус и длительность каждого запроса.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("HTTP запрос",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// AuthMiddleware проверяет заголовок X-Telegram-Auth с initData
// и пускает только тех, кто есть в справочнике.
func AuthMiddleware(secretKey string, dir *directory.Directory, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("X-Telegram-Auth")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized: Missing X-Telegram-Auth header")
				return
			}

			isValid, userData, err := validateInitData(authHeader, secretKey)
			if err != nil || !isValid {
				log.Info("AuthMiddleware: неверный initData", zap.Error(err))
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized: Invalid initData")
				return
			}

			identity := Identity{ID: userData.ID, Admin: dir.IsAdmin(userData.ID)}
			identity.Name, identity.Worker = dir.Name(userData.ID)
			if !identity.Admin && !identity.Worker {
				log.Info("AuthMiddleware: пользователь не из бригады", zap.Int64("chat_id", userData.ID))
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized: User not found")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware пропускает только администраторов.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(r.Context())
		if !ok {
			writeJSONError(w, http.StatusForbidden, "Forbidden: User data not found in context")
			return
		}
		if !identity.Admin {
			writeJSONError(w, http.StatusForbidden, "Forbidden: Insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Структура для парсинга JSON из initData
type telegramUserData struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// validateInitData - функция для проверки подлинности данных от Telegram.
func validateInitData(initData, secret string) (bool, telegramUserData, error) {
	var userData telegramUserData

	q, err := url.ParseQuery(initData)
	if err != nil {
		return false, userData, fmt.Errorf("failed to parse initData: %w", err)
	}

	hash := q.Get("hash")
	if hash == "" {
		return false, userData, fmt.Errorf("hash is not present in initData")
	}

	userJSON := q.Get("user")
	if userJSON == "" {
		return false, userData, fmt.Errorf("user data is not present in initData")
	}
	if err := json.Unmarshal([]byte(userJSON), &userData); err != nil {
		return false, userData, fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	return hmac.Equal([]byte(initDataHash(q, secret)), []byte(hash)), userData, nil
}

// initDataHash считает подпись initData по токену бота.
func initDataHash(q url.Values, secret string) string {
	var pairs []string
	for k, v := range q {
		if k != "hash" {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, v[0]))
		}
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(secret))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString))
	return hex.EncodeToString(h.Sum(nil))
}
