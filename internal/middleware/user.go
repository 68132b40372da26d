package middleware

import (
	"context"
	"net/http"
	"strings"

	"lecteuraide/internal/model"
	"lecteuraide/internal/webutil"
)

// userCtxKey はコンテキストに利用者IDを格納するためのキーです。
type userCtxKey struct{}

const userIDHeader = "X-User-ID"

// UserIdentifier は X-User-ID ヘッダーの値をコンテキストに載せるミドルウェアです。
// 読書進捗のエンドポイントではヘッダーが必須で、欠落時は 403 を返します。
func UserIdentifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(userIDHeader))
		if userID == "" {
			logger := GetLogger(r.Context())
			logger.Warn("Missing user identifier header", "header", userIDHeader)
			appErr := model.NewAppError("FORBIDDEN", "利用者IDヘッダーが指定されていません", "", model.ErrForbidden)
			webutil.HandleError(w, logger, appErr)
			return
		}
		ctx := context.WithValue(r.Context(), userCtxKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext はコンテキストから利用者IDを取得します。
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userCtxKey{}).(string)
	return userID, ok && userID != ""
}
