package middleware

import (
	"net/http"
	"strings"

	"github.com/beego/beego/v2/server/web/context"
)

// AuthMiddleware Bearer凭证存在性校验。
// 只要求携带非空Bearer token，不校验token内容。
func AuthMiddleware(ctx *context.Context) {
	authHeader := ctx.Input.Header("Authorization")

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		ctx.Output.SetStatus(http.StatusUnauthorized)
		_ = ctx.Output.JSON(map[string]interface{}{
			"success": false,
			"error":   "Missing or invalid authorization token",
		}, false, false)
		return
	}
}
