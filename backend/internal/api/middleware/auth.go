package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/axmedovx0430/davomatai/backend/pkg/jwt"
	"github.com/axmedovx0430/davomatai/backend/pkg/response"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, jwtMgr)
		if !ok {
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		// 将用户信息注入上下文
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		userRole := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}

// DeviceAuth 识别终端认证中间件
// 终端令牌与管理端 Token 走同一签名密钥，按 TokenType 区分
func DeviceAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, jwtMgr)
		if !ok {
			return
		}

		if claims.TokenType != jwt.TokenTypeDevice || claims.DeviceKey == "" {
			response.Unauthorized(c, 10002, "终端令牌无效")
			c.Abort()
			return
		}

		c.Set("device_key", claims.DeviceKey)

		c.Next()
	}
}

func bearerClaims(c *gin.Context, jwtMgr *jwt.Manager) (*jwt.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Unauthorized(c, 10002, "缺少认证头")
		c.Abort()
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		response.Unauthorized(c, 10002, "认证头格式无效")
		c.Abort()
		return nil, false
	}

	claims, err := jwtMgr.ParseToken(parts[1])
	if err != nil {
		response.Unauthorized(c, 10002, "Token 无效或已过期")
		c.Abort()
		return nil, false
	}
	return claims, true
}
