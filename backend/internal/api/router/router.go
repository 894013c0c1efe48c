package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/axmedovx0430/davomatai/backend/config"
	"github.com/axmedovx0430/davomatai/backend/internal/api/handler"
	"github.com/axmedovx0430/davomatai/backend/internal/api/middleware"
	"github.com/axmedovx0430/davomatai/backend/internal/model"
	"github.com/axmedovx0430/davomatai/backend/pkg/jwt"
	"github.com/axmedovx0430/davomatai/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"redis":  rdb.Healthy(c.Request.Context()),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 10, time.Minute))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 终端令牌发放（无需认证，device_key 即凭据）
		v1.POST("/devices/token", middleware.RateLimit(rdb, 30, time.Minute), h.Device.IssueToken)

		// 识别终端上报通道（终端令牌认证）
		device := v1.Group("")
		device.Use(middleware.DeviceAuth(jwtMgr))
		{
			device.POST("/attendance/events", h.Attendance.ReportEvent)
		}

		// 管理端路由（Access Token 认证）
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr))
		{
			authorized.GET("/auth/me", h.Auth.Me)

			// 人员模块
			users := authorized.Group("/users")
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.POST("", middleware.RoleAuth(model.RoleAdmin), h.User.CreateUser)
				users.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.User.UpdateUser)
				users.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.User.DeleteUser)
				users.POST("/:id/face", middleware.RoleAuth(model.RoleAdmin), h.User.RegisterFace)
			}

			// 班组模块
			groups := authorized.Group("/groups")
			{
				groups.GET("", h.Group.ListGroups)
				groups.GET("/:id", h.Group.GetGroup)
				groups.POST("", middleware.RoleAuth(model.RoleAdmin), h.Group.CreateGroup)
				groups.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.Group.UpdateGroup)
				groups.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Group.DeleteGroup)
				groups.POST("/:id/members", middleware.RoleAuth(model.RoleAdmin), h.Group.AddMember)
				groups.DELETE("/:id/members/:user_id", middleware.RoleAuth(model.RoleAdmin), h.Group.RemoveMember)
			}

			// 排课模块
			schedules := authorized.Group("/schedules")
			{
				schedules.GET("", h.Schedule.ListSchedules)
				schedules.GET("/week", h.Schedule.WeekView)
				schedules.GET("/:id", h.Schedule.GetSchedule)
				schedules.GET("/:id/stats", h.Schedule.Stats)
				schedules.POST("", middleware.RoleAuth(model.RoleAdmin), h.Schedule.CreateSchedule)
				schedules.POST("/import", middleware.RoleAuth(model.RoleAdmin), h.Schedule.ImportICS)
				schedules.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.Schedule.UpdateSchedule)
				schedules.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Schedule.DeleteSchedule)
			}

			// 考勤查询模块
			attendance := authorized.Group("/attendance")
			{
				attendance.GET("", h.Attendance.ListRange)
				attendance.GET("/today", h.Attendance.ListToday)
				attendance.GET("/stats", h.Attendance.StatsByDay)
				attendance.GET("/export", h.Attendance.Export)
				attendance.GET("/users/:id/stats", h.Attendance.UserStats)
				attendance.GET("/:id", h.Attendance.GetAttendance)
			}

			// 全局时间设置模块
			settings := authorized.Group("/settings")
			{
				settings.GET("/time", h.Settings.GetCurrent)
				settings.PUT("/time", middleware.RoleAuth(model.RoleAdmin), h.Settings.Update)
				settings.GET("/time/history", middleware.RoleAuth(model.RoleAdmin), h.Settings.History)
			}

			// 识别终端管理模块
			devices := authorized.Group("/devices")
			devices.Use(middleware.RoleAuth(model.RoleAdmin))
			{
				devices.GET("", h.Device.ListDevices)
				devices.POST("", h.Device.Register)
				devices.DELETE("/:id", h.Device.DisableDevice)
			}
		}
	}

	return r
}
