package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftgov/config"
	"shiftgov/internal/api/handler"
	"shiftgov/internal/api/middleware"
	"shiftgov/internal/model"
	"shiftgov/pkg/jwt"
)

// 请求体上限（打卡、批量发布等均为小报文）
const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时限流降级为进程内令牌桶
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimitStore, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if err := handler.RegisterValidators(); err != nil {
		logger.Fatal("注册自定义校验器失败", zap.Error(err))
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	managers := middleware.RoleAuth(model.RoleOwner, model.RoleAdmin, model.RoleManager)
	admins := middleware.RoleAuth(model.RoleOwner, model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr))
	authorized.Use(middleware.RateLimit(cfg.RateLimit, limiter, logger))
	{
		// 门店模块
		locations := authorized.Group("/locations")
		{
			locations.GET("", h.Location.ListLocations)
			locations.GET("/:id", h.Location.GetLocation)
			locations.GET("/:id/hours", h.Location.GetOperatingHours)
			locations.POST("", admins, h.Location.CreateLocation)
			locations.PUT("/:id", admins, h.Location.UpdateLocation)
			locations.PUT("/:id/hours", managers, h.Location.SetOperatingHours)
		}

		// 排班周期模块
		periods := authorized.Group("/periods")
		{
			periods.GET("", h.Period.GetPeriod)
			periods.GET("/week", h.Period.ListPeriods)
			periods.POST("/publish", managers, h.Period.Publish)
			periods.POST("/lock", managers, h.Period.Lock)
			periods.POST("/publish-and-lock", managers, h.Period.PublishAndLock)
			periods.POST("/unlock", admins, h.Period.Unlock)
		}

		// 班次模块
		shifts := authorized.Group("/shifts")
		{
			shifts.GET("", h.Shift.ListShifts)
			shifts.GET("/:id", h.Shift.GetShift)
			shifts.GET("/:id/assignments", h.Shift.ListAssignments)
			shifts.GET("/:id/candidates", managers, h.Shift.ListCandidates)
			shifts.POST("", managers, h.Shift.CreateShift)
			shifts.PUT("/:id", managers, h.Shift.UpdateShift)
			shifts.DELETE("/:id", managers, h.Shift.DeleteShift)
			shifts.POST("/publish", managers, h.Shift.BulkPublish)
			shifts.POST("/:id/assignments", h.Shift.Assign) // 员工认领本人（Service 层鉴权）
		}
		authorized.GET("/conflicts", h.Shift.FindConflicts)

		// 指派审批
		assignments := authorized.Group("/assignments", managers)
		{
			assignments.POST("/:id/approve", h.Shift.ApproveAssignment)
			assignments.POST("/:id/reject", h.Shift.RejectAssignment)
			assignments.DELETE("/:id", h.Shift.RemoveAssignment)
		}

		// 变更申请模块
		changes := authorized.Group("/change-requests")
		{
			changes.GET("", h.ChangeRequest.List)
			changes.GET("/reason-codes", h.ChangeRequest.ReasonCodes)
			changes.GET("/:id", h.ChangeRequest.Get)
			changes.POST("", managers, h.ChangeRequest.Submit)
			changes.POST("/:id/approve", managers, h.ChangeRequest.Approve)
			changes.POST("/:id/deny", managers, h.ChangeRequest.Deny)
		}

		// 审批队列
		approvals := authorized.Group("/approvals", managers)
		{
			approvals.GET("", h.Approval.GetQueue)
			approvals.POST("/resolve", h.Approval.Resolve)
		}

		// 考勤与异常
		authorized.POST("/attendance", h.Exception.RecordAttendance) // 员工本人打卡（Service 层鉴权）
		exceptions := authorized.Group("/exceptions")
		{
			exceptions.GET("", h.Exception.List)
			exceptions.POST("/scan", managers, h.Exception.Scan)
			exceptions.POST("/:id/resolve", managers, h.Exception.Resolve)
		}

		// 人力成本
		labor := authorized.Group("/labor")
		{
			labor.GET("/daily", h.Labor.Daily)
			labor.GET("/weekly", h.Labor.Weekly)
			labor.PUT("/sales", managers, h.Labor.UpsertSales)
		}

		// 请假（员工只能看到和提交本人的，Service 层过滤）
		timeOff := authorized.Group("/time-off")
		{
			timeOff.GET("", h.TimeOff.List)
			timeOff.POST("", h.TimeOff.Create)
			timeOff.POST("/:id/approve", managers, h.TimeOff.Approve)
			timeOff.POST("/:id/reject", managers, h.TimeOff.Reject)
		}

		// 导出模块
		export := authorized.Group("/export")
		{
			export.GET("/week", managers, h.Export.ExportWeek)
			export.GET("/calendar", h.Export.EmployeeCalendar)
		}
	}

	return r
}
