package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shiftgov/internal/api/middleware"
	"shiftgov/internal/service"
	pkgerrors "shiftgov/pkg/errors"
	"shiftgov/pkg/response"
)

// MustGetCaller 从 Gin 上下文中提取当前操作者。
// 如果 JWT 中间件未正确注入 user_id / company_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID := c.GetString(middleware.CtxUserID)
	companyID := c.GetString(middleware.CtxCompanyID)
	if userID == "" || companyID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Caller{}, false
	}
	return service.Caller{
		UserID:    userID,
		Role:      c.GetString(middleware.CtxRole),
		CompanyID: companyID,
	}, true
}

// bindJSON 绑定请求体，失败时写入 400（超限时 413）
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return false
	}
	return true
}

// bindQuery 绑定查询参数，失败时写入 400
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return false
	}
	return true
}

// handleCommonError 跨模块错误分类
// 各模块的 handleXxxError 先处理本模块的错误，未命中再交由此处
func handleCommonError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrLocationNotFound):
		response.NotFound(c, 11001, "门店不存在")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 11002, "员工不存在")
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 15003, "排班周期不存在")
	case errors.As(err, &ve):
		response.UnprocessableEntity(c, 10010, ve.Reason, ve.Field)
	case errors.Is(err, service.ErrValidation):
		response.UnprocessableEntity(c, 10010, "校验失败", err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.ErrorWithDetails(c, http.StatusConflict, 10012, "数据已被其他操作修改，请刷新后重试", "version_conflict")
	case errors.Is(err, service.ErrForbidden):
		response.ErrorWithDetails(c, http.StatusForbidden, 10011, "无权执行此操作", err.Error())
	case errors.Is(err, service.ErrInvalidState):
		response.ErrorWithDetails(c, http.StatusConflict, 10013, "当前状态不允许此操作", err.Error())
	default:
		response.InternalError(c)
	}
}
