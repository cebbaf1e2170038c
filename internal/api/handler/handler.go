package handler

import "shiftgov/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Location      *LocationHandler
	Period        *PeriodHandler
	Shift         *ShiftHandler
	ChangeRequest *ChangeRequestHandler
	Exception     *ExceptionHandler
	Labor         *LaborHandler
	Approval      *ApprovalHandler
	TimeOff       *TimeOffHandler
	Export        *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Location:      NewLocationHandler(svc.Location),
		Period:        NewPeriodHandler(svc.Period),
		Shift:         NewShiftHandler(svc.Shift),
		ChangeRequest: NewChangeRequestHandler(svc.ChangeRequest),
		Exception:     NewExceptionHandler(svc.Exception),
		Labor:         NewLaborHandler(svc.Labor),
		Approval:      NewApprovalHandler(svc.Approval),
		TimeOff:       NewTimeOffHandler(svc.TimeOff),
		Export:        NewExportHandler(svc.Export),
	}
}
