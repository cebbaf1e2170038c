package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shiftgov/internal/dto"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	pkgerrors "shiftgov/pkg/errors"
)

// shiftPublisher 逐个发布班次，不做整体回滚
type shiftPublisher struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// publish 按 ids 顺序发布；skipPast 为 true 时跳过 today 之前的班次
// 已发布的班次视为成功且不产生写入
func (p *shiftPublisher) publish(ctx context.Context, ids []string, shifts []model.Shift, companyID string, skipPast bool, today string, callerID string) *dto.BulkPublishResponse {
	byID := make(map[string]*model.Shift, len(shifts))
	for i := range shifts {
		byID[shifts[i].ShiftID] = &shifts[i]
	}

	resp := &dto.BulkPublishResponse{Items: make([]dto.BulkPublishItem, 0, len(ids))}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		item := dto.BulkPublishItem{ShiftID: id}
		shift, ok := byID[id]
		switch {
		case !ok || shift.CompanyID != companyID:
			item.Status = dto.PublishStatusFailed
			item.Error = ErrShiftNotFound.Error()
			resp.Failed++
		case shift.IsPublished:
			item.Status = dto.PublishStatusAlreadyPublished
			resp.Published++
		case skipPast && formatDate(shift.ShiftDate) < today:
			item.Status = dto.PublishStatusSkippedPast
			resp.Skipped++
		default:
			shift.IsPublished = true
			shift.UpdatedBy = &callerID
			if err := p.repo.Shift.Update(ctx, shift); err != nil {
				shift.IsPublished = false
				item.Status = dto.PublishStatusFailed
				if errors.Is(err, pkgerrors.ErrOptimisticLock) {
					item.Error = "班次已被他人修改"
				} else {
					p.logger.Error("发布班次失败", zap.String("shift_id", id), zap.Error(err))
					item.Error = "发布失败"
				}
				resp.Failed++
			} else {
				item.Status = dto.PublishStatusPublished
				resp.Published++
			}
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
