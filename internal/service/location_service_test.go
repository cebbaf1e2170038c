package service

import (
	"context"
	"errors"
	"testing"

	"shiftgov/internal/dto"
)

// ── Create / List 测试 ──

func TestLocationService_Create_Success(t *testing.T) {
	svc, store := setupTestServices()

	result, err := svc.Location.Create(context.Background(), &dto.CreateLocationRequest{
		Name:    "东门分店",
		Address: "东门路 12 号",
	}, managerCaller)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Name != "东门分店" {
		t.Errorf("期望Name=东门分店，实际=%s", result.Name)
	}
	if !result.IsActive {
		t.Error("新建门店应默认营业")
	}
	if store.locations[result.ID].CompanyID != testCompany {
		t.Errorf("门店应归属调用者公司，实际=%s", store.locations[result.ID].CompanyID)
	}
}

func TestLocationService_List_ExcludesInactive(t *testing.T) {
	svc, _ := setupTestServices()
	ctx := context.Background()

	created, err := svc.Location.Create(ctx, &dto.CreateLocationRequest{Name: "旧店"}, managerCaller)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	inactive := false
	if _, err := svc.Location.Update(ctx, created.ID, &dto.UpdateLocationRequest{IsActive: &inactive}, managerCaller); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}

	list, err := svc.Location.List(ctx, &dto.LocationListRequest{}, managerCaller)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("默认只返回营业中门店，期望 1 个，实际=%d", len(list))
	}

	all, err := svc.Location.List(ctx, &dto.LocationListRequest{IncludeInactive: true}, managerCaller)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("include_inactive 时期望 2 个，实际=%d", len(all))
	}
}

// ── 公司隔离 ──

func TestLocationService_GetByID_OtherCompany(t *testing.T) {
	svc, _ := setupTestServices()
	outsider := Caller{UserID: "mgr-x", Role: managerCaller.Role, CompanyID: "company-2"}

	_, err := svc.Location.GetByID(context.Background(), testLocation, outsider)
	if !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("期望 ErrLocationNotFound，实际: %v", err)
	}
}

func TestLocationService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestServices()

	_, err := svc.Location.GetByID(context.Background(), "nonexistent", managerCaller)
	if !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("期望 ErrLocationNotFound，实际: %v", err)
	}
}

// ── 营业时间 ──

func TestLocationService_SetOperatingHours_Validation(t *testing.T) {
	tests := []struct {
		name  string
		days  []dto.OperatingHoursItem
		field string
	}{
		{
			name:  "星期几越界",
			days:  []dto.OperatingHoursItem{{Weekday: 7, OpenTime: "09:00", CloseTime: "17:00"}},
			field: "weekday",
		},
		{
			name: "星期几重复",
			days: []dto.OperatingHoursItem{
				{Weekday: 1, OpenTime: "09:00", CloseTime: "17:00"},
				{Weekday: 1, OpenTime: "10:00", CloseTime: "18:00"},
			},
			field: "weekday",
		},
		{
			name:  "营业日缺少开门时间",
			days:  []dto.OperatingHoursItem{{Weekday: 2, CloseTime: "17:00"}},
			field: "open_time",
		},
		{
			name:  "营业日缺少打烊时间",
			days:  []dto.OperatingHoursItem{{Weekday: 2, OpenTime: "09:00"}},
			field: "close_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupTestServices()
			_, err := svc.Location.SetOperatingHours(context.Background(), testLocation,
				&dto.SetOperatingHoursRequest{Days: tt.days}, managerCaller)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("期望 ValidationError，实际: %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("期望字段=%s，实际=%s", tt.field, ve.Field)
			}
		})
	}
}

func TestLocationService_SetOperatingHours_ClosedDay(t *testing.T) {
	svc, store := setupTestServices()

	items, err := svc.Location.SetOperatingHours(context.Background(), testLocation, &dto.SetOperatingHoursRequest{
		Days: []dto.OperatingHoursItem{
			{Weekday: 0, OpenTime: "9:00", CloseTime: "17:00"},
			{Weekday: 6, IsClosed: true},
		},
	}, managerCaller)
	if err != nil {
		t.Fatalf("SetOperatingHours 应成功: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望 2 条营业时间，实际=%d", len(items))
	}

	saved := store.hours[testLocation]
	if saved[0].OpenTime != "09:00:00" {
		t.Errorf("开门时间应规范化为 09:00:00，实际=%s", saved[0].OpenTime)
	}
	if !saved[1].IsClosed || saved[1].OpenTime != "00:00:00" {
		t.Errorf("休息日应记为 00:00:00 且 is_closed，实际=%+v", saved[1])
	}
}
