package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftgov/config"
	"shiftgov/internal/model"
	"shiftgov/internal/repository"
	pkgerrors "shiftgov/pkg/errors"
	"shiftgov/pkg/redis"
)

// memStore 所有 mock repository 共享的内存数据
// 指派需要关联班次，班次需要关联指派，因此放在同一份存储里
type memStore struct {
	seq int

	locations   map[string]*model.Location
	hours       map[string][]model.OperatingHours
	employees   map[string]*model.Employee
	shifts      map[string]*model.Shift
	assignments map[string]*model.ShiftAssignment
	periods     map[string]*model.SchedulePeriod
	changes     map[string]*model.ChangeRequest
	exceptions  map[string]*model.WorkforceException
	attendance  map[string]*model.AttendanceLog
	timeOff     map[string]*model.TimeOffRequest
	sales       map[string]*model.LaborSalesDay
}

func newMemStore() *memStore {
	return &memStore{
		locations:   make(map[string]*model.Location),
		hours:       make(map[string][]model.OperatingHours),
		employees:   make(map[string]*model.Employee),
		shifts:      make(map[string]*model.Shift),
		assignments: make(map[string]*model.ShiftAssignment),
		periods:     make(map[string]*model.SchedulePeriod),
		changes:     make(map[string]*model.ChangeRequest),
		exceptions:  make(map[string]*model.WorkforceException),
		attendance:  make(map[string]*model.AttendanceLog),
		timeOff:     make(map[string]*model.TimeOffRequest),
		sales:       make(map[string]*model.LaborSalesDay),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// repository 以 mock 实现组装 Repository 聚合（无数据库连接）
func (s *memStore) repository() *repository.Repository {
	return &repository.Repository{
		Location:       &mockLocationRepo{s},
		OperatingHours: &mockOperatingHoursRepo{s},
		Employee:       &mockEmployeeRepo{s},
		Shift:          &mockShiftRepo{s},
		Assignment:     &mockAssignmentRepo{s},
		Period:         &mockPeriodRepo{s},
		ChangeRequest:  &mockChangeRequestRepo{s},
		Exception:      &mockExceptionRepo{s},
		Attendance:     &mockAttendanceRepo{s},
		TimeOff:        &mockTimeOffRepo{s},
		LaborSales:     &mockLaborSalesRepo{s},
	}
}

func sameDate(a, b time.Time) bool {
	return a.Format(model.DateLayout) == b.Format(model.DateLayout)
}

func inDateRange(d, from, to time.Time) bool {
	v := d.Format(model.DateLayout)
	return v >= from.Format(model.DateLayout) && v <= to.Format(model.DateLayout)
}

// ── Mock LocationRepository ──

type mockLocationRepo struct{ s *memStore }

func (m *mockLocationRepo) Create(_ context.Context, loc *model.Location) error {
	if loc.LocationID == "" {
		loc.LocationID = m.s.nextID("loc")
	}
	cp := *loc
	cp.OperatingHours = nil
	m.s.locations[loc.LocationID] = &cp
	return nil
}

func (m *mockLocationRepo) GetByID(_ context.Context, id string) (*model.Location, error) {
	loc, ok := m.s.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *loc
	cp.OperatingHours = append([]model.OperatingHours(nil), m.s.hours[id]...)
	return &cp, nil
}

func (m *mockLocationRepo) List(_ context.Context, companyID string, includeInactive bool) ([]model.Location, error) {
	var list []model.Location
	for _, loc := range m.s.locations {
		if loc.CompanyID != companyID || (!includeInactive && !loc.IsActive) {
			continue
		}
		list = append(list, *loc)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (m *mockLocationRepo) ListAllActive(_ context.Context) ([]model.Location, error) {
	var list []model.Location
	for _, loc := range m.s.locations {
		if loc.IsActive {
			list = append(list, *loc)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CompanyID != list[j].CompanyID {
			return list[i].CompanyID < list[j].CompanyID
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (m *mockLocationRepo) Update(_ context.Context, loc *model.Location) error {
	if _, ok := m.s.locations[loc.LocationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *loc
	cp.OperatingHours = nil
	m.s.locations[loc.LocationID] = &cp
	return nil
}

// ── Mock OperatingHoursRepository ──

type mockOperatingHoursRepo struct{ s *memStore }

func (m *mockOperatingHoursRepo) ListByLocation(_ context.Context, locationID string) ([]model.OperatingHours, error) {
	return append([]model.OperatingHours(nil), m.s.hours[locationID]...), nil
}

func (m *mockOperatingHoursRepo) ReplaceForLocation(_ context.Context, locationID string, hours []model.OperatingHours) error {
	list := make([]model.OperatingHours, len(hours))
	for i, h := range hours {
		h.LocationID = locationID
		list[i] = h
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Weekday < list[j].Weekday })
	m.s.hours[locationID] = list
	return nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct{ s *memStore }

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	emp, ok := m.s.employees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *emp
	return &cp, nil
}

func (m *mockEmployeeRepo) GetByIDs(_ context.Context, ids []string) ([]model.Employee, error) {
	var list []model.Employee
	for _, id := range ids {
		if emp, ok := m.s.employees[id]; ok {
			list = append(list, *emp)
		}
	}
	return list, nil
}

func (m *mockEmployeeRepo) ListByLocation(_ context.Context, locationID string) ([]model.Employee, error) {
	var list []model.Employee
	for _, emp := range m.s.employees {
		if emp.IsActive && emp.HomeLocationID != nil && *emp.HomeLocationID == locationID {
			list = append(list, *emp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].FullName < list[j].FullName })
	return list, nil
}

func (m *mockEmployeeRepo) ListByCompany(_ context.Context, companyID string) ([]model.Employee, error) {
	var list []model.Employee
	for _, emp := range m.s.employees {
		if emp.IsActive && emp.CompanyID == companyID {
			list = append(list, *emp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].FullName < list[j].FullName })
	return list, nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct{ s *memStore }

// load 返回带指派的班次副本
func (m *mockShiftRepo) load(sh *model.Shift) model.Shift {
	cp := *sh
	cp.Assignments = nil
	for _, a := range m.s.assignments {
		if a.ShiftID != sh.ShiftID {
			continue
		}
		ac := *a
		if emp, ok := m.s.employees[a.EmployeeID]; ok {
			e := *emp
			ac.Employee = &e
		}
		cp.Assignments = append(cp.Assignments, ac)
	}
	sort.Slice(cp.Assignments, func(i, j int) bool {
		return cp.Assignments[i].AssignmentID < cp.Assignments[j].AssignmentID
	})
	return cp
}

func sortShifts(list []model.Shift) {
	sort.Slice(list, func(i, j int) bool {
		di, dj := list[i].ShiftDate.Format(model.DateLayout), list[j].ShiftDate.Format(model.DateLayout)
		if di != dj {
			return di < dj
		}
		return list[i].StartTime < list[j].StartTime
	})
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		shift.ShiftID = m.s.nextID("shift")
	}
	if shift.Version == 0 {
		shift.Version = 1
	}
	cp := *shift
	cp.Assignments = nil
	m.s.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	sh, ok := m.s.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.load(sh)
	return &cp, nil
}

func (m *mockShiftRepo) GetByIDs(_ context.Context, ids []string) ([]model.Shift, error) {
	var list []model.Shift
	for _, id := range ids {
		if sh, ok := m.s.shifts[id]; ok {
			list = append(list, m.load(sh))
		}
	}
	sortShifts(list)
	return list, nil
}

func (m *mockShiftRepo) List(_ context.Context, filter repository.ShiftFilter) ([]model.Shift, error) {
	var list []model.Shift
	for _, sh := range m.s.shifts {
		if sh.CompanyID != filter.CompanyID || !inDateRange(sh.ShiftDate, filter.From, filter.To) {
			continue
		}
		if filter.LocationID != "" && sh.LocationID != filter.LocationID {
			continue
		}
		if filter.OnlyPublished && !sh.IsPublished {
			continue
		}
		list = append(list, m.load(sh))
	}
	sortShifts(list)
	return list, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	cur, ok := m.s.shifts[shift.ShiftID]
	if !ok || cur.Version != shift.Version {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Version++
	cp := *shift
	cp.Assignments = nil
	m.s.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.s.shifts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for aid, a := range m.s.assignments {
		if a.ShiftID == id {
			delete(m.s.assignments, aid)
		}
	}
	delete(m.s.shifts, id)
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct{ s *memStore }

// withRelations 附带班次与员工（不含班次的指派列表）
func (m *mockAssignmentRepo) withRelations(a *model.ShiftAssignment) model.ShiftAssignment {
	cp := *a
	if sh, ok := m.s.shifts[a.ShiftID]; ok {
		s := *sh
		s.Assignments = nil
		cp.Shift = &s
	}
	if emp, ok := m.s.employees[a.EmployeeID]; ok {
		e := *emp
		cp.Employee = &e
	}
	return cp
}

// Create 员工不存在时模拟外键约束失败
func (m *mockAssignmentRepo) Create(_ context.Context, a *model.ShiftAssignment) error {
	if _, ok := m.s.employees[a.EmployeeID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if a.AssignmentID == "" {
		a.AssignmentID = m.s.nextID("asg")
	}
	cp := *a
	cp.Shift, cp.Employee = nil, nil
	m.s.assignments[a.AssignmentID] = &cp
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.ShiftAssignment, error) {
	a, ok := m.s.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withRelations(a)
	return &cp, nil
}

func (m *mockAssignmentRepo) ListByShift(_ context.Context, shiftID string) ([]model.ShiftAssignment, error) {
	var list []model.ShiftAssignment
	for _, a := range m.s.assignments {
		if a.ShiftID == shiftID {
			list = append(list, m.withRelations(a))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].AssignmentID < list[j].AssignmentID })
	return list, nil
}

func (m *mockAssignmentRepo) FindActive(_ context.Context, shiftID, employeeID string) (*model.ShiftAssignment, error) {
	for _, a := range m.s.assignments {
		if a.ShiftID == shiftID && a.EmployeeID == employeeID && a.Status != model.AssignmentRejected {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) ListByEmployee(_ context.Context, employeeID string, from, to time.Time, statuses []string) ([]model.ShiftAssignment, error) {
	var list []model.ShiftAssignment
	for _, a := range m.s.assignments {
		if a.EmployeeID != employeeID {
			continue
		}
		sh, ok := m.s.shifts[a.ShiftID]
		if !ok || !inDateRange(sh.ShiftDate, from, to) {
			continue
		}
		if len(statuses) > 0 && !containsString(statuses, a.Status) {
			continue
		}
		list = append(list, m.withRelations(a))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].AssignmentID < list[j].AssignmentID })
	return list, nil
}

func (m *mockAssignmentRepo) List(_ context.Context, filter repository.AssignmentFilter) ([]model.ShiftAssignment, error) {
	var list []model.ShiftAssignment
	for _, a := range m.s.assignments {
		sh, ok := m.s.shifts[a.ShiftID]
		if !ok || sh.CompanyID != filter.CompanyID {
			continue
		}
		if filter.LocationID != "" && sh.LocationID != filter.LocationID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.From != nil && sh.ShiftDate.Format(model.DateLayout) < filter.From.Format(model.DateLayout) {
			continue
		}
		if filter.To != nil && sh.ShiftDate.Format(model.DateLayout) > filter.To.Format(model.DateLayout) {
			continue
		}
		list = append(list, m.withRelations(a))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].AssignmentID < list[j].AssignmentID })
	return list, nil
}

func (m *mockAssignmentRepo) UpdateStatus(_ context.Context, a *model.ShiftAssignment, fromStatus string) error {
	cur, ok := m.s.assignments[a.AssignmentID]
	if !ok || cur.Status != fromStatus {
		return pkgerrors.ErrOptimisticLock
	}
	cur.Status = a.Status
	cur.DecidedBy = a.DecidedBy
	cur.DecidedAt = a.DecidedAt
	cur.UpdatedBy = a.UpdatedBy
	return nil
}

func (m *mockAssignmentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.s.assignments, id)
	return nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ── Mock SchedulePeriodRepository ──

type mockPeriodRepo struct{ s *memStore }

func (m *mockPeriodRepo) Create(_ context.Context, period *model.SchedulePeriod) error {
	for _, p := range m.s.periods {
		if p.LocationID == period.LocationID && sameDate(p.WeekStart, period.WeekStart) {
			return gorm.ErrDuplicatedKey
		}
	}
	if period.PeriodID == "" {
		period.PeriodID = m.s.nextID("period")
	}
	if period.Version == 0 {
		period.Version = 1
	}
	cp := *period
	m.s.periods[period.PeriodID] = &cp
	return nil
}

func (m *mockPeriodRepo) GetByID(_ context.Context, id string) (*model.SchedulePeriod, error) {
	p, ok := m.s.periods[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPeriodRepo) GetByLocationWeek(_ context.Context, locationID string, weekStart time.Time) (*model.SchedulePeriod, error) {
	for _, p := range m.s.periods {
		if p.LocationID == locationID && sameDate(p.WeekStart, weekStart) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) ListByWeek(_ context.Context, companyID string, weekStart time.Time) ([]model.SchedulePeriod, error) {
	var list []model.SchedulePeriod
	for _, p := range m.s.periods {
		if p.CompanyID == companyID && sameDate(p.WeekStart, weekStart) {
			list = append(list, *p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].LocationID < list[j].LocationID })
	return list, nil
}

func (m *mockPeriodRepo) Update(_ context.Context, period *model.SchedulePeriod) error {
	cur, ok := m.s.periods[period.PeriodID]
	if !ok || cur.Version != period.Version {
		return pkgerrors.ErrOptimisticLock
	}
	period.Version++
	cp := *period
	m.s.periods[period.PeriodID] = &cp
	return nil
}

// ── Mock ChangeRequestRepository ──

type mockChangeRequestRepo struct{ s *memStore }

func (m *mockChangeRequestRepo) Create(_ context.Context, cr *model.ChangeRequest) error {
	if cr.ChangeRequestID == "" {
		cr.ChangeRequestID = m.s.nextID("cr")
	}
	cp := *cr
	m.s.changes[cr.ChangeRequestID] = &cp
	return nil
}

func (m *mockChangeRequestRepo) GetByID(_ context.Context, id string) (*model.ChangeRequest, error) {
	cr, ok := m.s.changes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *cr
	return &cp, nil
}

func (m *mockChangeRequestRepo) List(_ context.Context, filter repository.ChangeRequestFilter) ([]model.ChangeRequest, error) {
	var list []model.ChangeRequest
	for _, cr := range m.s.changes {
		if cr.CompanyID != filter.CompanyID {
			continue
		}
		if filter.PeriodID != "" && cr.PeriodID != filter.PeriodID {
			continue
		}
		if filter.LocationID != "" && cr.LocationID != filter.LocationID {
			continue
		}
		if filter.Status != "" && cr.Status != filter.Status {
			continue
		}
		list = append(list, *cr)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ChangeRequestID < list[j].ChangeRequestID })
	return list, nil
}

func (m *mockChangeRequestRepo) Resolve(_ context.Context, cr *model.ChangeRequest) error {
	cur, ok := m.s.changes[cr.ChangeRequestID]
	if !ok || cur.Status != model.ChangePending {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *cr
	m.s.changes[cr.ChangeRequestID] = &cp
	return nil
}

// ── Mock WorkforceExceptionRepository ──

type mockExceptionRepo struct{ s *memStore }

func (m *mockExceptionRepo) Create(_ context.Context, e *model.WorkforceException) error {
	if e.ExceptionID == "" {
		e.ExceptionID = m.s.nextID("exc")
	}
	cp := *e
	m.s.exceptions[e.ExceptionID] = &cp
	return nil
}

func (m *mockExceptionRepo) GetByID(_ context.Context, id string) (*model.WorkforceException, error) {
	e, ok := m.s.exceptions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockExceptionRepo) List(_ context.Context, filter repository.ExceptionFilter) ([]model.WorkforceException, error) {
	var list []model.WorkforceException
	for _, e := range m.s.exceptions {
		if e.CompanyID != filter.CompanyID {
			continue
		}
		if filter.LocationID != "" && e.LocationID != filter.LocationID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.From != nil && e.WorkDate.Format(model.DateLayout) < filter.From.Format(model.DateLayout) {
			continue
		}
		if filter.To != nil && e.WorkDate.Format(model.DateLayout) > filter.To.Format(model.DateLayout) {
			continue
		}
		list = append(list, *e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ExceptionID < list[j].ExceptionID })
	return list, nil
}

func (m *mockExceptionRepo) Exists(_ context.Context, employeeID string, shiftID *string, exceptionType string, workDate time.Time) (bool, error) {
	for _, e := range m.s.exceptions {
		if e.EmployeeID != employeeID || e.ExceptionType != exceptionType || !sameDate(e.WorkDate, workDate) {
			continue
		}
		if (shiftID == nil) != (e.ShiftID == nil) {
			continue
		}
		if shiftID != nil && *shiftID != *e.ShiftID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *mockExceptionRepo) Resolve(_ context.Context, e *model.WorkforceException) error {
	cur, ok := m.s.exceptions[e.ExceptionID]
	if !ok || cur.Status != model.ExceptionPending {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *e
	m.s.exceptions[e.ExceptionID] = &cp
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct{ s *memStore }

func sortLogs(list []model.AttendanceLog) {
	sort.Slice(list, func(i, j int) bool { return list[i].ClockIn.Before(list[j].ClockIn) })
}

func (m *mockAttendanceRepo) Create(_ context.Context, log *model.AttendanceLog) error {
	if log.AttendanceLogID == "" {
		log.AttendanceLogID = m.s.nextID("att")
	}
	cp := *log
	m.s.attendance[log.AttendanceLogID] = &cp
	return nil
}

func (m *mockAttendanceRepo) GetOpen(_ context.Context, employeeID string) (*model.AttendanceLog, error) {
	var found *model.AttendanceLog
	for _, l := range m.s.attendance {
		if l.EmployeeID != employeeID || l.ClockOut != nil {
			continue
		}
		if found == nil || l.ClockIn.After(found.ClockIn) {
			found = l
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *mockAttendanceRepo) CloseOut(_ context.Context, log *model.AttendanceLog) error {
	cur, ok := m.s.attendance[log.AttendanceLogID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.ClockOut = log.ClockOut
	cur.UpdatedBy = log.UpdatedBy
	return nil
}

func (m *mockAttendanceRepo) ListByLocationDate(_ context.Context, locationID string, date time.Time) ([]model.AttendanceLog, error) {
	var list []model.AttendanceLog
	for _, l := range m.s.attendance {
		if l.LocationID == locationID && sameDate(l.WorkDate, date) {
			list = append(list, *l)
		}
	}
	sortLogs(list)
	return list, nil
}

func (m *mockAttendanceRepo) ListByShiftIDs(_ context.Context, shiftIDs []string) ([]model.AttendanceLog, error) {
	var list []model.AttendanceLog
	for _, l := range m.s.attendance {
		if l.ShiftID != nil && containsString(shiftIDs, *l.ShiftID) {
			list = append(list, *l)
		}
	}
	sortLogs(list)
	return list, nil
}

// ── Mock TimeOffRepository ──

type mockTimeOffRepo struct{ s *memStore }

func (m *mockTimeOffRepo) withEmployee(r *model.TimeOffRequest) model.TimeOffRequest {
	cp := *r
	if emp, ok := m.s.employees[r.EmployeeID]; ok {
		e := *emp
		cp.Employee = &e
	}
	return cp
}

func (m *mockTimeOffRepo) Create(_ context.Context, req *model.TimeOffRequest) error {
	if req.TimeOffRequestID == "" {
		req.TimeOffRequestID = m.s.nextID("pto")
	}
	cp := *req
	cp.Employee = nil
	m.s.timeOff[req.TimeOffRequestID] = &cp
	return nil
}

func (m *mockTimeOffRepo) GetByID(_ context.Context, id string) (*model.TimeOffRequest, error) {
	r, ok := m.s.timeOff[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withEmployee(r)
	return &cp, nil
}

func (m *mockTimeOffRepo) List(_ context.Context, filter repository.TimeOffFilter) ([]model.TimeOffRequest, error) {
	var list []model.TimeOffRequest
	for _, r := range m.s.timeOff {
		if len(filter.EmployeeIDs) > 0 && !containsString(filter.EmployeeIDs, r.EmployeeID) {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.From != nil && r.EndDate.Format(model.DateLayout) < filter.From.Format(model.DateLayout) {
			continue
		}
		if filter.To != nil && r.StartDate.Format(model.DateLayout) > filter.To.Format(model.DateLayout) {
			continue
		}
		list = append(list, m.withEmployee(r))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TimeOffRequestID < list[j].TimeOffRequestID })
	return list, nil
}

func (m *mockTimeOffRepo) Decide(_ context.Context, req *model.TimeOffRequest) error {
	cur, ok := m.s.timeOff[req.TimeOffRequestID]
	if !ok || cur.Status != model.TimeOffPending {
		return pkgerrors.ErrOptimisticLock
	}
	cur.Status = req.Status
	cur.DecidedBy = req.DecidedBy
	cur.DecidedAt = req.DecidedAt
	cur.UpdatedBy = req.UpdatedBy
	return nil
}

// ── Mock LaborSalesRepository ──

type mockLaborSalesRepo struct{ s *memStore }

func (m *mockLaborSalesRepo) ListRange(_ context.Context, locationID string, from, to time.Time) ([]model.LaborSalesDay, error) {
	var list []model.LaborSalesDay
	for _, d := range m.s.sales {
		if d.LocationID == locationID && inDateRange(d.SalesDate, from, to) {
			list = append(list, *d)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SalesDate.Before(list[j].SalesDate) })
	return list, nil
}

func (m *mockLaborSalesRepo) Upsert(_ context.Context, day *model.LaborSalesDay) error {
	key := day.LocationID + "|" + day.SalesDate.Format(model.DateLayout)
	cp := *day
	m.s.sales[key] = &cp
	return nil
}

// ── Mock PeriodStateCache ──

type mockPeriodCache struct {
	states map[string]string
}

func newMockPeriodCache() *mockPeriodCache {
	return &mockPeriodCache{states: make(map[string]string)}
}

func periodCacheKey(locationID string, weekStart time.Time) string {
	return locationID + "|" + weekStart.Format(model.DateLayout)
}

func (c *mockPeriodCache) GetPeriodState(_ context.Context, locationID string, weekStart time.Time) (string, error) {
	state, ok := c.states[periodCacheKey(locationID, weekStart)]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return state, nil
}

func (c *mockPeriodCache) SetPeriodState(_ context.Context, locationID string, weekStart time.Time, state string, _ time.Duration) error {
	c.states[periodCacheKey(locationID, weekStart)] = state
	return nil
}

// ── 测试夹具 ──

const (
	testCompany  = "company-1"
	testLocation = "loc-main"
	testManager  = "mgr-1"
	testOwner    = "owner-1"
	testEmpA     = "emp-a"
	testEmpB     = "emp-b"
)

var (
	managerCaller  = Caller{UserID: testManager, Role: model.RoleManager, CompanyID: testCompany}
	ownerCaller    = Caller{UserID: testOwner, Role: model.RoleOwner, CompanyID: testCompany}
	employeeCaller = Caller{UserID: testEmpA, Role: model.RoleEmployee, CompanyID: testCompany}
)

func testConfig() *config.Config {
	return &config.Config{
		Governance: config.GovernanceConfig{
			Timezone:       "UTC",
			HoursCacheTTL:  time.Minute,
			PeriodCacheTTL: time.Minute,
		},
		Attendance: config.AttendanceConfig{
			LateGraceMinutes:   5,
			EarlyGraceMinutes:  10,
			ExtendGraceMinutes: 15,
			OvertimeDailyHours: 10,
		},
	}
}

// seedStore 一个门店（周一至周日 09:00–17:00）与两名员工
func seedStore() *memStore {
	s := newMemStore()
	home := testLocation
	s.locations[testLocation] = &model.Location{
		LocationID: testLocation,
		CompanyID:  testCompany,
		Name:       "总店",
		IsActive:   true,
	}
	for wd := 0; wd < 7; wd++ {
		s.hours[testLocation] = append(s.hours[testLocation], model.OperatingHours{
			LocationID: testLocation,
			Weekday:    wd,
			OpenTime:   "09:00:00",
			CloseTime:  "17:00:00",
		})
	}
	s.employees[testEmpA] = &model.Employee{
		EmployeeID:     testEmpA,
		CompanyID:      testCompany,
		FullName:       "张三",
		Role:           model.RoleEmployee,
		HourlyRate:     20,
		HomeLocationID: &home,
		IsActive:       true,
	}
	s.employees[testEmpB] = &model.Employee{
		EmployeeID:     testEmpB,
		CompanyID:      testCompany,
		FullName:       "李四",
		Role:           model.RoleEmployee,
		HourlyRate:     15,
		HomeLocationID: &home,
		IsActive:       true,
	}
	return s
}

// setupTestServices 基于内存存储创建完整 Service 聚合
func setupTestServices() (*Service, *memStore) {
	s := seedStore()
	svc := NewService(testConfig(), s.repository(), newMockPeriodCache(), zap.NewNop())
	return svc, s
}

// addShift 直接写入一个班次（绕过治理闸门）
func (s *memStore) addShift(date, start, end string, required int, published bool) *model.Shift {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	sh := &model.Shift{
		ShiftID:       s.nextID("shift"),
		CompanyID:     testCompany,
		LocationID:    testLocation,
		ShiftDate:     d,
		StartTime:     start,
		EndTime:       end,
		RoleName:      "cashier",
		RequiredCount: required,
		IsPublished:   published,
	}
	sh.Version = 1
	s.shifts[sh.ShiftID] = sh
	return sh
}

func (s *memStore) addAssignment(shiftID, employeeID, status string) *model.ShiftAssignment {
	a := &model.ShiftAssignment{
		AssignmentID: s.nextID("asg"),
		ShiftID:      shiftID,
		EmployeeID:   employeeID,
		Status:       status,
	}
	s.assignments[a.AssignmentID] = a
	return a
}

// lockWeek 将门店某周直接置为 locked
func (s *memStore) lockWeek(weekStart string) *model.SchedulePeriod {
	d, err := time.Parse(model.DateLayout, weekStart)
	if err != nil {
		panic(err)
	}
	p := &model.SchedulePeriod{
		PeriodID:   s.nextID("period"),
		CompanyID:  testCompany,
		LocationID: testLocation,
		WeekStart:  d,
		Status:     model.PeriodLocked,
	}
	p.Version = 1
	s.periods[p.PeriodID] = p
	return p
}
