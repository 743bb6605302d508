package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/barberbook/backend/pkg/pg"
	"github.com/barberbook/backend/pkg/tenantscope"
)

// Manager coordinates the booking domain on top of tenant-scoped
// repositories. Repositories are constructed per call from the request
// context, so a Manager itself is tenant-agnostic and safe to share.
type Manager struct {
	db    tenantscope.DB
	clock clock.Clock
	log   *slog.Logger
}

// ManagerOption configures optional Manager collaborators.
type ManagerOption func(*Manager)

// WithClock replaces the wall clock, used by tests.
func WithClock(c clock.Clock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

// NewManager creates the booking manager.
func NewManager(db tenantscope.DB, log *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{db: db, clock: clock.New(), log: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) services(ctx context.Context) (*tenantscope.Repository[Service, *Service], error) {
	return tenantscope.New[Service](ctx, m.db, serviceDescriptor)
}

func (m *Manager) appointments(ctx context.Context) (*tenantscope.Repository[Appointment, *Appointment], error) {
	return tenantscope.New[Appointment](ctx, m.db, appointmentDescriptor)
}

func (m *Manager) schedules(ctx context.Context) (*tenantscope.Repository[AvailabilitySchedule, *AvailabilitySchedule], error) {
	return tenantscope.New[AvailabilitySchedule](ctx, m.db, scheduleDescriptor)
}

// Services returns the shop's catalog. When activeOnly is set, retired
// offerings are filtered out.
func (m *Manager) Services(ctx context.Context, activeOnly bool) ([]Service, error) {
	repo, err := m.services(ctx)
	if err != nil {
		return nil, err
	}

	qb := repo.Select().OrderBy("name")
	if activeOnly {
		qb = qb.Where(sq.Eq{"is_active": true})
	}
	return repo.Query(ctx, qb)
}

// CreateService adds an offering to the shop's catalog.
func (m *Manager) CreateService(ctx context.Context, svc *Service) error {
	repo, err := m.services(ctx)
	if err != nil {
		return err
	}
	return repo.Create(ctx, svc)
}

// UpdateService rewrites an offering.
func (m *Manager) UpdateService(ctx context.Context, id int64, svc *Service) error {
	repo, err := m.services(ctx)
	if err != nil {
		return err
	}
	return repo.Update(ctx, id, svc)
}

// DeleteService removes an offering from the catalog.
func (m *Manager) DeleteService(ctx context.Context, id int64) error {
	repo, err := m.services(ctx)
	if err != nil {
		return err
	}
	return repo.Delete(ctx, id)
}

// UpcomingAppointments returns the shop's appointments from today onward,
// soonest first.
func (m *Manager) UpcomingAppointments(ctx context.Context) ([]Appointment, error) {
	repo, err := m.appointments(ctx)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now().UTC()
	today := pgtype.Date{
		Time:  time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
	qb := repo.Select().
		Where(sq.GtOrEq{"appointment_date": today}).
		OrderBy("appointment_date", "appointment_time")
	return repo.Query(ctx, qb)
}

// Appointment returns one appointment of the shop.
func (m *Manager) Appointment(ctx context.Context, id int64) (*Appointment, error) {
	repo, err := m.appointments(ctx)
	if err != nil {
		return nil, err
	}
	return repo.Find(ctx, id)
}

// CreateAppointment books a slot. The service must exist and be active, and
// no other non-cancelled appointment may occupy the slot.
func (m *Manager) CreateAppointment(ctx context.Context, appt *Appointment) error {
	svcRepo, err := m.services(ctx)
	if err != nil {
		return err
	}
	apptRepo, err := m.appointments(ctx)
	if err != nil {
		return err
	}

	svc, err := svcRepo.Find(ctx, appt.ServiceID)
	if err != nil {
		if errors.Is(err, tenantscope.ErrNotFound) {
			return ErrInvalidService
		}
		return err
	}
	if !svc.IsActive {
		return ErrInvalidService
	}

	taken, err := m.slotTaken(ctx, apptRepo, appt.AppointmentDate, appt.AppointmentTime, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotTaken
	}

	appt.Status = StatusConfirmed
	appt.CreatedAt = m.clock.Now().UTC()
	appt.UpdatedAt = nil

	if err := apptRepo.Create(ctx, appt); err != nil {
		// The service existed above but may have been deleted since.
		if pg.IsForeignKeyViolationError(err) {
			return ErrInvalidService
		}
		return err
	}

	m.log.InfoContext(ctx, "appointment booked",
		slog.Int64("appointment_id", appt.ID),
		slog.String("slot", FormatDate(appt.AppointmentDate)+" "+FormatTimeOfDay(appt.AppointmentTime)))
	return nil
}

// CancelAppointment marks an appointment cancelled, freeing its slot.
func (m *Manager) CancelAppointment(ctx context.Context, id int64) error {
	repo, err := m.appointments(ctx)
	if err != nil {
		return err
	}

	appt, err := repo.Find(ctx, id)
	if err != nil {
		return err
	}

	now := m.clock.Now().UTC()
	appt.Status = StatusCancelled
	appt.UpdatedAt = &now
	if err := repo.Update(ctx, id, appt); err != nil {
		return err
	}

	m.log.InfoContext(ctx, "appointment cancelled", slog.Int64("appointment_id", id))
	return nil
}

// RescheduleAppointment moves an appointment to a new slot, which must be
// free.
func (m *Manager) RescheduleAppointment(ctx context.Context, id int64, newDate pgtype.Date, newTime pgtype.Time) error {
	repo, err := m.appointments(ctx)
	if err != nil {
		return err
	}

	appt, err := repo.Find(ctx, id)
	if err != nil {
		return err
	}

	taken, err := m.slotTaken(ctx, repo, newDate, newTime, id)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotTaken
	}

	now := m.clock.Now().UTC()
	appt.AppointmentDate = newDate
	appt.AppointmentTime = newTime
	appt.UpdatedAt = &now
	return repo.Update(ctx, id, appt)
}

// slotTaken reports whether a non-cancelled appointment other than excludeID
// occupies the slot.
func (m *Manager) slotTaken(ctx context.Context, repo *tenantscope.Repository[Appointment, *Appointment], date pgtype.Date, tod pgtype.Time, excludeID int64) (bool, error) {
	qb := repo.Select().Where(sq.Eq{
		"appointment_date": date,
		"appointment_time": tod,
	}).Where(sq.NotEq{"status": StatusCancelled})
	if excludeID != 0 {
		qb = qb.Where(sq.NotEq{"id": excludeID})
	}

	items, err := repo.Query(ctx, qb)
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

// Schedules returns every availability window of the shop, earliest first.
func (m *Manager) Schedules(ctx context.Context) ([]AvailabilitySchedule, error) {
	repo, err := m.schedules(ctx)
	if err != nil {
		return nil, err
	}
	return repo.Query(ctx, repo.Select().OrderBy("schedule_date", "start_time"))
}

// SchedulesByDate returns the availability windows for one date.
func (m *Manager) SchedulesByDate(ctx context.Context, date pgtype.Date) ([]AvailabilitySchedule, error) {
	repo, err := m.schedules(ctx)
	if err != nil {
		return nil, err
	}
	qb := repo.Select().
		Where(sq.Eq{"schedule_date": date}).
		OrderBy("start_time")
	return repo.Query(ctx, qb)
}

// CreateSchedule adds an availability window. The window's time range must
// be valid and no other window may start at the same date and time.
func (m *Manager) CreateSchedule(ctx context.Context, s *AvailabilitySchedule) error {
	if s.StartTime.Microseconds >= s.EndTime.Microseconds {
		return ErrInvalidTimeRange
	}

	repo, err := m.schedules(ctx)
	if err != nil {
		return err
	}

	existing, err := repo.Query(ctx, repo.Select().Where(sq.Eq{
		"schedule_date": s.ScheduleDate,
		"start_time":    s.StartTime,
	}))
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return ErrScheduleExists
	}

	s.CreatedAt = m.clock.Now().UTC()
	s.UpdatedAt = nil
	return repo.Create(ctx, s)
}

// UpdateSchedule rewrites an availability window's times and flag.
func (m *Manager) UpdateSchedule(ctx context.Context, id int64, startTime, endTime pgtype.Time, isAvailable bool) error {
	if startTime.Microseconds >= endTime.Microseconds {
		return ErrInvalidTimeRange
	}

	repo, err := m.schedules(ctx)
	if err != nil {
		return err
	}

	s, err := repo.Find(ctx, id)
	if err != nil {
		return err
	}

	now := m.clock.Now().UTC()
	s.StartTime = startTime
	s.EndTime = endTime
	s.IsAvailable = isAvailable
	s.UpdatedAt = &now
	return repo.Update(ctx, id, s)
}

// DeleteSchedule removes an availability window.
func (m *Manager) DeleteSchedule(ctx context.Context, id int64) error {
	repo, err := m.schedules(ctx)
	if err != nil {
		return err
	}
	return repo.Delete(ctx, id)
}

// AvailableSlots expands the date's availability windows into one-hour
// slots and removes the ones already booked. Slots are "HH:MM:SS" strings
// sorted ascending.
func (m *Manager) AvailableSlots(ctx context.Context, date pgtype.Date) ([]string, error) {
	windows, err := m.SchedulesByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	apptRepo, err := m.appointments(ctx)
	if err != nil {
		return nil, err
	}
	booked, err := apptRepo.Query(ctx, apptRepo.Select().
		Where(sq.Eq{"appointment_date": date}).
		Where(sq.NotEq{"status": StatusCancelled}))
	if err != nil {
		return nil, err
	}

	bookedTimes := make(map[int64]struct{}, len(booked))
	for _, a := range booked {
		bookedTimes[a.AppointmentTime.Microseconds] = struct{}{}
	}

	return expandSlots(windows, bookedTimes), nil
}

// expandSlots walks every available window in one-hour steps and keeps the
// starts not already taken by an appointment.
func expandSlots(windows []AvailabilitySchedule, bookedTimes map[int64]struct{}) []string {
	slots := []string{}
	for _, w := range windows {
		if !w.IsAvailable {
			continue
		}
		for cur := w.StartTime.Microseconds; cur < w.EndTime.Microseconds; cur += microsecondsPerHr {
			if _, ok := bookedTimes[cur]; ok {
				continue
			}
			slots = append(slots, FormatTimeOfDay(pgtype.Time{Microseconds: cur, Valid: true}))
		}
	}
	return slots
}
