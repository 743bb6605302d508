// Package booking implements the shop's scheduling domain: the service
// catalog, availability windows, and customer appointments. All three
// tables are tenant-owned and accessed through tenant-scoped repositories,
// so every query and write is confined to the resolved shop.
package booking

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/barberbook/backend/pkg/tenantscope"
)

// Appointment statuses.
const (
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
	StatusCompleted = "Completed"
)

// Service is one bookable offering of the shop's catalog.
type Service struct {
	tenantscope.Ownership

	ID              int64   `db:"id"`
	Name            string  `db:"name"`
	Description     string  `db:"description"`
	Price           float64 `db:"price"`
	DurationMinutes int     `db:"duration_minutes"`
	IsActive        bool    `db:"is_active"`
}

var serviceDescriptor = tenantscope.Descriptor[Service]{
	Table: "services",
	Columns: []string{
		"id", "tenant_id", "name", "description", "price",
		"duration_minutes", "is_active",
	},
	Values: func(rec *Service) map[string]any {
		return map[string]any{
			"name":             rec.Name,
			"description":      rec.Description,
			"price":            rec.Price,
			"duration_minutes": rec.DurationMinutes,
			"is_active":        rec.IsActive,
		}
	},
	SetID: func(rec *Service, id int64) { rec.ID = id },
}

// Appointment is a customer booking for one service at one time slot.
type Appointment struct {
	tenantscope.Ownership

	ID              int64       `db:"id"`
	ServiceID       int64       `db:"service_id"`
	AppointmentDate pgtype.Date `db:"appointment_date"`
	AppointmentTime pgtype.Time `db:"appointment_time"`
	CustomerName    string      `db:"customer_name"`
	CustomerPhone   string      `db:"customer_phone"`
	CustomerEmail   *string     `db:"customer_email"`
	Notes           *string     `db:"notes"`
	Status          string      `db:"status"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       *time.Time  `db:"updated_at"`
}

var appointmentDescriptor = tenantscope.Descriptor[Appointment]{
	Table: "appointments",
	Columns: []string{
		"id", "tenant_id", "service_id", "appointment_date",
		"appointment_time", "customer_name", "customer_phone",
		"customer_email", "notes", "status", "created_at", "updated_at",
	},
	Values: func(rec *Appointment) map[string]any {
		return map[string]any{
			"service_id":       rec.ServiceID,
			"appointment_date": rec.AppointmentDate,
			"appointment_time": rec.AppointmentTime,
			"customer_name":    rec.CustomerName,
			"customer_phone":   rec.CustomerPhone,
			"customer_email":   rec.CustomerEmail,
			"notes":            rec.Notes,
			"status":           rec.Status,
			"created_at":       rec.CreatedAt,
			"updated_at":       rec.UpdatedAt,
		}
	},
	SetID: func(rec *Appointment, id int64) { rec.ID = id },
}

// AvailabilitySchedule is one bookable window on a specific date. Slots are
// carved out of it in one-hour steps.
type AvailabilitySchedule struct {
	tenantscope.Ownership

	ID           int64       `db:"id"`
	ScheduleDate pgtype.Date `db:"schedule_date"`
	StartTime    pgtype.Time `db:"start_time"`
	EndTime      pgtype.Time `db:"end_time"`
	IsAvailable  bool        `db:"is_available"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    *time.Time  `db:"updated_at"`
}

var scheduleDescriptor = tenantscope.Descriptor[AvailabilitySchedule]{
	Table: "availability_schedules",
	Columns: []string{
		"id", "tenant_id", "schedule_date", "start_time", "end_time",
		"is_available", "created_at", "updated_at",
	},
	Values: func(rec *AvailabilitySchedule) map[string]any {
		return map[string]any{
			"schedule_date": rec.ScheduleDate,
			"start_time":    rec.StartTime,
			"end_time":      rec.EndTime,
			"is_available":  rec.IsAvailable,
			"created_at":    rec.CreatedAt,
			"updated_at":    rec.UpdatedAt,
		}
	},
	SetID: func(rec *AvailabilitySchedule, id int64) { rec.ID = id },
}

const (
	dateLayout        = "2006-01-02"
	microsecondsPerHr = int64(time.Hour / time.Microsecond)
)

// ParseDate parses an ISO date ("2006-01-02").
func ParseDate(s string) (pgtype.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return pgtype.Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

// FormatDate renders a date as ISO ("2006-01-02").
func FormatDate(d pgtype.Date) string {
	return d.Time.Format(dateLayout)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" into a time-of-day value.
func ParseTimeOfDay(s string) (pgtype.Time, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
	}
	if err != nil {
		return pgtype.Time{}, fmt.Errorf("invalid time %q: want HH:MM or HH:MM:SS", s)
	}

	micros := int64(t.Hour())*microsecondsPerHr +
		int64(t.Minute())*int64(time.Minute/time.Microsecond) +
		int64(t.Second())*int64(time.Second/time.Microsecond)
	return pgtype.Time{Microseconds: micros, Valid: true}, nil
}

// FormatTimeOfDay renders a time-of-day as "HH:MM:SS".
func FormatTimeOfDay(t pgtype.Time) string {
	total := t.Microseconds / int64(time.Second/time.Microsecond)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
