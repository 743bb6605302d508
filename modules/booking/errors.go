package booking

import "errors"

var (
	// ErrSlotTaken is returned when another non-cancelled appointment
	// already occupies the requested slot.
	ErrSlotTaken = errors.New("time slot is already booked")

	// ErrInvalidService is returned when the requested service does not
	// exist in the shop's catalog or is inactive.
	ErrInvalidService = errors.New("invalid service selected")

	// ErrScheduleExists is returned when a schedule already starts at the
	// requested date and time.
	ErrScheduleExists = errors.New("schedule already exists for this date and start time")

	// ErrInvalidTimeRange is returned when a schedule's start time is not
	// before its end time.
	ErrInvalidTimeRange = errors.New("start time must be before end time")
)
