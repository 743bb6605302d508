package booking

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/barberbook/backend/core"
	"github.com/barberbook/backend/pkg/logger"
	"github.com/barberbook/backend/pkg/sanitizer"
	"github.com/barberbook/backend/pkg/tenantscope"
	"github.com/barberbook/backend/pkg/validator"
)

// Handler exposes the booking HTTP endpoints.
type Handler struct {
	manager *Manager
	log     *slog.Logger
}

// NewHandler creates the booking HTTP handler.
func NewHandler(manager *Manager, log *slog.Logger) *Handler {
	return &Handler{manager: manager, log: log}
}

type serviceResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
	IsActive        bool    `json:"isActive"`
}

func toServiceResponse(s Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		Price:           s.Price,
		DurationMinutes: s.DurationMinutes,
		IsActive:        s.IsActive,
	}
}

// ListServices returns the active catalog, the view customers book from.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.manager.Services(r.Context(), true)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, toServiceResponse(s))
	}
	core.JSON(w, http.StatusOK, out)
}

// ListAllServices returns the full catalog including retired offerings.
func (h *Handler) ListAllServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.manager.Services(r.Context(), false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, toServiceResponse(s))
	}
	core.JSON(w, http.StatusOK, out)
}

type serviceRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"durationMinutes"`
	IsActive        *bool   `json:"isActive"`
}

func (req *serviceRequest) validate() error {
	return validator.Apply(
		validator.Required("name", req.Name),
		validator.MaxLen("name", req.Name, 100),
		validator.NonNegative("price", req.Price),
		validator.Positive("durationMinutes", req.DurationMinutes),
	)
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = sanitizer.TrimString(req.Name)
	if !h.writeValidation(w, req.validate()) {
		return
	}

	svc := &Service{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		IsActive:        req.IsActive == nil || *req.IsActive,
	}
	if err := h.manager.CreateService(r.Context(), svc); err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusCreated, toServiceResponse(*svc))
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req serviceRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = sanitizer.TrimString(req.Name)
	if !h.writeValidation(w, req.validate()) {
		return
	}

	svc := &Service{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		IsActive:        req.IsActive == nil || *req.IsActive,
	}
	if err := h.manager.UpdateService(r.Context(), id, svc); err != nil {
		h.writeError(w, r, err)
		return
	}
	svc.ID = id
	core.JSON(w, http.StatusOK, toServiceResponse(*svc))
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.manager.DeleteService(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type appointmentResponse struct {
	ID              int64      `json:"id"`
	ServiceID       int64      `json:"serviceId"`
	AppointmentDate string     `json:"appointmentDate"`
	AppointmentTime string     `json:"appointmentTime"`
	CustomerName    string     `json:"customerName"`
	CustomerPhone   string     `json:"customerPhone"`
	CustomerEmail   *string    `json:"customerEmail"`
	Notes           *string    `json:"notes"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt"`
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		ServiceID:       a.ServiceID,
		AppointmentDate: FormatDate(a.AppointmentDate),
		AppointmentTime: FormatTimeOfDay(a.AppointmentTime),
		CustomerName:    a.CustomerName,
		CustomerPhone:   a.CustomerPhone,
		CustomerEmail:   a.CustomerEmail,
		Notes:           a.Notes,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ListAppointments returns the shop's upcoming appointments.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := h.manager.UpcomingAppointments(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	core.JSON(w, http.StatusOK, out)
}

// GetAppointment returns one appointment by id.
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	appt, err := h.manager.Appointment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, toAppointmentResponse(*appt))
}

type createAppointmentRequest struct {
	ServiceID       int64   `json:"serviceId"`
	AppointmentDate string  `json:"appointmentDate"`
	AppointmentTime string  `json:"appointmentTime"`
	CustomerName    string  `json:"customerName"`
	CustomerPhone   string  `json:"customerPhone"`
	CustomerEmail   *string `json:"customerEmail"`
	Notes           *string `json:"notes"`
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.CustomerName = sanitizer.TrimString(req.CustomerName)
	req.CustomerPhone = sanitizer.TrimString(req.CustomerPhone)
	if req.CustomerEmail != nil {
		normalized := sanitizer.NormalizeEmail(*req.CustomerEmail)
		req.CustomerEmail = &normalized
	}

	rules := []validator.Rule{
		validator.Required("customerName", req.CustomerName),
		validator.MaxLen("customerName", req.CustomerName, 100),
		validator.Required("customerPhone", req.CustomerPhone),
		validator.MaxLen("customerPhone", req.CustomerPhone, 20),
	}
	if req.CustomerEmail != nil && *req.CustomerEmail != "" {
		rules = append(rules, validator.ValidEmail("customerEmail", *req.CustomerEmail))
	}
	if !h.writeValidation(w, validator.Apply(rules...)) {
		return
	}

	date, err := ParseDate(req.AppointmentDate)
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	tod, err := ParseTimeOfDay(req.AppointmentTime)
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	appt := &Appointment{
		ServiceID:       req.ServiceID,
		AppointmentDate: date,
		AppointmentTime: tod,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		Notes:           req.Notes,
	}
	if err := h.manager.CreateAppointment(r.Context(), appt); err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusCreated, toAppointmentResponse(*appt))
}

func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.manager.CancelAppointment(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rescheduleRequest struct {
	NewDate string `json:"newDate"`
	NewTime string `json:"newTime"`
}

func (h *Handler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := ParseDate(req.NewDate)
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	tod, err := ParseTimeOfDay(req.NewTime)
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.manager.RescheduleAppointment(r.Context(), id, date, tod); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AvailableSlots returns the free one-hour slots for a date.
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	slots, err := h.manager.AvailableSlots(r.Context(), date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusOK, slots)
}

type scheduleResponse struct {
	ID           int64      `json:"id"`
	ScheduleDate string     `json:"scheduleDate"`
	StartTime    string     `json:"startTime"`
	EndTime      string     `json:"endTime"`
	IsAvailable  bool       `json:"isAvailable"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt"`
}

func toScheduleResponse(s AvailabilitySchedule) scheduleResponse {
	return scheduleResponse{
		ID:           s.ID,
		ScheduleDate: FormatDate(s.ScheduleDate),
		StartTime:    FormatTimeOfDay(s.StartTime),
		EndTime:      FormatTimeOfDay(s.EndTime),
		IsAvailable:  s.IsAvailable,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// ListSchedules returns all availability windows.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.manager.Schedules(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, toScheduleResponse(s))
	}
	core.JSON(w, http.StatusOK, out)
}

// ListSchedulesByDate returns the availability windows for one date.
func (h *Handler) ListSchedulesByDate(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	schedules, err := h.manager.SchedulesByDate(r.Context(), date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, toScheduleResponse(s))
	}
	core.JSON(w, http.StatusOK, out)
}

type createScheduleRequest struct {
	ScheduleDate string `json:"scheduleDate"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	IsAvailable  *bool  `json:"isAvailable"`
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := ParseDate(req.ScheduleDate)
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := ParseTimeOfDay(req.StartTime)
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := ParseTimeOfDay(req.EndTime)
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	s := &AvailabilitySchedule{
		ScheduleDate: date,
		StartTime:    start,
		EndTime:      end,
		IsAvailable:  req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := h.manager.CreateSchedule(r.Context(), s); err != nil {
		h.writeError(w, r, err)
		return
	}
	core.JSON(w, http.StatusCreated, toScheduleResponse(*s))
}

type updateScheduleRequest struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable *bool  `json:"isAvailable"`
}

func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateScheduleRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, err := ParseTimeOfDay(req.StartTime)
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := ParseTimeOfDay(req.EndTime)
	if err != nil {
		core.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	available := req.IsAvailable == nil || *req.IsAvailable
	if err := h.manager.UpdateSchedule(r.Context(), id, start, end, available); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.manager.DeleteSchedule(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		core.Error(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		core.ValidationError(w, verrs.Fields())
	} else {
		core.Error(w, http.StatusBadRequest, "Invalid request")
	}
	return false
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tenantscope.ErrNotFound):
		core.Error(w, http.StatusNotFound, "Not found")
	case errors.Is(err, ErrSlotTaken):
		core.Error(w, http.StatusBadRequest, "This time slot is already booked")
	case errors.Is(err, ErrInvalidService):
		core.Error(w, http.StatusBadRequest, "Invalid service selected")
	case errors.Is(err, ErrScheduleExists):
		core.Error(w, http.StatusBadRequest, "A schedule already exists for this date and start time")
	case errors.Is(err, ErrInvalidTimeRange):
		core.Error(w, http.StatusBadRequest, "Start time must be before end time")
	default:
		h.log.ErrorContext(r.Context(), "booking request failed", logger.Error(err))
		core.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
