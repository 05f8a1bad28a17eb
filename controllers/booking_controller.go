// controllers/booking_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"room-booking/models"
	"room-booking/schedule"
	"room-booking/services"
	"room-booking/utils"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type CreateBookingRequest struct {
	Room        string `json:"room" binding:"required"`
	Date        string `json:"date" binding:"required,isodate"`
	StartTime   string `json:"start_time" binding:"required,clock"`
	DurationMin int    `json:"duration_min"`
	Customer    string `json:"customer" binding:"max=200"`
	Note        string `json:"note" binding:"max=1000"`
}

type rangeQuery struct {
	From string `form:"from" binding:"required,isodate"`
	To   string `form:"to" binding:"required,isodate"`
	Room string `form:"room"`
}

type conflictQuery struct {
	Room        string `form:"room" binding:"required"`
	Date        string `form:"date" binding:"required,isodate"`
	StartTime   string `form:"start_time" binding:"required,clock"`
	DurationMin int    `form:"duration_min" binding:"required,gt=0"`
	ExcludeID   *uint  `form:"exclude_id"`
}

// RegisterValidations adds the date and time-of-day rules used by the
// booking payloads to gin's validator.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(time.DateOnly, fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, err := schedule.ParseClock(fl.Field().String())
			return err == nil
		})
	}
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	Bookings *services.BookingService
	Queries  *services.QueryService
	Policy   schedule.Policy
}

func NewBookingController(bookings *services.BookingService, queries *services.QueryService, policy schedule.Policy) *BookingController {
	return &BookingController{Bookings: bookings, Queries: queries, Policy: policy}
}

var rejectionCodes = map[error]string{
	services.ErrPastDate:             "error.pastDate",
	services.ErrInvalidDuration:      "error.invalidDuration",
	services.ErrOutsideBusinessHours: "error.outsideBusinessHours",
	services.ErrUnknownRoom:          "error.unknownRoom",
	services.ErrConflict:             "error.conflict",
}

func respondServiceError(c *gin.Context, err error) {
	var rej *services.RejectionError
	switch {
	case errors.As(err, &rej):
		if errors.Is(rej, services.ErrConflict) {
			ids := make([]uint, 0, len(rej.Conflicts))
			for _, b := range rej.Conflicts {
				ids = append(ids, b.ID)
			}
			utils.JSONError(c, http.StatusConflict, rejectionCodes[services.ErrConflict], rej.Message, gin.H{"conflicts": ids})
			return
		}
		utils.JSONError(c, http.StatusUnprocessableEntity, rejectionCodes[rej.Reason], rej.Message)
	case errors.Is(err, services.ErrBookingNotFound):
		utils.JSONError(c, http.StatusNotFound, "error.bookingNotFound", "booking not found")
	case errors.Is(err, services.ErrStorageUnavailable):
		_ = c.Error(err)
		utils.JSONError(c, http.StatusServiceUnavailable, "error.storageUnavailable", "booking storage is unavailable, try again later")
	default:
		_ = c.Error(err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "unexpected error")
	}
}

func invalidPayload(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
}

func (ctrl *BookingController) parseDay(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, ctrl.Policy.Loc())
}

func (ctrl *BookingController) parseStart(date, clock string) (time.Time, error) {
	day, err := ctrl.parseDay(date)
	if err != nil {
		return time.Time{}, err
	}
	tod, err := schedule.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return ctrl.Policy.At(day, tod), nil
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidBookingId", "booking id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func bookingList(rows []models.Booking) gin.H {
	return gin.H{"bookings": rows, "count": len(rows)}
}

// ---------------------------
// Handlers
// ---------------------------

func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	start, err := ctrl.parseStart(req.Date, req.StartTime)
	if err != nil {
		invalidPayload(c, err)
		return
	}

	booking, err := ctrl.Bookings.CreateBooking(c.Request.Context(), services.CreateBookingInput{
		Room:        req.Room,
		Start:       start,
		DurationMin: req.DurationMin,
		Customer:    req.Customer,
		Note:        req.Note,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, booking)
}

func (ctrl *BookingController) CancelBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ctrl.Bookings.CancelBooking(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id, "status": models.StatusCancelled})
}

func (ctrl *BookingController) GetBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := ctrl.Queries.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

// ListBookings returns booked rows starting from the from date up to the
// to date, to exclusive.
func (ctrl *BookingController) ListBookings(c *gin.Context) {
	var q rangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalidPayload(c, err)
		return
	}
	from, err := ctrl.parseDay(q.From)
	if err != nil {
		invalidPayload(c, err)
		return
	}
	to, err := ctrl.parseDay(q.To)
	if err != nil {
		invalidPayload(c, err)
		return
	}
	rows, err := ctrl.Queries.BookingsInRange(c.Request.Context(), from, to, q.Room)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bookingList(rows))
}

func (ctrl *BookingController) UpcomingBookings(c *gin.Context) {
	rows, err := ctrl.Queries.UpcomingBookings(c.Request.Context(), c.Query("room"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bookingList(rows))
}

func (ctrl *BookingController) HistoryBookings(c *gin.Context) {
	rows, err := ctrl.Queries.HistoryBeforeToday(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bookingList(rows))
}

func (ctrl *BookingController) FindConflicts(c *gin.Context) {
	var q conflictQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalidPayload(c, err)
		return
	}
	start, err := ctrl.parseStart(q.Date, q.StartTime)
	if err != nil {
		invalidPayload(c, err)
		return
	}
	span := ctrl.Policy.Span(start, q.DurationMin)
	rows, err := ctrl.Queries.FindConflicts(c.Request.Context(), q.Room, span.Start, span.CleanEnd, q.ExcludeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"start":     span.Start,
		"end":       span.End,
		"clean_end": span.CleanEnd,
		"conflicts": rows,
		"free":      len(rows) == 0,
	})
}

func (ctrl *BookingController) DayBookings(c *gin.Context) {
	day, err := ctrl.parseDay(c.Param("date"))
	if err != nil {
		invalidPayload(c, err)
		return
	}
	rows, err := ctrl.Queries.BookingsOnDay(c.Request.Context(), day, c.Query("room"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bookingList(rows))
}

func (ctrl *BookingController) DayTimeline(c *gin.Context) {
	day, err := ctrl.parseDay(c.Param("date"))
	if err != nil {
		invalidPayload(c, err)
		return
	}
	tl, err := ctrl.Queries.DayTimeline(c.Request.Context(), day)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, tl)
}
