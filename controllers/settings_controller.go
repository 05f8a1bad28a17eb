package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-booking/schedule"
	"room-booking/utils"
)

type SettingsController struct {
	Policy schedule.Policy
}

func NewSettingsController(policy schedule.Policy) *SettingsController {
	return &SettingsController{Policy: policy}
}

// GetSettings exposes the booking rules so clients can build their forms.
func (ctrl *SettingsController) GetSettings(c *gin.Context) {
	p := ctrl.Policy
	open, closing := p.BusinessWindow()
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"rooms":             p.Rooms,
		"allowed_durations": p.AllowedDurations(),
		"cleaning_minutes":  p.CleaningMinutes,
		"business_start":    schedule.FormatClock(open),
		"business_end":      schedule.FormatClock(closing),
		"slot_step_minutes": p.SlotStepMinutes(),
		"slots":             p.Slots(),
		"timezone":          p.Loc().String(),
	})
}
