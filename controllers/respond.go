package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hotel-pms/middleware"
	"hotel-pms/services"
	"hotel-pms/utils"

	"github.com/gin-gonic/gin"
)

// errorCode turns a service code such as "room_not_available" into the
// client-facing "error.roomNotAvailable".
func errorCode(code string) string {
	if code == "" {
		return "error.internal"
	}
	parts := strings.Split(code, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return "error." + strings.Join(parts, "")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError maps a service failure to its HTTP response. Internal errors
// are recorded on the context for the request logger and hidden from clients.
func respondError(c *gin.Context, err error) {
	var pr *services.PaymentRequiredError
	if errors.As(err, &pr) {
		utils.JSONError(c, http.StatusPaymentRequired, "error.paymentRequired", pr.Error(), gin.H{
			"reservationId": pr.ReservationID,
			"invoiceId":     pr.InvoiceID,
			"invoiceNumber": pr.InvoiceNumber,
			"balanceDue":    pr.BalanceDue,
		})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		utils.JSONError(c, status, "error.internal", "internal server error", nil)
		return
	}
	var se *services.Error
	if errors.As(err, &se) {
		utils.JSONError(c, status, errorCode(se.Code), se.Message, nil)
		return
	}
	utils.JSONError(c, status, errorCode(services.Code(err)), err.Error(), nil)
}

func respondInvalidPayload(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", "invalid request payload", gin.H{"details": err.Error()})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidId", name+" must be a positive integer", nil)
		return 0, false
	}
	return uint(id), true
}

func parseIDQuery(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidQuery", name+" must be a positive integer", nil)
		return 0, false
	}
	return uint(id), true
}

// parseDateField parses an optional date; nil input yields nil.
func parseDateField(c *gin.Context, field string, raw *string) (*time.Time, bool) {
	if raw == nil {
		return nil, true
	}
	t, err := utils.ParseDate(*raw)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidDate", field+": "+err.Error(), nil)
		return nil, false
	}
	return &t, true
}

func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	return parseDateField(c, name, &raw)
}

func actorID(c *gin.Context) uint {
	id, _ := middleware.ActorID(c)
	return id
}
