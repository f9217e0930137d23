package controllers

import (
	"net/http"

	"hotel-pms/services"
	"hotel-pms/utils"

	"github.com/gin-gonic/gin"
)

type ReservationController struct {
	ReservationSvc *services.ReservationService
}

func NewReservationController(svc *services.ReservationService) *ReservationController {
	return &ReservationController{ReservationSvc: svc}
}

// dates arrive as "YYYY-MM-DD" or RFC3339 and shadow the embedded time fields
type createReservationPayload struct {
	services.CreateReservationInput
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
}

type updateReservationPayload struct {
	services.UpdateReservationInput
	CheckInDate  *string `json:"checkInDate"`
	CheckOutDate *string `json:"checkOutDate"`
}

type checkInPayload struct {
	RoomID *uint `json:"roomId"`
}

func (ctrl *ReservationController) List(c *gin.Context) {
	guestID, ok := parseIDQuery(c, "guestId")
	if !ok {
		return
	}
	roomID, ok := parseIDQuery(c, "roomId")
	if !ok {
		return
	}
	agentID, ok := parseIDQuery(c, "travelAgentId")
	if !ok {
		return
	}
	list, err := ctrl.ReservationSvc.List(c.Request.Context(), services.ReservationFilter{
		Status:        c.Query("status"),
		GuestID:       guestID,
		RoomID:        roomID,
		TravelAgentID: agentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (ctrl *ReservationController) ListByStatus(c *gin.Context) {
	list, err := ctrl.ReservationSvc.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

// ListByDateRange handles GET /api/reservations/date-range?startDate=&endDate=
func (ctrl *ReservationController) ListByDateRange(c *gin.Context) {
	start, err := utils.ParseDate(c.Query("startDate"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidDate", "startDate: "+err.Error(), nil)
		return
	}
	end, err := utils.ParseDate(c.Query("endDate"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidDate", "endDate: "+err.Error(), nil)
		return
	}
	list, err := ctrl.ReservationSvc.ListByDateRange(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (ctrl *ReservationController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res, err := ctrl.ReservationSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}

func (ctrl *ReservationController) Create(c *gin.Context) {
	var p createReservationPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	in := p.CreateReservationInput
	checkIn, ok := parseDateField(c, "checkInDate", &p.CheckInDate)
	if !ok {
		return
	}
	checkOut, ok := parseDateField(c, "checkOutDate", &p.CheckOutDate)
	if !ok {
		return
	}
	in.CheckInDate, in.CheckOutDate = *checkIn, *checkOut

	res, err := ctrl.ReservationSvc.Create(c.Request.Context(), in, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, res)
}

func (ctrl *ReservationController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p updateReservationPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	in := p.UpdateReservationInput
	if in.CheckInDate, ok = parseDateField(c, "checkInDate", p.CheckInDate); !ok {
		return
	}
	if in.CheckOutDate, ok = parseDateField(c, "checkOutDate", p.CheckOutDate); !ok {
		return
	}

	res, err := ctrl.ReservationSvc.Update(c.Request.Context(), id, in, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}

func (ctrl *ReservationController) CheckIn(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p checkInPayload
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&p); err != nil {
			respondInvalidPayload(c, err)
			return
		}
	}
	res, err := ctrl.ReservationSvc.CheckIn(c.Request.Context(), id, p.RoomID, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}

// CheckOut answers 402 with the invoice id and balance when the bill is open.
func (ctrl *ReservationController) CheckOut(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res, inv, err := ctrl.ReservationSvc.CheckOut(c.Request.Context(), id, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"reservation": res, "invoice": inv})
}

func (ctrl *ReservationController) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.CancelReservationInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			respondInvalidPayload(c, err)
			return
		}
	}
	res, err := ctrl.ReservationSvc.Cancel(c.Request.Context(), id, in, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}

func (ctrl *ReservationController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.ReservationSvc.Delete(c.Request.Context(), id, actorID(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
