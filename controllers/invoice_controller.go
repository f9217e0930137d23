package controllers

import (
	"net/http"

	"hotel-pms/services"
	"hotel-pms/utils"

	"github.com/gin-gonic/gin"
)

type InvoiceController struct {
	InvoiceSvc *services.InvoiceService
}

func NewInvoiceController(svc *services.InvoiceService) *InvoiceController {
	return &InvoiceController{InvoiceSvc: svc}
}

type generateInvoicePayload struct {
	ReservationID uint `json:"reservationId" binding:"required"`
}

type paymentPayload struct {
	services.PaymentInput
	PaymentDate *string `json:"paymentDate"`
}

func (ctrl *InvoiceController) List(c *gin.Context) {
	reservationID, ok := parseIDQuery(c, "reservationId")
	if !ok {
		return
	}
	guestID, ok := parseIDQuery(c, "guestId")
	if !ok {
		return
	}
	date, ok := parseDateQuery(c, "date")
	if !ok {
		return
	}
	list, err := ctrl.InvoiceSvc.List(c.Request.Context(), services.InvoiceFilter{
		PaymentStatus: c.Query("paymentStatus"),
		GuestID:       guestID,
		ReservationID: reservationID,
		Date:          date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (ctrl *InvoiceController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	inv, err := ctrl.InvoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, inv)
}

// GetByReservation handles GET /api/reservations/:id/invoice.
func (ctrl *InvoiceController) GetByReservation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	inv, err := ctrl.InvoiceSvc.GetByReservation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, inv)
}

func (ctrl *InvoiceController) Generate(c *gin.Context) {
	var p generateInvoicePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	inv, err := ctrl.InvoiceSvc.Generate(c.Request.Context(), p.ReservationID, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, inv)
}

func (ctrl *InvoiceController) AddPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p paymentPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	in := p.PaymentInput
	if in.PaymentDate, ok = parseDateField(c, "paymentDate", p.PaymentDate); !ok {
		return
	}
	inv, err := ctrl.InvoiceSvc.AddPayment(c.Request.Context(), id, in, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, inv)
}

// Void handles DELETE /api/invoices/:id.
func (ctrl *InvoiceController) Void(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.InvoiceSvc.Void(c.Request.Context(), id, actorID(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id, "voided": true})
}
