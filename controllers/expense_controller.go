package controllers

import (
	"net/http"

	"hotel-pms/services"
	"hotel-pms/utils"

	"github.com/gin-gonic/gin"
)

type ExpenseController struct {
	ExpenseSvc *services.ExpenseService
}

func NewExpenseController(svc *services.ExpenseService) *ExpenseController {
	return &ExpenseController{ExpenseSvc: svc}
}

type addExpensePayload struct {
	services.AddExpenseInput
	ExpenseDate *string `json:"expenseDate"`
}

type updateExpensePayload struct {
	services.UpdateExpenseInput
	ExpenseDate *string `json:"expenseDate"`
}

// List returns the folio of ?reservationId= with its total, or all charges
// narrowed by guestId, category, paymentStatus and date.
func (ctrl *ExpenseController) List(c *gin.Context) {
	reservationID, ok := parseIDQuery(c, "reservationId")
	if !ok {
		return
	}
	if reservationID != 0 {
		folio, err := ctrl.ExpenseSvc.ListByReservation(c.Request.Context(), reservationID)
		if err != nil {
			respondError(c, err)
			return
		}
		utils.JSONSuccess(c, http.StatusOK, folio)
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
	list, err := ctrl.ExpenseSvc.List(c.Request.Context(), services.ExpenseFilter{
		GuestID:       guestID,
		Category:      c.Query("category"),
		PaymentStatus: c.Query("paymentStatus"),
		Date:          date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (ctrl *ExpenseController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	e, err := ctrl.ExpenseSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, e)
}

func (ctrl *ExpenseController) Create(c *gin.Context) {
	var p addExpensePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	in := p.AddExpenseInput
	var ok bool
	if in.ExpenseDate, ok = parseDateField(c, "expenseDate", p.ExpenseDate); !ok {
		return
	}
	e, err := ctrl.ExpenseSvc.Add(c.Request.Context(), in, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, e)
}

func (ctrl *ExpenseController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p updateExpensePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	in := p.UpdateExpenseInput
	if in.ExpenseDate, ok = parseDateField(c, "expenseDate", p.ExpenseDate); !ok {
		return
	}
	e, err := ctrl.ExpenseSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, e)
}

func (ctrl *ExpenseController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.ExpenseSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
