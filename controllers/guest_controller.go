package controllers

import (
	"net/http"

	"hotel-pms/models"
	"hotel-pms/services"
	"hotel-pms/utils"

	"github.com/gin-gonic/gin"
)

type GuestController struct {
	GuestSvc *services.GuestService
}

func NewGuestController(svc *services.GuestService) *GuestController {
	return &GuestController{GuestSvc: svc}
}

type createGuestPayload struct {
	models.Guest
	DateOfBirth *string `json:"dateOfBirth"`
}

type updateGuestPayload struct {
	services.GuestUpdate
	DateOfBirth *string `json:"dateOfBirth"`
}

// List handles GET /api/guests?search=&guestType=
func (ctrl *GuestController) List(c *gin.Context) {
	guests, err := ctrl.GuestSvc.List(c.Request.Context(), services.GuestFilter{
		Search:    c.Query("search"),
		GuestType: c.Query("guestType"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, guests)
}

func (ctrl *GuestController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	guest, err := ctrl.GuestSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, guest)
}

func (ctrl *GuestController) Create(c *gin.Context) {
	var p createGuestPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	guest := p.Guest
	var ok bool
	if guest.DateOfBirth, ok = parseDateField(c, "dateOfBirth", p.DateOfBirth); !ok {
		return
	}
	if err := ctrl.GuestSvc.Create(c.Request.Context(), &guest); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, guest)
}

func (ctrl *GuestController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p updateGuestPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	in := p.GuestUpdate
	if in.DateOfBirth, ok = parseDateField(c, "dateOfBirth", p.DateOfBirth); !ok {
		return
	}
	guest, err := ctrl.GuestSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, guest)
}

func (ctrl *GuestController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.GuestSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
