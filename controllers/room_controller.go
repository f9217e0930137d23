package controllers

import (
	"net/http"
	"strconv"

	"hotel-pms/models"
	"hotel-pms/services"
	"hotel-pms/utils"

	"github.com/gin-gonic/gin"
)

type RoomController struct {
	RoomSvc *services.RoomService
}

func NewRoomController(svc *services.RoomService) *RoomController {
	return &RoomController{RoomSvc: svc}
}

func (ctrl *RoomController) List(c *gin.Context) {
	f := services.RoomFilter{
		Status:         c.Query("status"),
		CleaningStatus: c.Query("cleaningStatus"),
		RoomType:       c.Query("roomType"),
		IncludeRetired: c.Query("includeRetired") == "true",
	}
	if raw := c.Query("floor"); raw != "" {
		floor, err := strconv.Atoi(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalidQuery", "floor must be an integer", nil)
			return
		}
		f.Floor = &floor
	}
	rooms, err := ctrl.RoomSvc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// Available handles GET /api/rooms/available?checkInDate=&checkOutDate=&roomType=
func (ctrl *RoomController) Available(c *gin.Context) {
	checkIn, err := utils.ParseDate(c.Query("checkInDate"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidDate", "checkInDate: "+err.Error(), nil)
		return
	}
	checkOut, err := utils.ParseDate(c.Query("checkOutDate"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidDate", "checkOutDate: "+err.Error(), nil)
		return
	}
	rooms, err := ctrl.RoomSvc.FindAvailable(c.Request.Context(), checkIn, checkOut, c.Query("roomType"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

func (ctrl *RoomController) Housekeeping(c *gin.Context) {
	board, err := ctrl.RoomSvc.HousekeepingBoard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, board)
}

func (ctrl *RoomController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	room, err := ctrl.RoomSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

func (ctrl *RoomController) Create(c *gin.Context) {
	var room models.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	if err := ctrl.RoomSvc.Create(c.Request.Context(), &room); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, room)
}

func (ctrl *RoomController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.RoomUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	room, err := ctrl.RoomSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

// UpdateStatus is the housekeeping/maintenance entry point.
func (ctrl *RoomController) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in services.RoomStatusUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	room, err := ctrl.RoomSvc.UpdateStatus(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

func (ctrl *RoomController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.RoomSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id, "retired": true})
}
