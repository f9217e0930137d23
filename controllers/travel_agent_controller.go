package controllers

import (
	"net/http"

	"hotel-pms/models"
	"hotel-pms/services"
	"hotel-pms/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TravelAgentController struct {
	AgentSvc *services.TravelAgentService
}

func NewTravelAgentController(svc *services.TravelAgentService) *TravelAgentController {
	return &TravelAgentController{AgentSvc: svc}
}

type createAgentPayload struct {
	models.TravelAgent
	ContractStartDate *string `json:"contractStartDate"`
	ContractEndDate   *string `json:"contractEndDate"`
}

type updateAgentPayload struct {
	services.TravelAgentUpdate
	ContractStartDate *string `json:"contractStartDate"`
	ContractEndDate   *string `json:"contractEndDate"`
}

type balancePayload struct {
	Amount    decimal.Decimal `json:"amount"`
	Operation string          `json:"operation" binding:"required"`
}

func (ctrl *TravelAgentController) List(c *gin.Context) {
	agents, err := ctrl.AgentSvc.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, agents)
}

func (ctrl *TravelAgentController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	agent, err := ctrl.AgentSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, agent)
}

func (ctrl *TravelAgentController) Create(c *gin.Context) {
	var p createAgentPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	agent := p.TravelAgent
	var ok bool
	if agent.ContractStartDate, ok = parseDateField(c, "contractStartDate", p.ContractStartDate); !ok {
		return
	}
	if agent.ContractEndDate, ok = parseDateField(c, "contractEndDate", p.ContractEndDate); !ok {
		return
	}
	if err := ctrl.AgentSvc.Create(c.Request.Context(), &agent); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, agent)
}

func (ctrl *TravelAgentController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p updateAgentPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	in := p.TravelAgentUpdate
	if in.ContractStartDate, ok = parseDateField(c, "contractStartDate", p.ContractStartDate); !ok {
		return
	}
	if in.ContractEndDate, ok = parseDateField(c, "contractEndDate", p.ContractEndDate); !ok {
		return
	}
	agent, err := ctrl.AgentSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, agent)
}

func (ctrl *TravelAgentController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.AgentSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// AdjustBalance handles PUT /api/travel-agents/:id/balance {amount, operation}.
func (ctrl *TravelAgentController) AdjustBalance(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p balancePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	agent, err := ctrl.AgentSvc.AdjustBalance(c.Request.Context(), id, p.Amount, p.Operation)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, agent)
}
