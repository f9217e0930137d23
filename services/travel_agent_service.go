package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel-pms/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Balance adjustment operations
const (
	BalanceAdd      = "add"
	BalanceSubtract = "subtract"
)

type TravelAgentService struct {
	DB  *gorm.DB
	log *zap.Logger
}

func NewTravelAgentService(db *gorm.DB, logger *zap.Logger) *TravelAgentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TravelAgentService{DB: db, log: logger.Named("agents")}
}

type TravelAgentUpdate struct {
	AgentName         *string          `json:"agentName"`
	CompanyName       *string          `json:"companyName"`
	AgentCode         *string          `json:"agentCode"`
	ContactPerson     *string          `json:"contactPerson"`
	Email             *string          `json:"email"`
	Phone             *string          `json:"phone"`
	Address           *datatypes.JSON  `json:"address"`
	LicenseNumber     *string          `json:"licenseNumber"`
	CommissionRate    *decimal.Decimal `json:"commissionRate"`
	PaymentTerms      *string          `json:"paymentTerms"`
	CreditLimit       *decimal.Decimal `json:"creditLimit"`
	Status            *string          `json:"status"`
	ContractStartDate *time.Time       `json:"contractStartDate"`
	ContractEndDate   *time.Time       `json:"contractEndDate"`
	Notes             *string          `json:"notes"`
}

var hundred = decimal.NewFromInt(100)

func validateAgent(a *models.TravelAgent) error {
	a.AgentCode = strings.ToUpper(strings.TrimSpace(a.AgentCode))
	a.AgentName = strings.TrimSpace(a.AgentName)
	a.CompanyName = strings.TrimSpace(a.CompanyName)
	switch {
	case a.AgentName == "" || a.CompanyName == "" || a.AgentCode == "":
		return invalid("agent_fields_required", "agent name, company name and agent code are required")
	case strings.TrimSpace(a.ContactPerson) == "" || strings.TrimSpace(a.Email) == "" || strings.TrimSpace(a.Phone) == "":
		return invalid("agent_fields_required", "contact person, email and phone are required")
	case a.CommissionRate.IsNegative() || a.CommissionRate.GreaterThan(hundred):
		return invalid("invalid_commission_rate", "commission rate must be between 0 and 100")
	case a.CreditLimit.IsNegative():
		return invalid("invalid_credit_limit", "credit limit cannot be negative")
	}
	if a.Status == "" {
		a.Status = models.AgentActive
	} else if !oneOf(a.Status, models.AgentStatuses) {
		return invalid("invalid_agent_status", "status must be one of %s", strings.Join(models.AgentStatuses, ", "))
	}
	if a.PaymentTerms == "" {
		a.PaymentTerms = "Credit"
	} else if !oneOf(a.PaymentTerms, models.PaymentTerms) {
		return invalid("invalid_payment_terms", "payment terms must be one of %s", strings.Join(models.PaymentTerms, ", "))
	}
	if a.ContractStartDate != nil && a.ContractEndDate != nil && a.ContractEndDate.Before(*a.ContractStartDate) {
		return invalid("invalid_contract_dates", "contract end date is before its start date")
	}
	return nil
}

// Create registers an agent. A zero commission rate falls back to 10%.
func (s *TravelAgentService) Create(ctx context.Context, agent *models.TravelAgent) error {
	if agent.CommissionRate.IsZero() {
		agent.CommissionRate = decimal.NewFromInt(10)
	}
	if err := validateAgent(agent); err != nil {
		return err
	}
	agent.ID = 0
	agent.CurrentBalance = decimal.Zero
	agent.TotalBookings = 0
	agent.TotalRevenue = decimal.Zero

	if err := s.DB.WithContext(ctx).Create(agent).Error; err != nil {
		return classifyWriteError(err, "agent_code_taken", fmt.Sprintf("agent code %s", agent.AgentCode))
	}
	s.log.Info("travel agent created", zap.Uint("agent_id", agent.ID), zap.String("agent_code", agent.AgentCode))
	return nil
}

func (s *TravelAgentService) Get(ctx context.Context, id uint) (*models.TravelAgent, error) {
	return findAgent(s.DB.WithContext(ctx), id)
}

func (s *TravelAgentService) List(ctx context.Context, activeOnly bool) ([]models.TravelAgent, error) {
	q := s.DB.WithContext(ctx).Model(&models.TravelAgent{})
	if activeOnly {
		q = q.Where("status = ?", models.AgentActive)
	}
	var agents []models.TravelAgent
	if err := q.Order("company_name ASC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to list travel agents: %w", err)
	}
	return agents, nil
}

func (s *TravelAgentService) Update(ctx context.Context, id uint, in TravelAgentUpdate) (*models.TravelAgent, error) {
	var out *models.TravelAgent
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := lockAgent(tx, id)
		if err != nil {
			return err
		}
		setString(&a.AgentName, in.AgentName)
		setString(&a.CompanyName, in.CompanyName)
		setString(&a.AgentCode, in.AgentCode)
		setString(&a.ContactPerson, in.ContactPerson)
		setString(&a.Email, in.Email)
		setString(&a.Phone, in.Phone)
		setString(&a.LicenseNumber, in.LicenseNumber)
		setString(&a.PaymentTerms, in.PaymentTerms)
		setString(&a.Status, in.Status)
		setString(&a.Notes, in.Notes)
		if in.Address != nil {
			a.Address = *in.Address
		}
		if in.CommissionRate != nil {
			a.CommissionRate = *in.CommissionRate
		}
		if in.CreditLimit != nil {
			a.CreditLimit = *in.CreditLimit
		}
		if in.ContractStartDate != nil {
			a.ContractStartDate = in.ContractStartDate
		}
		if in.ContractEndDate != nil {
			a.ContractEndDate = in.ContractEndDate
		}
		if err := validateAgent(a); err != nil {
			return err
		}
		if err := tx.Save(a).Error; err != nil {
			return classifyWriteError(err, "agent_code_taken", fmt.Sprintf("agent code %s", a.AgentCode))
		}
		out = a
		return nil
	})
	return out, err
}

// Delete removes an agent with no reservations on file.
func (s *TravelAgentService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findAgent(tx, id); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Reservation{}).Where("travel_agent_id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check agent reservations: %w", err)
		}
		if n > 0 {
			return conflict("agent_has_reservations", "travel agent %d has %d reservation(s)", id, n)
		}
		return tx.Delete(&models.TravelAgent{}, id).Error
	})
}

// AdjustBalance moves the agent's current balance by amount; this is how
// commission is settled by hand.
func (s *TravelAgentService) AdjustBalance(ctx context.Context, id uint, amount decimal.Decimal, operation string) (*models.TravelAgent, error) {
	if !amount.IsPositive() {
		return nil, invalid("invalid_amount", "amount must be greater than zero")
	}
	var delta decimal.Decimal
	switch operation {
	case BalanceAdd:
		delta = amount
	case BalanceSubtract:
		delta = amount.Neg()
	default:
		return nil, invalid("invalid_operation", "operation must be %q or %q", BalanceAdd, BalanceSubtract)
	}

	var out *models.TravelAgent
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := lockAgent(tx, id)
		if err != nil {
			return err
		}
		a.CurrentBalance = a.CurrentBalance.Add(delta)
		if err := tx.Model(a).Update("current_balance", a.CurrentBalance).Error; err != nil {
			return fmt.Errorf("failed to update agent balance: %w", err)
		}
		out = a
		return nil
	})
	if err == nil {
		s.log.Info("agent balance adjusted",
			zap.Uint("agent_id", id),
			zap.String("operation", operation),
			zap.String("amount", amount.StringFixed(2)),
			zap.String("balance", out.CurrentBalance.StringFixed(2)))
	}
	return out, err
}

func findAgent(db *gorm.DB, id uint) (*models.TravelAgent, error) {
	var a models.TravelAgent
	if err := db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("agent_not_found", "travel agent %d not found", id)
		}
		return nil, fmt.Errorf("failed to find travel agent: %w", err)
	}
	return &a, nil
}

func lockAgent(tx *gorm.DB, id uint) (*models.TravelAgent, error) {
	return findAgent(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}
