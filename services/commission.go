package services

import (
	"context"

	"hotel-pms/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionPolicy decides what happens to a travel agent's ledger once an
// invoice carrying a commission amount is generated, and undoes it when the
// invoice is voided. Both run inside the invoice transaction.
type CommissionPolicy interface {
	Apply(ctx context.Context, tx *gorm.DB, agent *models.TravelAgent, invoice *models.Invoice) error
	Reverse(ctx context.Context, tx *gorm.DB, agent *models.TravelAgent, invoice *models.Invoice) error
}

// ManualSettlement records the commission on the invoice only; the agent's
// balance is settled by hand through AdjustBalance.
type ManualSettlement struct{}

func (ManualSettlement) Apply(context.Context, *gorm.DB, *models.TravelAgent, *models.Invoice) error {
	return nil
}

func (ManualSettlement) Reverse(context.Context, *gorm.DB, *models.TravelAgent, *models.Invoice) error {
	return nil
}

// AccrueToBalance credits the commission to the agent's current balance.
type AccrueToBalance struct{}

func (AccrueToBalance) Apply(ctx context.Context, tx *gorm.DB, agent *models.TravelAgent, invoice *models.Invoice) error {
	return accrue(ctx, tx, agent, invoice.CommissionAmount)
}

func (AccrueToBalance) Reverse(ctx context.Context, tx *gorm.DB, agent *models.TravelAgent, invoice *models.Invoice) error {
	return accrue(ctx, tx, agent, invoice.CommissionAmount.Neg())
}

func accrue(ctx context.Context, tx *gorm.DB, agent *models.TravelAgent, amount decimal.Decimal) error {
	if agent == nil || amount.IsZero() {
		return nil
	}
	return tx.WithContext(ctx).Model(&models.TravelAgent{}).
		Where("id = ?", agent.ID).
		UpdateColumn("current_balance", gorm.Expr("current_balance + ?", amount)).Error
}
