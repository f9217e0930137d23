package services

import (
	"fmt"
	"time"

	"hotel-pms/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SequenceReservation = "reservation"
	SequenceInvoice     = "invoice"
)

// SequencePeriod is the counter scope: two-digit year + month, e.g. "2403".
func SequencePeriod(t time.Time) string {
	return t.Format("0601")
}

// NextSequenceValue atomically increments the (entity, period) counter and
// returns the new value. It must run inside the caller's transaction so the
// number is only consumed when the document insert commits.
func NextSequenceValue(tx *gorm.DB, entity, period string) (int64, error) {
	counter := models.SequenceCounter{Entity: entity, Period: period, Value: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity"}, {Name: "period"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("value + 1")}),
	}).Create(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("failed to bump %s sequence: %w", entity, err)
	}

	var current models.SequenceCounter
	if err := tx.Where("entity = ? AND period = ?", entity, period).First(&current).Error; err != nil {
		return 0, fmt.Errorf("failed to read %s sequence: %w", entity, err)
	}
	return current.Value, nil
}

// NextDocumentNumber builds numbers like RES240300001 / INV240300001.
func NextDocumentNumber(tx *gorm.DB, entity, prefix string, at time.Time) (string, error) {
	period := SequencePeriod(at)
	n, err := NextSequenceValue(tx, entity, period)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%05d", prefix, period, n), nil
}
