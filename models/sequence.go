package models

// SequenceCounter holds the last issued value of a document number sequence
// for one period (for example reservations in 2403).
type SequenceCounter struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Entity string `json:"entity" gorm:"size:32;uniqueIndex:idx_sequence_entity_period"`
	Period string `json:"period" gorm:"size:16;uniqueIndex:idx_sequence_entity_period"`
	Value  int64  `json:"value" gorm:"not null;default:0"`
}
