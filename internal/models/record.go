package models

import "time"

// Record is one key of the local key-value store. Value holds a JSON document,
// usually an array of entities.
type Record struct {
	Key       string    `gorm:"size:64;primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Record) TableName() string {
	return "kv_records"
}
