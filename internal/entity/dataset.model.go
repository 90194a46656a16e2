package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dataset is the metadata row for one uploaded sheet. The imported rows
// themselves live in the dedicated table named by TableName; that table is
// created and dropped together with this row.
type Dataset struct {
	gorm.Model
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	TableName string    `json:"table_name" gorm:"type:varchar(100);not null;uniqueIndex"`
	TotalRows int64     `json:"total_rows" gorm:"type:bigint"`
	CreatedBy uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
}
