package entity

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QueryLink exposes a subset of a dataset's columns as a public, slug-addressed
// search form. ConditionColumns holds the ordered JSON list of searchable
// column names; ConditionRequirements maps column name to its display name and
// required flag. Both are decoded defensively at resolution time.
type QueryLink struct {
	gorm.Model
	ID                    uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	DatasetID             uuid.UUID      `json:"dataset_id" gorm:"type:uuid;not null;index"`
	Slug                  string         `json:"slug" gorm:"type:varchar(100);not null;uniqueIndex"`
	Title                 string         `json:"title" gorm:"type:varchar(255)"`
	ConditionColumns      datatypes.JSON `json:"condition_columns"`
	ConditionRequirements datatypes.JSON `json:"condition_requirements"`
	CreatedBy             uuid.UUID      `json:"-" gorm:"type:uuid;not null;index"`
	Dataset               Dataset        `json:"-" gorm:"foreignKey:DatasetID"`
}
