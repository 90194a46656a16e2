package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Email          string    `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Name           string    `json:"name" gorm:"type:varchar(100)"`
	ProfilePicture string    `json:"profile_picture" gorm:"type:varchar(255)"`
	Status         string    `json:"status" gorm:"type:varchar(100)"`
}
