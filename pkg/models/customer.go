package models

import (
	"time"
)

type Address struct {
	Street  string `gorm:"type:varchar(200)" json:"street"`
	City    string `gorm:"type:varchar(100)" json:"city"`
	State   string `gorm:"type:varchar(50)" json:"state"`
	ZipCode string `gorm:"type:varchar(20)" json:"zip_code"`
}

type Customer struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FirstName    string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName     string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	Phone        string    `gorm:"type:varchar(20)" json:"phone"`
	Address      Address   `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
