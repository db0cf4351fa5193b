package models

import (
	"github.com/wcpa/backend/internal/domain/partner"
)

// AddressModel is the persistence model for the Address entity.
type AddressModel struct {
	BaseModel
	UserID     string              `gorm:"type:varchar(100);not null;index"`
	Type       partner.AddressType `gorm:"type:varchar(10);not null"`
	FirstName  string              `gorm:"type:varchar(100)"`
	LastName   string              `gorm:"type:varchar(100)"`
	Line1      string              `gorm:"type:varchar(200);not null"`
	Line2      string              `gorm:"type:varchar(200)"`
	City       string              `gorm:"type:varchar(100);not null"`
	State      string              `gorm:"type:varchar(100);not null"`
	PostalCode string              `gorm:"type:varchar(20);not null"`
	Country    string              `gorm:"type:varchar(2)"`
	IsDefault  bool                `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AddressModel) TableName() string {
	return "addresses"
}

// ToDomain converts the persistence model to a domain Address entity.
func (m *AddressModel) ToDomain() *partner.Address {
	return &partner.Address{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Type:       m.Type,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Line1:      m.Line1,
		Line2:      m.Line2,
		City:       m.City,
		State:      m.State,
		PostalCode: m.PostalCode,
		Country:    m.Country,
		IsDefault:  m.IsDefault,
	}
}

// FromDomain populates the persistence model from a domain Address entity.
func (m *AddressModel) FromDomain(a *partner.Address) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.UserID = a.UserID
	m.Type = a.Type
	m.FirstName = a.FirstName
	m.LastName = a.LastName
	m.Line1 = a.Line1
	m.Line2 = a.Line2
	m.City = a.City
	m.State = a.State
	m.PostalCode = a.PostalCode
	m.Country = a.Country
	m.IsDefault = a.IsDefault
}

// AddressModelFromDomain creates a new persistence model from a domain Address entity.
func AddressModelFromDomain(a *partner.Address) *AddressModel {
	m := &AddressModel{}
	m.FromDomain(a)
	return m
}
