package models

// PhoneNumber is an international phone number.
type PhoneNumber struct {
	CountryCode int    `json:"country_code" validate:"gte=1,lte=999"`
	Number      string `json:"number" validate:"required,max=32"`
}

// Address is a user-owned delivery address.
type Address struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string      `json:"-" gorm:"index;type:varchar(36)"`
	Street1     string      `json:"street1" validate:"required,max=200"`
	Street2     string      `json:"street2,omitempty" validate:"omitempty,max=200"`
	City        string      `json:"city" validate:"required,max=100"`
	State       string      `json:"state" validate:"required,max=100"`
	Country     string      `json:"country" validate:"required,max=100"`
	ZipCode     string      `json:"zip_code,omitempty" validate:"omitempty,max=20"`
	PhoneNumber PhoneNumber `json:"phone_number" gorm:"embedded;embeddedPrefix:phone_"`
}
