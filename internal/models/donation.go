package models

import "time"

// DonationCategory classifies a donated item lot.
type DonationCategory string

const (
	CategoryFood        DonationCategory = "FOOD"
	CategoryClothes     DonationCategory = "CLOTHES"
	CategoryShoes       DonationCategory = "SHOES"
	CategoryBooks       DonationCategory = "BOOKS"
	CategoryElectronics DonationCategory = "ELECTRONICS"
	CategoryOther       DonationCategory = "OTHER"
)

// DonationCategories lists every accepted category in display order.
var DonationCategories = []DonationCategory{
	CategoryFood,
	CategoryClothes,
	CategoryShoes,
	CategoryBooks,
	CategoryElectronics,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c DonationCategory) Valid() bool {
	for _, known := range DonationCategories {
		if c == known {
			return true
		}
	}
	return false
}

// DonationStatus defines lifecycle states for a donation.
type DonationStatus string

const (
	// DonationStatusAvailable accepts new requests.
	DonationStatusAvailable DonationStatus = "AVAILABLE"
	// DonationStatusReserved is held for an approved recipient.
	DonationStatusReserved DonationStatus = "RESERVED"
	// DonationStatusClaimed means every approved request was picked up.
	DonationStatusClaimed DonationStatus = "CLAIMED"
	// DonationStatusExpired means the donor withdrew the offer.
	DonationStatusExpired DonationStatus = "EXPIRED"
	// DonationStatusClosed means quantity ran out or the request cap was hit.
	DonationStatusClosed DonationStatus = "CLOSED"
)

// Terminal reports whether the status can no longer accept decisions.
func (s DonationStatus) Terminal() bool {
	switch s {
	case DonationStatusClosed, DonationStatusClaimed, DonationStatusExpired:
		return true
	}
	return false
}

// DonationChange describes a committed donation status change.
type DonationChange struct {
	From DonationStatus
	// Rejected lists requesters whose PENDING request the change rejected.
	Rejected []uint
	// Requesters lists every user holding a request on the donation, in
	// any status.
	Requesters []uint
}

// Donation is an offered item lot with a remaining quantity.
type Donation struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	DonorID     uint             `gorm:"not null;index" json:"donor_id"`
	Donor       *User            `gorm:"foreignKey:DonorID" json:"donor,omitempty"`
	ItemName    string           `gorm:"size:100;not null" json:"item_name"`
	Description string           `gorm:"type:text" json:"description"`
	Category    DonationCategory `gorm:"type:varchar(20);not null;default:'OTHER';index" json:"category"`
	Quantity    int              `gorm:"not null;default:1;check:chk_donations_quantity,quantity >= 0" json:"quantity"`
	ImageURL    string           `json:"image_url,omitempty"`
	Status      DonationStatus   `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Requests []Request `gorm:"foreignKey:DonationID" json:"requests,omitempty"`
}

// TableName specifies the table name for GORM
func (Donation) TableName() string {
	return "donations"
}
