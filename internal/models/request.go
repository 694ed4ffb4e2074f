package models

import "time"

// RequestStatus defines lifecycle states for a recipient request.
type RequestStatus string

const (
	// RequestStatusPending indicates the request is awaiting the donor's decision.
	RequestStatusPending RequestStatus = "PENDING"
	// RequestStatusApproved indicates the donor reserved quantity for the request.
	RequestStatusApproved RequestStatus = "APPROVED"
	// RequestStatusRejected indicates the request was declined or cascaded out.
	RequestStatusRejected RequestStatus = "REJECTED"
	// RequestStatusClaimed indicates the recipient picked up the item.
	RequestStatusClaimed RequestStatus = "CLAIMED"
)

// DecisionAction is the donor's verdict on a pending request.
type DecisionAction string

const (
	DecisionApprove DecisionAction = "approve"
	DecisionReject  DecisionAction = "reject"
)

// Valid reports whether a is approve or reject.
func (a DecisionAction) Valid() bool {
	return a == DecisionApprove || a == DecisionReject
}

// Request is a recipient's claim intent against a donation.
type Request struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	UserID            uint          `gorm:"not null;uniqueIndex:idx_requests_user_donation" json:"user_id"`
	User              *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	DonationID        uint          `gorm:"not null;uniqueIndex:idx_requests_user_donation;index" json:"donation_id"`
	Donation          *Donation     `gorm:"foreignKey:DonationID" json:"donation,omitempty"`
	Status            RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestedQuantity int           `gorm:"not null;default:1;check:chk_requests_requested_quantity,requested_quantity > 0" json:"requested_quantity"`
	Comments          string        `gorm:"size:255" json:"comments,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Request) TableName() string {
	return "requests"
}
