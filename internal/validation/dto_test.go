package validation

import (
	"testing"

	"sharekindness/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_CreateRequestInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      CreateRequestInput
		wantMsg string
	}{
		{"Valid", CreateRequestInput{DonationID: 1, RequestedQuantity: 2, Comments: "thanks"}, ""},
		{"Missing Donation", CreateRequestInput{RequestedQuantity: 1}, "donation_id is required"},
		{"Negative Quantity", CreateRequestInput{DonationID: 1, RequestedQuantity: -1}, "requested_quantity must be greater than 0"},
		{"Long Comment", CreateRequestInput{DonationID: 1, RequestedQuantity: 1, Comments: string(make([]byte, 256))}, "comments must be at most 255 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeValidation))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestStruct_CreateDonationInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      CreateDonationInput
		wantErr bool
	}{
		{"Valid", CreateDonationInput{ItemName: "Jackets", Category: "clothes", Quantity: 2}, false},
		{"Default Category", CreateDonationInput{ItemName: "Jackets", Quantity: 2}, false},
		{"Unknown Category", CreateDonationInput{ItemName: "Jackets", Category: "TOYS", Quantity: 2}, true},
		{"Zero Quantity", CreateDonationInput{ItemName: "Jackets"}, true},
		{"Bad Image URL", CreateDonationInput{ItemName: "Jackets", Quantity: 1, ImageURL: "not a url"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStruct_DashboardDecisionInput(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Struct(DashboardDecisionInput{Action: "approve", RequestID: 3}))
	err := Struct(DashboardDecisionInput{Action: "maybe", RequestID: 3})
	require.Error(t, err)
	assert.Equal(t, "action must be one of: approve reject", err.Error())
}
