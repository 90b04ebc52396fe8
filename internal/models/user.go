package model

import "time"

// User is the slice of the identity record this service owns: contact
// details plus the gateway payee linkage. Authentication itself is handled
// by the external identity provider.
type User struct {
	ID    string `gorm:"primaryKey;size:36" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"not null;uniqueIndex" json:"email"`
	Phone string `json:"phone,omitempty"`

	// UpiID is the freelancer's virtual payment address, supplied before
	// their first payout.
	UpiID string `json:"upi_id,omitempty"`

	// Gateway payee linkage, written at most once per user and reused for
	// every subsequent payout.
	GatewayContactID     string `gorm:"size:64" json:"-"`
	GatewayFundAccountID string `gorm:"size:64" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
