package model

import "time"

// Settings is the administrative configuration snapshot read by the engines.
type Settings struct {
	DefaultDurationDays  int       `json:"default_duration_days"`
	UnlockPrice          int64     `json:"unlock_price"` // minor units
	UnlockCurrency       string    `json:"unlock_currency"`
	NotifyAdminOnPayment bool      `json:"notify_admin_on_payment"`
	NotifyAdminOnPromo   bool      `json:"notify_admin_on_promo"`
	AdminEmail           string    `json:"admin_email"`
	UpdatedAt            time.Time `json:"updated_at"`
}
