package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// BillingConfig represents the complete billing-cycle configuration
type BillingConfig struct {
	Billing  BillingSettings  `toml:"billing"`
	SMTP     SMTPSettings     `toml:"smtp"`
	WhatsApp WhatsAppSettings `toml:"whatsapp"`
}

// BillingSettings contains the tunable billing-cycle constants
type BillingSettings struct {
	PaymentTermDays    int    `toml:"payment_term_days"`
	LookaheadDays      int    `toml:"lookahead_days"`
	ReminderDays       []int  `toml:"reminder_days"`
	DefaultCountryCode string `toml:"default_country_code"`
	RunLockTTLSeconds  int    `toml:"run_lock_ttl_seconds"`
}

// SMTPSettings contains the outbound email channel settings
type SMTPSettings struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	From     string `toml:"from"`
	Password string `toml:"password"`
}

// WhatsAppSettings contains the messaging channel provider settings
type WhatsAppSettings struct {
	APIURL string `toml:"api_url"`
	Token  string `toml:"token"`
}

// DefaultBillingConfig returns the configuration used when no file is present.
// The 7-day payment term, 3-day lookahead and 7/3/1 reminder ladder are the
// operational defaults; tuning them is a config change, not a code change.
func DefaultBillingConfig() *BillingConfig {
	return &BillingConfig{
		Billing: BillingSettings{
			PaymentTermDays:    7,
			LookaheadDays:      3,
			ReminderDays:       []int{7, 3, 1},
			DefaultCountryCode: "1",
			RunLockTTLSeconds:  600,
		},
		SMTP: SMTPSettings{Port: 587},
	}
}

// LoadBillingConfig loads configuration from a TOML file, filling in defaults
// for any zero-valued billing settings.
func LoadBillingConfig(filename string) (*BillingConfig, error) {
	cfg := &BillingConfig{}
	if _, err := toml.DecodeFile(filename, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	defaults := DefaultBillingConfig()
	if cfg.Billing.PaymentTermDays <= 0 {
		cfg.Billing.PaymentTermDays = defaults.Billing.PaymentTermDays
	}
	if cfg.Billing.LookaheadDays <= 0 {
		cfg.Billing.LookaheadDays = defaults.Billing.LookaheadDays
	}
	if len(cfg.Billing.ReminderDays) == 0 {
		cfg.Billing.ReminderDays = defaults.Billing.ReminderDays
	}
	if cfg.Billing.DefaultCountryCode == "" {
		cfg.Billing.DefaultCountryCode = defaults.Billing.DefaultCountryCode
	}
	if cfg.Billing.RunLockTTLSeconds <= 0 {
		cfg.Billing.RunLockTTLSeconds = defaults.Billing.RunLockTTLSeconds
	}
	if cfg.SMTP.Port <= 0 {
		cfg.SMTP.Port = defaults.SMTP.Port
	}
	return cfg, nil
}
