package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type DeliveryMethod string

const (
	DeliveryEmail    DeliveryMethod = "email"
	DeliveryTelegram DeliveryMethod = "telegram"
	DeliveryWhatsApp DeliveryMethod = "whatsapp"
)

func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	m := DeliveryMethod(s)
	switch m {
	case DeliveryEmail, DeliveryTelegram, DeliveryWhatsApp:
		return m, nil
	}
	return "", fmt.Errorf("unknown delivery method %q", s)
}

type Subscription struct {
	ID              string           `json:"id"`
	Email           *string          `json:"email,omitempty"`
	TelegramID      *string          `json:"telegram_id,omitempty"`
	WhatsAppNumber  *string          `json:"whatsapp_number,omitempty"`
	DeliveryMethods []DeliveryMethod `json:"delivery_methods"`
	Active          bool             `json:"active"`
	CreatedAt       time.Time        `json:"created_at"`
	LastDelivery    *time.Time       `json:"last_delivery"`
}

// Recipient returns the contact field backing the given delivery method.
func (s *Subscription) Recipient(method DeliveryMethod) string {
	var v *string
	switch method {
	case DeliveryEmail:
		v = s.Email
	case DeliveryTelegram:
		v = s.TelegramID
	case DeliveryWhatsApp:
		v = s.WhatsAppNumber
	}
	if v == nil {
		return ""
	}
	return *v
}

// SubscriptionCreate is the registration input.
type SubscriptionCreate struct {
	Email           *string  `json:"email"`
	TelegramID      *string  `json:"telegram_id"`
	WhatsAppNumber  *string  `json:"whatsapp_number"`
	DeliveryMethods []string `json:"delivery_methods"`
}

// Validate checks that at least one delivery method is declared and that
// every declared method has a matching non-empty contact field. It returns
// the normalized, de-duplicated method list.
func (c *SubscriptionCreate) Validate() ([]DeliveryMethod, error) {
	if len(c.DeliveryMethods) == 0 {
		return nil, &ValidationError{Field: "delivery_methods", Message: "at least one delivery method is required"}
	}

	seen := make(map[DeliveryMethod]bool, len(c.DeliveryMethods))
	methods := make([]DeliveryMethod, 0, len(c.DeliveryMethods))
	for _, raw := range c.DeliveryMethods {
		m, err := ParseDeliveryMethod(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return nil, &ValidationError{Field: "delivery_methods", Message: err.Error()}
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		methods = append(methods, m)
	}

	for _, m := range methods {
		switch m {
		case DeliveryEmail:
			if blank(c.Email) {
				return nil, &ValidationError{Field: "email", Message: "email is required for email delivery"}
			}
			if _, err := mail.ParseAddress(strings.TrimSpace(*c.Email)); err != nil {
				return nil, &ValidationError{Field: "email", Message: "invalid email address"}
			}
		case DeliveryTelegram:
			if blank(c.TelegramID) {
				return nil, &ValidationError{Field: "telegram_id", Message: "telegram_id is required for telegram delivery"}
			}
		case DeliveryWhatsApp:
			if blank(c.WhatsAppNumber) {
				return nil, &ValidationError{Field: "whatsapp_number", Message: "whatsapp_number is required for whatsapp delivery"}
			}
		}
	}

	return methods, nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
