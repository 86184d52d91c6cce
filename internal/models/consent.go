package models

import "time"

// Значения полей записи согласия.
const (
	LegalBasisConsent = "consent"
	MethodWebForm     = "web_form"
	PurposeNewsletter = "newsletter"
	PurposeInsights   = "insights"
)

// ConsentRecord запись аудита согласия на обработку данных (GDPR/CCPA).
type ConsentRecord struct {
	ID           string     `json:"id"`
	SubscriberID string     `json:"subscriberId"`
	Email        string     `json:"email"`
	LegalBasis   string     `json:"legalBasis"`
	Method       string     `json:"method"`
	Purposes     []string   `json:"purposes"`
	IPHash       string     `json:"ipHash,omitempty"`
	UserAgent    string     `json:"userAgent,omitempty"`
	GrantedAt    time.Time  `json:"grantedAt"`
	WithdrawnAt  *time.Time `json:"withdrawnAt,omitempty"`
}
