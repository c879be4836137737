package models

import "regexp"

// Default ticket branding.
const (
	DefaultBrandPrimary = "#7C3AED"
	DefaultBrandAccent  = "#EC4899"
	DefaultBrandDark    = "#0F172A"
	DefaultHeaderTitle  = "ENTRY PASS"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// TicketTemplate is the optional per-event branding blob.
type TicketTemplate struct {
	BrandPrimary string `json:"brandPrimary,omitempty"`
	BrandAccent  string `json:"brandAccent,omitempty"`
	BrandDark    string `json:"brandDark,omitempty"`
	HeaderTitle  string `json:"headerTitle,omitempty"`
}

// DefaultTemplate returns the built-in branding.
func DefaultTemplate() TicketTemplate {
	return TicketTemplate{
		BrandPrimary: DefaultBrandPrimary,
		BrandAccent:  DefaultBrandAccent,
		BrandDark:    DefaultBrandDark,
		HeaderTitle:  DefaultHeaderTitle,
	}
}

// WithDefaults fills empty or malformed fields from DefaultTemplate.
func (t TicketTemplate) WithDefaults() TicketTemplate {
	d := DefaultTemplate()
	if !hexColorPattern.MatchString(t.BrandPrimary) {
		t.BrandPrimary = d.BrandPrimary
	}
	if !hexColorPattern.MatchString(t.BrandAccent) {
		t.BrandAccent = d.BrandAccent
	}
	if !hexColorPattern.MatchString(t.BrandDark) {
		t.BrandDark = d.BrandDark
	}
	if t.HeaderTitle == "" {
		t.HeaderTitle = d.HeaderTitle
	}
	return t
}

// TemplateKey returns templates/<eventId>.json.
func TemplateKey(eventID string) string {
	return "templates/" + eventID + ".json"
}

// Validate rejects colors that are set but not #RRGGBB.
func (t TicketTemplate) Validate() error {
	verr := &ValidationError{Fields: map[string]string{}}
	for field, value := range map[string]string{
		"brandPrimary": t.BrandPrimary,
		"brandAccent":  t.BrandAccent,
		"brandDark":    t.BrandDark,
	} {
		if value != "" && !hexColorPattern.MatchString(value) {
			verr.Fields[field] = "must be a #RRGGBB color"
		}
	}
	if len(t.HeaderTitle) > 64 {
		verr.Fields["headerTitle"] = "must be at most 64 characters"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
