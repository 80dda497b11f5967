// internal/delivery/presets.go
package delivery

// SMTPPreset is a well-known provider configuration the UI offers when an
// operator adds a credential.
type SMTPPreset struct {
	Provider string `json:"provider"`
	Label    string `json:"label"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	TLS      bool   `json:"tls"`
}

var presets = []SMTPPreset{
	{Provider: "sendgrid", Label: "SendGrid", Host: "smtp.sendgrid.net", Port: 587, TLS: true},
	{Provider: "gmail", Label: "Gmail / Google Workspace", Host: "smtp.gmail.com", Port: 587, TLS: true},
	{Provider: "outlook", Label: "Outlook / Microsoft 365", Host: "smtp.office365.com", Port: 587, TLS: true},
	{Provider: "ses", Label: "Amazon SES", Host: "email-smtp.us-east-1.amazonaws.com", Port: 587, TLS: true},
	{Provider: "mailgun", Label: "Mailgun", Host: "smtp.mailgun.org", Port: 587, TLS: true},
	{Provider: "zoho", Label: "Zoho Mail", Host: "smtp.zoho.com", Port: 465, TLS: true},
}

// Presets returns the provider preset catalog.
func Presets() []SMTPPreset {
	out := make([]SMTPPreset, len(presets))
	copy(out, presets)
	return out
}

// PresetFor returns the preset for a provider name, if known.
func PresetFor(provider string) (SMTPPreset, bool) {
	for _, p := range presets {
		if p.Provider == provider {
			return p, true
		}
	}
	return SMTPPreset{}, false
}
