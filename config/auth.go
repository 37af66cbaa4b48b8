package config

import "strings"

// AdminAuthConfig controls bearer-token verification on the admin API.
type AdminAuthConfig struct {
	// Issuer is the OIDC issuer URL; its discovery document supplies the signing keys.
	Issuer string `env:"ISSUER"`
	// ClientID is the expected audience of admin tokens.
	ClientID string `env:"CLIENT_ID"`
	// AdminExpression is a JMESPath expression evaluated against the token claims.
	// A truthy result grants admin access.
	AdminExpression string `env:"ADMIN_EXPRESSION" envDefault:"groups[?@ == 'mmk-admins']"`
	// Disabled skips verification entirely. Only honoured in dev mode.
	Disabled bool `env:"DISABLED" envDefault:"false"`
}

// Sanitize applies guardrails to admin auth configuration values.
func (a *AdminAuthConfig) Sanitize(isDev bool) {
	a.Issuer = strings.TrimSpace(a.Issuer)
	a.ClientID = strings.TrimSpace(a.ClientID)
	a.AdminExpression = strings.TrimSpace(a.AdminExpression)
	if !isDev {
		a.Disabled = false
	}
}

// Configured reports whether enough is set to build a verifier.
func (a *AdminAuthConfig) Configured() bool {
	return a.Issuer != "" && a.ClientID != ""
}

// Auth0Config configures the Auth0 management API client used by the invitation jobs.
type Auth0Config struct {
	BaseURL      string `env:"BASE_URL"`
	Audience     string `env:"AUDIENCE"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Connection   string `env:"CONNECTION" envDefault:"Username-Password-Authentication"`
}

// Sanitize applies guardrails to Auth0 configuration values.
func (a *Auth0Config) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	a.Audience = strings.TrimSpace(a.Audience)
	a.Connection = strings.TrimSpace(a.Connection)
}

// Configured reports whether the Auth0 client can be built.
func (a *Auth0Config) Configured() bool {
	return a.BaseURL != "" && a.ClientID != "" && a.ClientSecret != ""
}

// PostmarkConfig configures the Postmark client used to send invitation emails.
type PostmarkConfig struct {
	BaseURL            string `env:"BASE_URL"            envDefault:"https://api.postmarkapp.com"`
	ServerToken        string `env:"SERVER_TOKEN"`
	From               string `env:"FROM"`
	InvitationTemplate string `env:"INVITATION_TEMPLATE" envDefault:"user-invitation"`
}

// Sanitize applies guardrails to Postmark configuration values.
func (p *PostmarkConfig) Sanitize() {
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	p.From = strings.TrimSpace(p.From)
	if p.InvitationTemplate = strings.TrimSpace(p.InvitationTemplate); p.InvitationTemplate == "" {
		p.InvitationTemplate = "user-invitation"
	}
}

// Configured reports whether the Postmark client can be built.
func (p *PostmarkConfig) Configured() bool {
	return p.ServerToken != "" && p.From != ""
}
