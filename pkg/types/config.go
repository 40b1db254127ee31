package types

// Config represents the codementor server configuration.
type Config struct {
	// Schema reference (for editor support)
	Schema string `json:"$schema,omitempty"`

	// Model is the default completion model, e.g. "anthropic/claude-3.7-sonnet".
	Model string `json:"model,omitempty"`

	// Temperature for completion requests. Zero means the provider default.
	Temperature float64 `json:"temperature,omitempty"`

	// Port for the HTTP server.
	Port int `json:"port,omitempty"`

	// AllowedOrigins for CORS. Empty means allow all.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`

	// SessionIdleTimeout is how long an untouched session survives before
	// eviction, in minutes. Unset selects the default; an explicit 0
	// disables eviction.
	SessionIdleTimeout *int `json:"sessionIdleTimeoutMinutes,omitempty"`

	// Provider holds the completion provider connection settings.
	Provider ProviderConfig `json:"provider,omitempty"`
}

// ProviderConfig holds the completion provider connection settings.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseURL,omitempty"`

	// Referer and Title are forwarded as attribution headers on every
	// request, as OpenRouter recommends.
	Referer string `json:"referer,omitempty"`
	Title   string `json:"title,omitempty"`
}
