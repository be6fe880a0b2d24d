package domain

// Settings keys in the key-value namespace.
const (
	SettingAPIKey        = "apiKey"
	SettingSelectedModel = "selectedModel"
)

// Settings holds user preferences for the model client.
type Settings struct {
	APIKey        string `json:"apiKey,omitempty"`
	SelectedModel string `json:"selectedModel"`
}

// HasAPIKey reports whether a key is configured.
func (s Settings) HasAPIKey() bool {
	return s.APIKey != ""
}
