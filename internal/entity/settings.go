package entity

// ServiceConfig holds the remote structuring service connection settings.
// Persisted verbatim, no lifecycle beyond load and save.
type ServiceConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
}

// Complete reports whether every field required to call the service is set.
func (c ServiceConfig) Complete() bool {
	return c.BaseURL != "" && c.APIKey != "" && c.Model != ""
}

// TripInfo holds the free-text reimbursement event fields echoed into the
// summary export. Persisted for reuse across exports.
type TripInfo struct {
	Reason      string `json:"reason"`
	Destination string `json:"destination"`
	DateRange   string `json:"date_range"`
	Remark      string `json:"remark"`
}
