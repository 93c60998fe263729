package models

// Principal is the acting identity resolved by the API layer for every
// request. Identity issuance itself lives outside this service.
type Principal struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Email   string `yaml:"email" json:"email"`
	IsAdmin bool   `yaml:"is_admin" json:"is_admin"`
}

// UserSummary is the denormalized owner projection attached to booking
// views.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p *Principal) Summary() *UserSummary {
	if p == nil {
		return nil
	}
	return &UserSummary{ID: p.ID, Name: p.Name, Email: p.Email}
}
