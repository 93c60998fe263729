package service

import (
	"studiobook/internal/models"
)

// IdentityService is the config-backed principal directory. Real identity
// issuance lives outside this service; we only resolve who is acting and
// how to display them.
type IdentityService struct {
	byID map[string]models.Principal
}

func NewIdentityService(principals []models.Principal) *IdentityService {
	byID := make(map[string]models.Principal, len(principals))
	for _, p := range principals {
		byID[p.ID] = p
	}
	return &IdentityService{byID: byID}
}

func (s *IdentityService) ByID(id string) (*models.Principal, bool) {
	p, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

// Summary returns the display projection for a user id, or nil when the
// directory does not know the user.
func (s *IdentityService) Summary(id string) *models.UserSummary {
	p, ok := s.byID[id]
	if !ok {
		return nil
	}
	return p.Summary()
}
