package units

import "github.com/imamik/hubnet/internal/stack"

// SpokeIDs are the spoke unit identifiers known at build time.
var SpokeIDs = []string{"spoke1", "spoke2", "spoke3"}

// Catalog returns the compile-time unit registrations.
func Catalog() *stack.Catalog {
	c := stack.NewCatalog().
		MustRegister(OnPremID, NewOnPrem).
		MustRegister(HubID, NewHub).
		MustRegister(HubNVAID, NewHubNVA).
		MustRegister(PeeringRoleID, NewPeeringRole)
	for _, id := range SpokeIDs {
		c.MustRegister(id, NewSpoke)
	}
	return c
}
