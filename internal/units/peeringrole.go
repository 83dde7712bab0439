package units

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/stack"
	"github.com/imamik/hubnet/internal/util/naming"
)

// PeeringActions are the permissions needed to create a peering on a remote
// virtual network.
var PeeringActions = []string{
	"Microsoft.ClassicNetwork/virtualNetworks/peer/action",
	"Microsoft.Network/virtualNetworks/peer/action",
	"Microsoft.Network/virtualNetworks/virtualNetworkPeerings/read",
	"Microsoft.Network/virtualNetworks/virtualNetworkPeerings/write",
	"Microsoft.Network/virtualNetworks/virtualNetworkPeerings/delete",
}

// PeeringScope is one subscription taking part in cross-subscription peering.
type PeeringScope struct {
	Name           string `yaml:"name"`
	SubscriptionID string `yaml:"subscriptionID"`
	PrincipalID    string `yaml:"principalID"`
}

func (s PeeringScope) path() string {
	return "/subscriptions/" + s.SubscriptionID
}

// PeeringRoleParams configures the peering role unit.
type PeeringRoleParams struct {
	Scopes  []PeeringScope `yaml:"scopes"`
	Actions []string       `yaml:"actions"`
}

// PeeringRole defines a peering-only role in every scope and grants each
// scope's role to the principals of all other scopes. Spokes that peer across
// subscriptions declare a dependency on it.
type PeeringRole struct {
	base
}

// NewPeeringRole constructs the peering role unit.
func NewPeeringRole(_ context.Context, scope *stack.Scope) (stack.Unit, error) {
	p := PeeringRoleParams{Actions: PeeringActions}
	if err := scope.Entry.Decode(&p); err != nil {
		return nil, err
	}
	if err := validateScopes(p.Scopes); err != nil {
		return nil, fmt.Errorf("peering role %s: %w", scope.ID, err)
	}

	u := &PeeringRole{base: newBase(scope, "", "", "")}
	c := scope.Stack

	defs := make([]*backend.Resource, len(p.Scopes))
	for i, s := range p.Scopes {
		def, err := c.Create(backend.KindRoleDefinition, naming.RoleDefinition(s.Name), backend.Properties{
			"scope":            s.path(),
			"assignableScopes": []string{s.path()},
			"actions":          p.Actions,
		})
		if err != nil {
			return nil, err
		}
		defs[i] = def
	}

	for i, target := range p.Scopes {
		for j, grantee := range p.Scopes {
			if i == j {
				continue
			}
			if _, err := c.Create(backend.KindRoleAssignment, naming.RoleAssignment(target.Name, grantee.Name), backend.Properties{
				"scope":                        target.path(),
				"principalId":                  grantee.PrincipalID,
				"roleDefinitionId":             defs[i].ID,
				"skipServicePrincipalAadCheck": true,
			}, backend.DependsOn(defs[i])); err != nil {
				return nil, err
			}
		}
	}
	return u, nil
}

func validateScopes(scopes []PeeringScope) error {
	if len(scopes) < 2 {
		return fmt.Errorf("need at least two scopes, got %d", len(scopes))
	}
	seen := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		switch {
		case s.Name == "":
			return errors.New("scope without name")
		case seen[s.Name]:
			return fmt.Errorf("duplicate scope %q", s.Name)
		case s.SubscriptionID == "" || s.PrincipalID == "":
			return fmt.Errorf("scope %q: subscriptionID and principalID are required", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
