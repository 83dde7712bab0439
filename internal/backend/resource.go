package backend

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Kind identifies the type of a declared resource.
type Kind string

// Resource kinds used by the units.
const (
	KindResourceGroup        Kind = "ResourceGroup"
	KindVirtualNetwork       Kind = "VirtualNetwork"
	KindSubnet               Kind = "Subnet"
	KindRouteTable           Kind = "RouteTable"
	KindRouteAssociation     Kind = "RouteAssociation"
	KindPeering              Kind = "Peering"
	KindNetworkInterface     Kind = "NetworkInterface"
	KindVirtualMachine       Kind = "VirtualMachine"
	KindVMExtension          Kind = "VMExtension"
	KindPublicIP             Kind = "PublicIP"
	KindVpnGateway           Kind = "VpnGateway"
	KindGatewayConnection    Kind = "GatewayConnection"
	KindSecurityGroup        Kind = "SecurityGroup"
	KindSecurityRule         Kind = "SecurityRule"
	KindSubnetNSGAssociation Kind = "SubnetNSGAssociation"
	KindRoleDefinition       Kind = "RoleDefinition"
	KindRoleAssignment       Kind = "RoleAssignment"
)

// Property keys with a shared meaning across kinds.
const (
	PropAddressPrefixes  = "addressPrefixes"
	PropAddressPrefix    = "addressPrefix"
	PropPrivateIPAddress = "privateIpAddress"
	PropRoutes           = "routes"
	PropNetworkID        = "virtualNetworkId"
	PropSubnetID         = "subnetId"
	PropRouteTableID     = "routeTableId"
	PropOwner            = "owner"
)

var (
	// ErrDuplicateResource is returned when a stack already holds a resource
	// with the same kind and name.
	ErrDuplicateResource = errors.New("duplicate resource")

	// ErrInvalidResource is returned for resources without a kind or name.
	ErrInvalidResource = errors.New("invalid resource")

	// ErrUnknownStack is returned when a dependency names a stack that was
	// never created.
	ErrUnknownStack = errors.New("unknown stack")

	// ErrUnknownResource is returned when a dependency names a resource the
	// graph does not hold.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrDependencyCycle is returned by Plan when stack dependencies form a cycle.
	ErrDependencyCycle = errors.New("dependency cycle")
)

// Properties holds provider-agnostic resource attributes.
type Properties map[string]any

// Resource is a handle to one declared resource.
type Resource struct {
	Kind       Kind
	Name       string
	ID         string // /<stack>/<kind>/<name>
	Stack      string
	Properties Properties
	DependsOn  []string // resource IDs
}

// ResourceID builds the graph key for a resource.
func ResourceID(stack string, kind Kind, name string) string {
	return "/" + stack + "/" + string(kind) + "/" + name
}

// String returns a property as a string, or "" if it is missing or not a string.
func (r *Resource) String(key string) string {
	s, _ := r.Properties[key].(string)
	return s
}

// Addresses returns the address attributes of the resource: its address
// prefixes, its single prefix and its private IP, whichever are set.
func (r *Resource) Addresses() []string {
	var out []string
	if prefixes, ok := r.Properties[PropAddressPrefixes].([]string); ok {
		out = append(out, prefixes...)
	}
	if p := r.String(PropAddressPrefix); p != "" {
		out = append(out, p)
	}
	if ip := r.String(PropPrivateIPAddress); ip != "" {
		out = append(out, ip)
	}
	return out
}

func (r *Resource) describe() string {
	var b strings.Builder
	b.WriteString(r.ID)
	if len(r.DependsOn) > 0 {
		fmt.Fprintf(&b, " (after %s)", strings.Join(r.DependsOn, ", "))
	}
	return b.String()
}

// Option configures a Create call.
type Option func(*createOptions)

type createOptions struct {
	dependsOn []string
	nilDep    bool
}

// DependsOn makes the created resource provision only after deps.
func DependsOn(deps ...*Resource) Option {
	return func(o *createOptions) {
		for _, d := range deps {
			if d == nil {
				o.nilDep = true
				continue
			}
			o.dependsOn = append(o.dependsOn, d.ID)
		}
	}
}

// DependsOnID is DependsOn for resources known only by ID, such as those
// published in another unit's exports. Empty IDs are ignored.
func DependsOnID(ids ...string) Option {
	return func(o *createOptions) {
		for _, id := range ids {
			if id != "" {
				o.dependsOn = append(o.dependsOn, id)
			}
		}
	}
}

// Creator declares resources. Stacks create directly; link transactions stage.
type Creator interface {
	Create(kind Kind, name string, props Properties, opts ...Option) (*Resource, error)
}

func newResource(stack string, kind Kind, name string, props Properties, opts []Option) (*Resource, error) {
	if kind == "" || name == "" {
		return nil, fmt.Errorf("%w: kind %q name %q in stack %s", ErrInvalidResource, kind, name, stack)
	}
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}

	res := &Resource{
		Kind:       kind,
		Name:       name,
		ID:         ResourceID(stack, kind, name),
		Stack:      stack,
		Properties: maps.Clone(props),
	}
	if res.Properties == nil {
		res.Properties = Properties{}
	}
	if o.nilDep {
		return nil, fmt.Errorf("%w: nil dependency of %s", ErrUnknownResource, res.ID)
	}
	for _, dep := range o.dependsOn {
		if !slices.Contains(res.DependsOn, dep) {
			res.DependsOn = append(res.DependsOn, dep)
		}
	}
	return res, nil
}
