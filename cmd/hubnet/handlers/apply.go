package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/config"
	"github.com/imamik/hubnet/internal/platform/hcloud"
	"github.com/imamik/hubnet/internal/provisioning"
	"github.com/imamik/hubnet/internal/provisioning/destroy"
)

// summaryApplier keeps the summary of the last hcloud apply for reporting.
type summaryApplier struct {
	*hcloud.Applier
	summary *hcloud.Summary
}

func (a *summaryApplier) Apply(ctx context.Context, plan *backend.Plan) error {
	sum, err := a.ApplyPlan(ctx, plan)
	a.summary = sum
	return err
}

// applier returns the applier for the configured provider. The second result
// is set only for hcloud.
func (s *session) applier() (backend.Applier, *summaryApplier) {
	if s.cfg.Backend.Provider != config.ProviderHCloud {
		return backend.LogApplier{Log: s.log.WithName("plan")}, nil
	}
	client := newNetworkManager(s.creds.HCloudToken, s.log.WithName("hcloud"))
	hc := &summaryApplier{Applier: hcloud.NewApplier(client, s.cfg.Backend.NetworkZone, s.log.WithName("apply"))}
	return hc, hc
}

// Apply plans every unit and hands the plan to the configured backend.
//
// The "plan" provider only logs the resources. The "hcloud" provider creates
// networks, subnets and appliance routes through the Hetzner Cloud API using
// HCLOUD_TOKEN.
func Apply(ctx context.Context, opts Options) error {
	s, err := newSession(opts)
	if err != nil {
		return err
	}

	applier, hc := s.applier()
	s.log.Info("Applying configuration", "name", s.cfg.Name, "provider", string(s.cfg.Backend.Provider))
	pctx := s.provisioningContext(ctx, provisioning.WithApplier(applier))
	if err := provisioning.RunPhases(pctx, provisioning.ApplyPhases()); err != nil {
		return err
	}

	printTitle(stdout, "hubnet apply: "+s.cfg.Name)
	if hc == nil || hc.summary == nil {
		fmt.Fprintf(stdout, "  %d resources in %d stacks planned (provider %s, nothing provisioned)\n",
			pctx.State.Plan.Len(), len(pctx.State.Plan.Steps), s.cfg.Backend.Provider)
		return nil
	}

	sum := hc.summary
	renderTable(stdout, []string{"Hetzner Cloud", "Count"}, [][]string{
		{"networks", strconv.Itoa(sum.Networks)},
		{"subnets", strconv.Itoa(sum.Subnets)},
		{"routes", strconv.Itoa(sum.Routes)},
		{"unreachable routes", strconv.Itoa(sum.Unreachable)},
		{"unmapped resources", strconv.Itoa(sum.Unmapped)},
	})
	return nil
}

// Destroy rebuilds the plan and removes what apply provisioned, in reverse
// plan order. With the "plan" provider the deletions are only logged.
func Destroy(ctx context.Context, opts Options) error {
	s, err := newSession(opts)
	if err != nil {
		return err
	}

	applier, _ := s.applier()
	pctx := s.provisioningContext(ctx, provisioning.WithApplier(applier))
	if err := provisioning.RunPhases(pctx, destroy.Phases()); err != nil {
		return err
	}

	printTitle(stdout, "hubnet destroy: "+s.cfg.Name)
	fmt.Fprintf(stdout, "  %d stacks torn down (provider %s)\n", len(pctx.State.Plan.Steps), s.cfg.Backend.Provider)
	return nil
}
