package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/imamik/hubnet/internal/provisioning"
	"github.com/imamik/hubnet/internal/stack"
)

// Units discovers and constructs the present units and lists them with the
// number of resources each declared.
func Units(ctx context.Context, opts Options) error {
	s, err := newSession(opts)
	if err != nil {
		return err
	}

	pctx := s.provisioningContext(ctx)
	phases := []provisioning.Phase{provisioning.NewValidationPhase(), provisioning.NewLoadPhase()}
	if err := provisioning.RunPhases(pctx, phases); err != nil {
		return err
	}

	reg := pctx.State.Registry
	printTitle(stdout, "hubnet units: "+s.cfg.Name)
	if reg.Len() == 0 {
		fmt.Fprintln(stdout, dimStyle.Render("  no units found in "+s.cfg.UnitsDir))
		return nil
	}

	rows := make([][]string, 0, reg.Len())
	for id, u := range reg.All() {
		_, links := u.(stack.Linker)
		rows = append(rows, []string{
			id,
			strings.TrimPrefix(fmt.Sprintf("%T", u), "*"),
			strconv.Itoa(len(pctx.App.Graph.Stack(id).Resources())),
			strconv.FormatBool(links),
		})
	}
	renderTable(stdout, []string{"Unit", "Type", "Resources", "Link hook"}, rows)
	return nil
}
