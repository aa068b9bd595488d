package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	migmodel "github.com/maintainly/fssync/internal/syncer/model"
)

// TechniciansKey is the settings key holding the technician name list.
const TechniciansKey = "technicians"

// technicianNames returns the de-duplicated display names of active agents.
func technicianNames(agents []migmodel.Agent) []string {
	seen := make(map[string]struct{}, len(agents))
	var out []string
	for _, a := range agents {
		if !a.Active {
			continue
		}
		name := displayName(a.FirstName, a.LastName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// MergeTechnicians adds names to a JSON array of names. Existing entries are
// never removed, so manually curated names survive every run.
func MergeTechnicians(current string, names []string) (string, error) {
	var list []string
	if current != "" {
		if err := json.Unmarshal([]byte(current), &list); err != nil {
			return "", fmt.Errorf("decode %s setting: %w", TechniciansKey, err)
		}
	}
	have := make(map[string]struct{}, len(list)+len(names))
	merged := make([]string, 0, len(list)+len(names))
	for _, n := range append(list, names...) {
		if _, ok := have[n]; ok {
			continue
		}
		have[n] = struct{}{}
		merged = append(merged, n)
	}
	sort.Strings(merged)
	b, err := json.Marshal(merged)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (o *Orchestrator) mergeTechnicians(ctx context.Context, agents []migmodel.Agent) error {
	names := technicianNames(agents)
	v, err := o.store.UpdateSetting(ctx, TechniciansKey, func(current string) (string, error) {
		return MergeTechnicians(current, names)
	})
	if err != nil {
		return err
	}
	o.logger.Debug("technicians merged", zap.Int("active_agents", len(names)), zap.Int("bytes", len(v)))
	return nil
}
