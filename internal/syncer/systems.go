package syncer

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"gorm.io/datatypes"

	"github.com/maintainly/fssync/internal/model"
	migmodel "github.com/maintainly/fssync/internal/syncer/model"
	"github.com/maintainly/fssync/internal/syncer/translator"
)

// DefaultAssetTypes are the asset type names whose assets become systems.
var DefaultAssetTypes = []string{"Server"}

// systemsInput is everything the systems stream reads from the SoR.
type systemsInput struct {
	assets   []migmodel.Asset
	types    []migmodel.AssetType
	software map[string][]string
}

func (o *Orchestrator) syncSystems(ctx context.Context) (StreamResult, error) {
	in, err := o.fetchSystems(ctx)
	if err != nil {
		return StreamResult{}, err
	}
	customers, err := o.store.ListCustomers(ctx)
	if err != nil {
		return StreamResult{}, err
	}
	local, err := o.store.ListSystems(ctx)
	if err != nil {
		return StreamResult{}, err
	}
	p := o.planSystems(in, NewCustomerLookup(customers), local)
	if err := o.store.ApplySystems(ctx, p.changes); err != nil {
		return p.result(StreamSystems), fmt.Errorf("apply systems: %w", err)
	}
	return o.finishStream(ctx, StreamSystems, p.result(StreamSystems), p.mark)
}

func (o *Orchestrator) fetchSystems(ctx context.Context) (systemsInput, error) {
	var in systemsInput
	var err error
	if in.types, err = o.source.ListAssetTypes(ctx); err != nil {
		return in, fmt.Errorf("list asset types: %w", err)
	}
	if in.assets, err = o.source.ListAssets(ctx); err != nil {
		return in, fmt.Errorf("list assets: %w", err)
	}
	if in.software, err = o.installedSoftware(ctx); err != nil {
		return in, err
	}
	return in, nil
}

// installedSoftware maps an asset display id to the sorted, de-duplicated
// names of the applications installed on it.
func (o *Orchestrator) installedSoftware(ctx context.Context) (map[string][]string, error) {
	apps, err := o.source.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	out := make(map[string][]string)
	for _, app := range apps {
		if ignoredApplication(app.Status) {
			continue
		}
		installs, err := o.source.ListApplicationInstallations(ctx, app.ID)
		if err != nil {
			return nil, fmt.Errorf("list installations of application %s: %w", app.ID, err)
		}
		for _, in := range installs {
			if in.MachineID == "" {
				continue
			}
			out[in.MachineID] = append(out[in.MachineID], app.Name)
		}
	}
	for machine, names := range out {
		sort.Strings(names)
		out[machine] = slices.Compact(names)
	}
	return out, nil
}

func ignoredApplication(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "ignored", "blacklisted":
		return true
	}
	return false
}

// relevantAssetTypes returns id -> name for the asset types named in names and
// all of their descendants. An empty names list selects every type.
func relevantAssetTypes(types []migmodel.AssetType, names []string) map[string]string {
	out := make(map[string]string, len(types))
	if len(names) == 0 {
		for _, t := range types {
			out[t.ID] = t.Name
		}
		return out
	}
	fold := cases.Fold()
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[fold.String(strings.TrimSpace(n))] = struct{}{}
	}
	for _, t := range types {
		if _, ok := wanted[fold.String(strings.TrimSpace(t.Name))]; ok {
			out[t.ID] = t.Name
		}
	}
	for grown := true; grown; {
		grown = false
		for _, t := range types {
			if _, done := out[t.ID]; done || t.ParentID == "" {
				continue
			}
			if _, ok := out[t.ParentID]; ok {
				out[t.ID] = t.Name
				grown = true
			}
		}
	}
	return out
}

func (o *Orchestrator) planSystems(in systemsInput, owners *CustomerLookup, local []model.System) *plan[model.System] {
	ix := newIndex(local, systemKey)
	types := relevantAssetTypes(in.types, o.assetTypes)
	p := newPlan[model.System]()
	now := o.now()
	for _, a := range in.assets {
		p.observe(a.UpdatedAt)
		if p.duplicate(a.ID) {
			continue
		}
		typeName, ok := types[a.AssetTypeID]
		if !ok {
			p.skip(a.ID, SkipFilteredType, false)
			continue
		}
		p.eligible++
		owner, ok := owners.Resolve([]string{a.DepartmentID}, nil)
		if !ok {
			o.logger.Debug("asset skipped, department not mapped",
				zap.String("asset", a.ID), zap.String("department", a.DepartmentID))
			p.skip(a.ID, SkipNoOwner, true)
			continue
		}
		machine := a.DisplayID
		if machine == "" {
			machine = a.ID
		}
		id, cur, ok := ix.Lookup(a.ID)
		if !ok {
			s := model.System{ID: o.newID(), ExternalID: strPtr(a.ID), CreatedAt: now, UpdatedAt: now}
			applyAsset(&s, a, owner, typeName, in.software[machine])
			p.insert(a.ID, s)
			continue
		}
		next := cur
		applyAsset(&next, a, owner, typeName, in.software[machine])
		p.update(a.ID, id, systemChanges(cur, next))
	}
	p.finish(ix)
	return p
}

func applyAsset(s *model.System, a migmodel.Asset, customerID, typeName string, software []string) {
	s.CustomerID = customerID
	s.Hostname = a.Name
	s.Description = a.Description
	s.IPAddress = a.IPAddress
	s.HardwareType = translator.HardwareType(a.ComputeType, typeName)
	s.OperatingSystem = translator.OperatingSystem(a.OSLabel)
	s.ServerApplicationType = translator.ServerApplicationType(a.RoleLabel)
	s.MaintenanceInterval = translator.MaintenanceInterval(a.MaintenanceLabel)
	s.InstalledSoftware = datatypes.JSONSlice[string](software)
}

func systemChanges(cur, next model.System) changes {
	c := changes{}
	setField(c, "customer_id", cur.CustomerID, next.CustomerID)
	setField(c, "hostname", cur.Hostname, next.Hostname)
	setField(c, "description", cur.Description, next.Description)
	setField(c, "ip_address", cur.IPAddress, next.IPAddress)
	setField(c, "hardware_type", cur.HardwareType, next.HardwareType)
	setField(c, "operating_system", cur.OperatingSystem, next.OperatingSystem)
	setField(c, "server_application_type", cur.ServerApplicationType, next.ServerApplicationType)
	setField(c, "maintenance_interval", cur.MaintenanceInterval, next.MaintenanceInterval)
	setList(c, "installed_software", cur.InstalledSoftware, next.InstalledSoftware)
	return c
}
