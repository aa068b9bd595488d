package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintainly/fssync/internal/model"
	"github.com/maintainly/fssync/internal/store"
	migmodel "github.com/maintainly/fssync/internal/syncer/model"
)

func acmeSource() *fakeSource {
	return &fakeSource{
		departments: []migmodel.Department{
			{ID: "D1", Name: "Acme Corp", City: "Vienna", UpdatedAt: ts("2024-01-01T00:00:00Z")},
			{ID: "D2", Name: "Beta GmbH", ShortCode: "BETA", SLA: true, UpdatedAt: ts("2024-02-01T00:00:00Z")},
		},
		assetTypes: serverTypes(),
		assets: []migmodel.Asset{
			{ID: "A1", DisplayID: "17", Name: "dc01", AssetTypeID: "3", DepartmentID: "D1", OSLabel: "Windows Server 2022 Standard",
				RoleLabel: "Domänencontroller", ComputeType: "virtual", MaintenanceLabel: "monatlich", UpdatedAt: ts("2024-03-01T00:00:00Z")},
			{ID: "A2", DisplayID: "18", Name: "fs01", AssetTypeID: "2", DepartmentID: "D2", OSLabel: "Debian 12", RoleLabel: "Fileserver",
				UpdatedAt: ts("2024-03-02T00:00:00Z")},
			{ID: "A3", DisplayID: "19", Name: "laptop-7", AssetTypeID: "4", DepartmentID: "D1", UpdatedAt: ts("2024-03-03T00:00:00Z")},
		},
		apps: []migmodel.Application{
			{ID: "P1", Name: "Veeam Agent", Status: "managed"},
			{ID: "P2", Name: "AD DS", Status: "managed"},
			{ID: "P3", Name: "Old Toolbar", Status: "ignored"},
		},
		installs: map[string][]migmodel.Installation{
			"P1": {{ID: "i1", MachineID: "17"}, {ID: "i2", MachineID: "18"}},
			"P2": {{ID: "i3", MachineID: "17"}, {ID: "i4", MachineID: "17"}},
			"P3": {{ID: "i5", MachineID: "17"}},
		},
		agents: []migmodel.Agent{
			{ID: "5", FirstName: "Ada", LastName: "Lovelace", Email: "ada@msp.example", WorkPhone: "+43 1 555", DepartmentIDs: []string{"D1"},
				Active: true, UpdatedAt: ts("2024-04-01T00:00:00Z")},
			{ID: "6", FirstName: "Bob", LastName: "Old", DepartmentIDs: []string{"D2"}, Active: false, UpdatedAt: ts("2024-04-02T00:00:00Z")},
		},
		requesters: []migmodel.Requester{
			{ID: "100", FirstName: "Clara", LastName: "Contact", Email: "clara@acme.example", DepartmentNames: []string{"ACME corp"},
				IsContactPerson: true, UpdatedAt: ts("2024-05-01T00:00:00Z")},
			{ID: "101", FirstName: "Nora", LastName: "Nobody", DepartmentIDs: []string{"D1"}, IsContactPerson: false,
				UpdatedAt: ts("2024-05-02T00:00:00Z")},
		},
	}
}

func customerByExternal(t *testing.T, st *store.GormStore, ext string) model.Customer {
	t.Helper()
	rows, err := st.ListCustomers(context.Background())
	require.NoError(t, err)
	for _, c := range rows {
		if c.ExternalID != nil && *c.ExternalID == ext {
			return c
		}
	}
	t.Fatalf("no customer with external id %s", ext)
	return model.Customer{}
}

func TestNewDepartmentCreatesCustomer(t *testing.T) {
	src := &fakeSource{departments: []migmodel.Department{
		{ID: "D1", Name: "Acme Corp", UpdatedAt: ts("2024-01-01T00:00:00Z")},
	}}
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()

	res, err := o.RunStream(ctx, StreamCustomers)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	c := customerByExternal(t, st, "D1")
	assert.Equal(t, "Acme Corp", c.Name)
	assert.Equal(t, "FS-D1", c.Abbreviation)
	assert.True(t, c.CreatedAt.Equal(testNow))

	mark, err := st.GetCursor(ctx, StreamCustomers)
	require.NoError(t, err)
	require.NotNil(t, mark)
	assert.True(t, mark.Equal(ts("2024-01-01T00:00:00Z")))
}

func TestChangedCityPatchesOnlyCity(t *testing.T) {
	src := &fakeSource{departments: []migmodel.Department{
		{ID: "D1", Name: "Acme Corp", City: "Vienna", UpdatedAt: ts("2024-01-01T00:00:00Z")},
	}}
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()
	_, err := o.RunStream(ctx, StreamCustomers)
	require.NoError(t, err)

	src.departments[0].City = "Graz"
	local, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	p := o.planCustomers(src.departments, local, nil)
	require.Len(t, p.changes.Updates, 1)
	assert.Equal(t, map[string]any{"city": "Graz"}, p.changes.Updates[0].Fields)
	assert.Empty(t, p.changes.Inserts)
	assert.Empty(t, p.changes.Deletes)

	res, err := o.RunStream(ctx, StreamCustomers)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	c := customerByExternal(t, st, "D1")
	assert.Equal(t, "Graz", c.City)
	assert.Equal(t, "Acme Corp", c.Name)
}

func TestFullSyncBuildsEverything(t *testing.T) {
	o, st := newTestOrchestrator(t, acmeSource())
	ctx := context.Background()

	rep := o.RunFullSync(ctx)
	require.True(t, rep.OK, "%+v", rep)
	require.Len(t, rep.PerStream, 4)
	assert.Equal(t, []string{StreamCustomers, StreamSystems, StreamRequesters, StreamAgents},
		[]string{rep.PerStream[0].Stream, rep.PerStream[1].Stream, rep.PerStream[2].Stream, rep.PerStream[3].Stream})

	beta := customerByExternal(t, st, "D2")
	assert.Equal(t, "BETA", beta.Abbreviation)
	assert.True(t, beta.SLA)

	systems, err := st.ListSystems(ctx)
	require.NoError(t, err)
	require.Len(t, systems, 2, "laptop must be filtered out")
	byHost := map[string]model.System{}
	for _, s := range systems {
		byHost[s.Hostname] = s
	}
	dc := byHost["dc01"]
	assert.Equal(t, customerByExternal(t, st, "D1").ID, dc.CustomerID)
	assert.Equal(t, model.HardwareVirtual, dc.HardwareType)
	assert.Equal(t, model.OSWindowsServer2022, dc.OperatingSystem)
	assert.Equal(t, model.RoleDomain, dc.ServerApplicationType)
	assert.Equal(t, model.IntervalMonthly, dc.MaintenanceInterval)
	assert.Equal(t, []string{"AD DS", "Veeam Agent"}, []string(dc.InstalledSoftware))
	fs := byHost["fs01"]
	assert.Equal(t, model.HardwarePhysical, fs.HardwareType)
	assert.Equal(t, model.OSDebian12, fs.OperatingSystem)
	assert.Equal(t, model.RoleFile, fs.ServerApplicationType)

	requesters, err := st.ListContacts(ctx, model.SourceRequester)
	require.NoError(t, err)
	require.Len(t, requesters, 1)
	assert.Equal(t, "Clara Contact", requesters[0].Name)
	assert.Equal(t, customerByExternal(t, st, "D1").ID, requesters[0].CustomerID, "resolved by department name")

	agents, err := st.ListContacts(ctx, model.SourceAgent)
	require.NoError(t, err)
	assert.Len(t, agents, 2)

	techs, err := st.GetSetting(ctx, TechniciansKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["Ada Lovelace"]`, techs)

	cursors, err := st.ListCursors(ctx)
	require.NoError(t, err)
	assert.Len(t, cursors, 4)
}

func TestSecondRunIsIdempotent(t *testing.T) {
	o, _ := newTestOrchestrator(t, acmeSource())
	ctx := context.Background()
	require.True(t, o.RunFullSync(ctx).OK)

	rep := o.RunFullSync(ctx)
	require.True(t, rep.OK)
	for _, sr := range rep.PerStream {
		require.NotNil(t, sr.Counts, sr.Stream)
		assert.Zero(t, sr.Counts.Inserted, sr.Stream)
		assert.Zero(t, sr.Counts.Updated, sr.Stream)
		assert.Zero(t, sr.Counts.Deleted, sr.Stream)
	}
}

func TestMissingAssetDeletesSystem(t *testing.T) {
	src := acmeSource()
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()
	require.True(t, o.RunFullSync(ctx).OK)

	src.assets = src.assets[1:] // A1 disappears
	res, err := o.RunStream(ctx, StreamSystems)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	systems, err := st.ListSystems(ctx)
	require.NoError(t, err)
	require.Len(t, systems, 1)
	assert.Equal(t, "A2", *systems[0].ExternalID)
}

func TestAssetWithUnknownDepartmentIsSkipped(t *testing.T) {
	src := acmeSource()
	src.assets = []migmodel.Asset{{ID: "A9", Name: "orphan", AssetTypeID: "2", DepartmentID: "D99"}}
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()

	rep := o.RunFullSync(ctx)
	assert.True(t, rep.OK)
	assert.True(t, rep.PerStream[1].OK)
	assert.Equal(t, 1, rep.PerStream[1].Counts.Skipped)

	systems, err := st.ListSystems(ctx)
	require.NoError(t, err)
	assert.Empty(t, systems)

	customers, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	p := o.planSystems(systemsInput{assets: src.assets, types: src.assetTypes}, NewCustomerLookup(customers), nil)
	assert.Equal(t, []Decision{{ExternalID: "A9", Action: ActionSkip, Reason: SkipNoOwner}}, p.decisions)
}

func TestOwnerSkipKeepsExistingRow(t *testing.T) {
	src := acmeSource()
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()
	require.True(t, o.RunFullSync(ctx).OK)

	src.assets[1].DepartmentID = "D99"
	res, err := o.RunStream(ctx, StreamSystems)
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)
	assert.Equal(t, 2, res.Skipped, "laptop and unmapped server")

	systems, err := st.ListSystems(ctx)
	require.NoError(t, err)
	assert.Len(t, systems, 2)
}

func TestIneligibleRequesterNeverTouchesAgentContact(t *testing.T) {
	src := acmeSource()
	// the requester id collides with agent 5
	src.requesters = []migmodel.Requester{
		{ID: "5", FirstName: "Not", LastName: "Eligible", DepartmentIDs: []string{"D1"}, IsContactPerson: false},
	}
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()
	require.True(t, o.RunFullSync(ctx).OK)

	res, err := o.RunStream(ctx, StreamRequesters)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fetched)
	assert.Zero(t, res.Eligible)
	assert.Zero(t, res.Inserted+res.Updated+res.Deleted)

	requesters, err := st.ListContacts(ctx, model.SourceRequester)
	require.NoError(t, err)
	assert.Empty(t, requesters)

	agents, err := st.ListContacts(ctx, model.SourceAgent)
	require.NoError(t, err)
	var ada *model.ContactPerson
	for i := range agents {
		if *agents[i].ExternalID == "5" {
			ada = &agents[i]
		}
	}
	require.NotNil(t, ada)
	assert.Equal(t, "Ada Lovelace", ada.Name)
}

func TestRequesterLosingEligibilityIsDeleted(t *testing.T) {
	src := acmeSource()
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()
	require.True(t, o.RunFullSync(ctx).OK)

	src.requesters[0].IsContactPerson = false
	res, err := o.RunStream(ctx, StreamRequesters)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	requesters, err := st.ListContacts(ctx, model.SourceRequester)
	require.NoError(t, err)
	assert.Empty(t, requesters)
}

func TestManualRowsSurviveEmptySoR(t *testing.T) {
	src := acmeSource()
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()
	require.True(t, o.RunFullSync(ctx).OK)

	manual := model.Customer{ID: "manual-c", Name: "Walk-in Customer", Abbreviation: "WALK"}
	require.NoError(t, st.ApplyCustomers(ctx, store.ChangeSet[model.Customer]{Inserts: []model.Customer{manual}}))
	require.NoError(t, st.ApplySystems(ctx, store.ChangeSet[model.System]{Inserts: []model.System{{
		ID: "manual-s", CustomerID: "manual-c", Hostname: "nas", HardwareType: model.HardwarePhysical,
		OperatingSystem: model.OSOther, ServerApplicationType: model.RoleNone, MaintenanceInterval: model.IntervalNone,
	}}}))
	require.NoError(t, st.ApplyContacts(ctx, store.ChangeSet[model.ContactPerson]{Inserts: []model.ContactPerson{{
		ID: "manual-p", Source: model.SourceManual, CustomerID: "manual-c", Name: "Front Desk",
	}}}))

	empty := &fakeSource{}
	o.source = empty
	rep := o.RunFullSync(ctx)
	require.True(t, rep.OK, "%+v", rep)

	customers, _ := st.ListCustomers(ctx)
	require.Len(t, customers, 1)
	assert.Equal(t, "manual-c", customers[0].ID)
	systems, _ := st.ListSystems(ctx)
	require.Len(t, systems, 1)
	assert.Equal(t, "manual-s", systems[0].ID)
	contacts, _ := st.ListContacts(ctx, "")
	require.Len(t, contacts, 1)
	assert.Equal(t, "manual-p", contacts[0].ID)
}

func TestManualRowsUnderSyncedCustomerSurvive(t *testing.T) {
	src := acmeSource()
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()
	require.True(t, o.RunFullSync(ctx).OK)

	acme := customerByExternal(t, st, "D1")
	require.NoError(t, st.ApplySystems(ctx, store.ChangeSet[model.System]{Inserts: []model.System{{
		ID: "manual-s", CustomerID: acme.ID, Hostname: "nas", HardwareType: model.HardwarePhysical,
		OperatingSystem: model.OSOther, ServerApplicationType: model.RoleNone, MaintenanceInterval: model.IntervalNone,
	}}}))
	require.NoError(t, st.ApplyContacts(ctx, store.ChangeSet[model.ContactPerson]{Inserts: []model.ContactPerson{{
		ID: "manual-p", Source: model.SourceManual, CustomerID: acme.ID, Name: "Front Desk",
	}}}))

	src.departments = nil
	rep := o.RunFullSync(ctx)
	require.True(t, rep.OK, "%+v", rep)
	counts := rep.PerStream[0].Counts
	require.NotNil(t, counts)
	assert.Equal(t, 1, counts.Deleted, "Beta owns no manual rows")
	assert.Equal(t, 1, counts.Skipped)

	customers, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, acme.ID, customers[0].ID)

	systems, _ := st.ListSystems(ctx)
	ids := map[string]bool{}
	for _, s := range systems {
		ids[s.ID] = true
	}
	assert.True(t, ids["manual-s"], "manual system must survive")
	manual, _ := st.ListContacts(ctx, model.SourceManual)
	require.Len(t, manual, 1)
	assert.Equal(t, "manual-p", manual[0].ID)

	local, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	owners, err := st.ListManualOwners(ctx)
	require.NoError(t, err)
	p := o.planCustomers(nil, local, owners)
	assert.Empty(t, p.changes.Deletes)
	assert.Equal(t, []Decision{{ExternalID: "D1", Action: ActionSkip, Reason: SkipManualRows}}, p.decisions)
}

func TestDerivedAbbreviationDoesNotCollide(t *testing.T) {
	src := &fakeSource{departments: []migmodel.Department{
		{ID: "D1", Name: "Acme Corp", ShortCode: "FS-D2", UpdatedAt: ts("2024-01-01T00:00:00Z")},
		{ID: "D2", Name: "Beta GmbH", UpdatedAt: ts("2024-01-02T00:00:00Z")},
	}}
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()

	res, err := o.RunStream(ctx, StreamCustomers)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, "FS-D2", customerByExternal(t, st, "D1").Abbreviation)
	assert.Equal(t, "FS-D2-2", customerByExternal(t, st, "D2").Abbreviation)

	res, err = o.RunStream(ctx, StreamCustomers)
	require.NoError(t, err)
	assert.Zero(t, res.Updated, "suffixed code is stable across runs")

	// a hand-made customer already holding the derived code of a new department
	require.NoError(t, st.ApplyCustomers(ctx, store.ChangeSet[model.Customer]{Inserts: []model.Customer{
		{ID: "manual-c", Name: "Walk-in", Abbreviation: "FS-D3"},
	}}))
	src.departments = append(src.departments, migmodel.Department{ID: "D3", Name: "Gamma", UpdatedAt: ts("2024-01-03T00:00:00Z")})
	_, err = o.RunStream(ctx, StreamCustomers)
	require.NoError(t, err)
	assert.Equal(t, "FS-D3-2", customerByExternal(t, st, "D3").Abbreviation)
}

func TestRepeatedSkippedRecordsCountOnce(t *testing.T) {
	src := acmeSource()
	// laptop-7 has a filtered type and Nora is ineligible; both are listed twice
	src.assets = append(src.assets, src.assets[2])
	src.requesters = append(src.requesters, src.requesters[1])
	o, _ := newTestOrchestrator(t, src)
	ctx := context.Background()
	_, err := o.RunStream(ctx, StreamCustomers)
	require.NoError(t, err)

	res, err := o.RunStream(ctx, StreamSystems)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Inserted)

	res, err = o.RunStream(ctx, StreamRequesters)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Inserted)
}

func TestFailingStreamDoesNotStopRun(t *testing.T) {
	src := acmeSource()
	src.failOn = "ListAssets"
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()

	rep := o.RunFullSync(ctx)
	assert.False(t, rep.OK)
	require.Len(t, rep.PerStream, 4)
	assert.True(t, rep.PerStream[0].OK)
	assert.False(t, rep.PerStream[1].OK)
	assert.Contains(t, rep.PerStream[1].Error, "list assets")
	assert.Nil(t, rep.PerStream[1].Counts)
	assert.True(t, rep.PerStream[2].OK)
	assert.True(t, rep.PerStream[3].OK)

	mark, err := st.GetCursor(ctx, StreamSystems)
	require.NoError(t, err)
	assert.Nil(t, mark, "failed stream must not advance its cursor")
}

func TestPanickingStreamIsRecovered(t *testing.T) {
	src := acmeSource()
	src.panicOn = "ListRequesters"
	o, _ := newTestOrchestrator(t, src)

	rep := o.RunFullSync(context.Background())
	assert.False(t, rep.OK)
	assert.False(t, rep.PerStream[2].OK)
	assert.Contains(t, rep.PerStream[2].Error, "panicked")
	assert.True(t, rep.PerStream[3].OK)
}

func TestTechniciansAreMergedNotReplaced(t *testing.T) {
	src := acmeSource()
	o, st := newTestOrchestrator(t, src)
	ctx := context.Background()
	_, err := st.UpdateSetting(ctx, TechniciansKey, func(string) (string, error) {
		return `["Zed Manual","Ada Lovelace"]`, nil
	})
	require.NoError(t, err)
	require.True(t, o.RunFullSync(ctx).OK)

	src.agents[1].Active = true
	src.agents = src.agents[1:] // Ada leaves the SoR
	_, err = o.RunStream(ctx, StreamAgents)
	require.NoError(t, err)

	techs, err := st.GetSetting(ctx, TechniciansKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["Ada Lovelace","Bob Old","Zed Manual"]`, techs)
}

func TestRunStreamRejectsUnknownName(t *testing.T) {
	o, _ := newTestOrchestrator(t, &fakeSource{})
	_, err := o.RunStream(context.Background(), "tickets")
	assert.True(t, errors.Is(err, ErrUnknownStream))
}
