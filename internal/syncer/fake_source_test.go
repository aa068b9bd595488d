package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maintainly/fssync/internal/store"
	migmodel "github.com/maintainly/fssync/internal/syncer/model"
)

// fakeSource serves fixed SoR data. failOn and panicOn name a method that
// returns an error or panics.
type fakeSource struct {
	departments []migmodel.Department
	agents      []migmodel.Agent
	requesters  []migmodel.Requester
	assets      []migmodel.Asset
	assetTypes  []migmodel.AssetType
	apps        []migmodel.Application
	installs    map[string][]migmodel.Installation

	failOn  string
	panicOn string
}

func (f *fakeSource) check(method string) error {
	if f.panicOn == method {
		panic("boom in " + method)
	}
	if f.failOn == method {
		return fmt.Errorf("%s: 503 service unavailable", method)
	}
	return nil
}

func (f *fakeSource) ListDepartments(ctx context.Context) ([]migmodel.Department, error) {
	return f.departments, f.check("ListDepartments")
}

func (f *fakeSource) ListAgents(ctx context.Context) ([]migmodel.Agent, error) {
	return f.agents, f.check("ListAgents")
}

func (f *fakeSource) ListRequesters(ctx context.Context) ([]migmodel.Requester, error) {
	return f.requesters, f.check("ListRequesters")
}

func (f *fakeSource) ListAssets(ctx context.Context) ([]migmodel.Asset, error) {
	return f.assets, f.check("ListAssets")
}

func (f *fakeSource) ListAssetTypes(ctx context.Context) ([]migmodel.AssetType, error) {
	return f.assetTypes, f.check("ListAssetTypes")
}

func (f *fakeSource) ListApplications(ctx context.Context) ([]migmodel.Application, error) {
	return f.apps, f.check("ListApplications")
}

func (f *fakeSource) ListApplicationInstallations(ctx context.Context, applicationID string) ([]migmodel.Installation, error) {
	return f.installs[applicationID], f.check("ListApplicationInstallations")
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestStore(t *testing.T) *store.GormStore {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestOrchestrator(t *testing.T, src *fakeSource) (*Orchestrator, *store.GormStore) {
	t.Helper()
	st := newTestStore(t)
	n := 0
	o := NewOrchestrator(src, st,
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("local-%03d", n) }),
	)
	return o, st
}

// serverTypes is an asset type tree with one relevant branch.
func serverTypes() []migmodel.AssetType {
	return []migmodel.AssetType{
		{ID: "1", Name: "Hardware"},
		{ID: "2", Name: "Server", ParentID: "1"},
		{ID: "3", Name: "Virtual Server", ParentID: "2"},
		{ID: "4", Name: "Laptop", ParentID: "1"},
	}
}
