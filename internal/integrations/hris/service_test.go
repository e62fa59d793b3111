package hris

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"siap/internal/testutil"
	"siap/pkg/roles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSource []Employee

func (s staticSource) Fetch(ctx context.Context) ([]Employee, error) {
	return s, nil
}

func email(v string) *string {
	return &v
}

func TestSyncUpsertsAndDeactivates(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddUser(1, roles.Admin, true)
	kept := store.AddExternalUser(10, "E-10", roles.Employee, true)
	gone := store.AddExternalUser(11, "E-11", roles.Manager, true)

	feed := staticSource{
		{ExternalID: "E-10", Username: kept.Username, Fullname: "Kept Person", Role: roles.Manager, Active: true},
		{ExternalID: "E-20", Username: "newcomer", Fullname: "New Comer", Email: email("new@corp.test"), Active: true},
	}

	service := NewSyncService(store, feed, zap.NewNop())
	report, err := service.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Deactivated)

	promoted := store.User(kept.ID)
	assert.Equal(t, roles.Manager, promoted.Role)
	assert.Equal(t, "Kept Person", promoted.Fullname)
	assert.Equal(t, kept.TokenVersion+1, promoted.TokenVersion, "role change revokes tokens")

	deactivated := store.User(gone.ID)
	assert.False(t, deactivated.IsActive)
	assert.Equal(t, gone.TokenVersion+1, deactivated.TokenVersion)

	active, version, err := store.GetSessionState(context.Background(), gone.ID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, deactivated.TokenVersion, version)

	created, ok := store.UserByUsername("newcomer")
	require.True(t, ok)
	assert.Equal(t, roles.Employee, created.Role)
	assert.True(t, created.IsActive)
	assert.NotEmpty(t, created.PasswordHash)

	local := store.User(1)
	assert.True(t, local.IsActive, "users without external_id are left alone")
}

func TestSyncIsIdempotent(t *testing.T) {
	store := testutil.NewMemStore()
	user := store.AddExternalUser(10, "E-10", roles.Employee, true)
	feed := staticSource{{ExternalID: "E-10", Username: user.Username, Role: roles.Employee, Active: true}}
	service := NewSyncService(store, feed, zap.NewNop())

	_, err := service.Run(context.Background())
	require.NoError(t, err)
	report, err := service.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Unchanged)
	assert.Equal(t, 0, report.Updated+report.Created+report.Deactivated)
	assert.Equal(t, user.TokenVersion, store.User(user.ID).TokenVersion)
}

func TestSyncInactiveFlagDeactivates(t *testing.T) {
	store := testutil.NewMemStore()
	user := store.AddExternalUser(10, "E-10", roles.Employee, true)
	feed := staticSource{{ExternalID: "E-10", Username: user.Username, Role: roles.Employee, Active: false}}

	report, err := NewSyncService(store, feed, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Deactivated)
	assert.False(t, store.User(user.ID).IsActive)
	assert.Equal(t, user.TokenVersion+1, store.User(user.ID).TokenVersion)
}

func TestSyncSkipsInvalidRows(t *testing.T) {
	store := testutil.NewMemStore()
	feed := staticSource{
		{ExternalID: "", Username: "nobody"},
		{ExternalID: "E-1", Username: "chief", Role: "ceo"},
		{ExternalID: "E-2", Username: "ok"},
		{ExternalID: "E-2", Username: "again"},
	}

	report, err := NewSyncService(store, feed, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Len(t, report.Skipped, 3)
}

func TestSyncRollsBackOnStoreFailure(t *testing.T) {
	store := testutil.NewMemStore()
	user := store.AddExternalUser(10, "E-10", roles.Employee, true)
	store.FailOn("InsertExternalUser", errors.New("disk full"))

	feed := staticSource{
		{ExternalID: "E-10", Username: user.Username, Fullname: "Renamed", Role: roles.Employee, Active: true},
		{ExternalID: "E-30", Username: "late", Role: roles.Employee, Active: true},
	}
	_, err := NewSyncService(store, feed, zap.NewNop()).Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, "", store.User(user.ID).Fullname)
	_, ok := store.UserByUsername("late")
	assert.False(t, ok)
}

func TestParseCSV(t *testing.T) {
	input := "external_id,username,fullname,email,role,active\n" +
		"E-1,alice,Alice A,alice@corp.test,manager,true\n" +
		"E-2,bob,Bob B,,,false\n"

	employees, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, employees, 2)

	assert.Equal(t, roles.Manager, employees[0].Role)
	require.NotNil(t, employees[0].Email)
	assert.Equal(t, "alice@corp.test", *employees[0].Email)
	assert.Nil(t, employees[1].Email)
	assert.False(t, employees[1].Active)

	_, err = ParseCSV(strings.NewReader("username\nalice\n"))
	assert.Error(t, err)

	_, err = ParseCSV(strings.NewReader("external_id,username,active\nE-1,a,maybe\n"))
	assert.Error(t, err)
}

func TestClientFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/employees", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"employees":[{"external_id":"E-1","username":"alice","role":"admin","active":true}]}`))
	}))
	defer server.Close()

	employees, err := NewClient(server.URL+"/", "secret", server.Client()).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, roles.Admin, employees[0].Role)
}

func TestClientFetchReportsFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", server.Client()).Fetch(context.Background())
	assert.Error(t, err)
}
