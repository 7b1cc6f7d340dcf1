package nova

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn(t *testing.T) (*fakeNova, *Client) {
	t.Helper()
	f := newFakeNova(t)
	c := f.client(testUsername, testPassword)
	require.NoError(t, c.Login(context.Background()))
	return f, c
}

func TestFetchRequiresAuthentication(t *testing.T) {
	f := newFakeNova(t)
	c := f.client(testUsername, testPassword)
	ctx := context.Background()

	assert.ErrorIs(t, c.Fetch(ctx, ResourceProjects, nil), ErrAuthenticationRequired)
	assert.ErrorIs(t, c.FetchActivities(ctx, 7), ErrAuthenticationRequired)
	assert.ErrorIs(t, c.FetchProjectAssignments(ctx, 7), ErrAuthenticationRequired)
	assert.ErrorIs(t, c.FetchActivity(ctx, 7), ErrAuthenticationRequired)
	assert.ErrorIs(t, c.BuildInfo(ctx), ErrAuthenticationRequired)

	assert.Zero(t, f.hits.Load())
	assert.Equal(t, Unfetched, c.SnapshotState(ResourceProjects))
}

func TestFetchRejectsUnfetchableResource(t *testing.T) {
	_, c := loggedIn(t)
	require.Error(t, c.Fetch(context.Background(), ResourceCreateActivity, nil))
	require.Error(t, c.Fetch(context.Background(), Resource("nope"), nil))
}

func TestMaterializeBeforeFetch(t *testing.T) {
	_, c := loggedIn(t)

	_, err := c.Materialize(ResourceProjects)
	assert.ErrorIs(t, err, ErrResponseNotAvailable)

	_, err = c.Activities()
	assert.ErrorIs(t, err, ErrResponseNotAvailable)
}

func TestFetchThenMaterialize(t *testing.T) {
	_, c := loggedIn(t)
	ctx := context.Background()

	require.NoError(t, c.Fetch(ctx, ResourceActivityTypes, nil))
	assert.Equal(t, Fetched, c.SnapshotState(ResourceActivityTypes))
	snap, ok := c.Snapshot(ResourceActivityTypes)
	require.True(t, ok)
	assert.Nil(t, snap.Value())

	v, err := c.Materialize(ResourceActivityTypes)
	require.NoError(t, err)
	assert.Equal(t, Materialized, c.SnapshotState(ResourceActivityTypes))

	list, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	assert.Equal(t, json.Number("1"), first["id"])
	assert.Equal(t, "Development", first["name"])

	types, err := c.ActivityTypes()
	require.NoError(t, err)
	assert.Equal(t, []ActivityType{{ID: 1, Name: "Development"}, {ID: 2, Name: "Meetings"}}, types)
}

func TestRefetchReplacesSnapshot(t *testing.T) {
	_, c := loggedIn(t)
	ctx := context.Background()

	profileFetch := func() json.Number {
		t.Helper()
		v, err := c.Materialize(ResourceProfile)
		require.NoError(t, err)
		return v.(map[string]any)["fetch"].(json.Number)
	}
	assert.Equal(t, json.Number("1"), profileFetch())

	require.NoError(t, c.FetchProfile(ctx))
	assert.Equal(t, Fetched, c.SnapshotState(ResourceProfile))
	assert.Equal(t, json.Number("2"), profileFetch())
}

func TestFetchNonSuccessStatus(t *testing.T) {
	f, c := loggedIn(t)
	f.fail("/api/Projects")

	err := c.Fetch(context.Background(), ResourceProjects, nil)
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 500, serr.StatusCode)
	assert.Equal(t, ResourceProjects, serr.Resource)
	assert.Equal(t, "GET", serr.Method)

	// the failed response is kept but never materializes
	assert.Equal(t, Fetched, c.SnapshotState(ResourceProjects))
	_, err = c.Materialize(ResourceProjects)
	assert.ErrorAs(t, err, &serr)
}

func TestMaterializeUnexpectedShape(t *testing.T) {
	f := newFakeNova(t)
	ep := f.endpoints()
	ep.Technologies = f.srv.URL + "/api/broken"
	c, err := NewClient(testUsername, testPassword, Options{Endpoints: ep})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx))

	require.NoError(t, c.Fetch(ctx, ResourceTechnologies, nil))
	_, err = c.Materialize(ResourceTechnologies)
	assert.ErrorIs(t, err, ErrUnexpectedShape)
	assert.Equal(t, Fetched, c.SnapshotState(ResourceTechnologies))
}

func TestFetchActivitiesDefaultsToProfile(t *testing.T) {
	f, c := loggedIn(t)
	ctx := context.Background()
	mine := f.seedActivity(Activity{EmployeeID: testProfileID, ProjectID: 7, Value: 2})
	f.seedActivity(Activity{EmployeeID: 99, ProjectID: 7, Value: 4})

	require.NoError(t, c.FetchActivities(ctx, 0))
	acts, err := c.Activities()
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, mine, acts[0].ID)

	require.NoError(t, c.FetchActivities(ctx, 99))
	acts, err = c.Activities()
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, ID(99), acts[0].EmployeeID)
}

func TestFetchActivitiesWithoutProfile(t *testing.T) {
	f := newFakeNova(t)
	c := f.client(testUsername, testPassword)
	ctx := context.Background()
	require.NoError(t, c.PostLogin(ctx))
	require.NoError(t, c.Authorize(ctx))
	require.NoError(t, c.RequestToken(ctx))
	require.NoError(t, c.ParseToken())

	before := f.hits.Load()
	assert.ErrorIs(t, c.FetchActivities(ctx, 0), ErrEmployeeIDRequired)
	assert.ErrorIs(t, c.FetchProjectAssignments(ctx, 0), ErrEmployeeIDRequired)
	assert.Equal(t, before, f.hits.Load())
}

func TestFetchProjectAssignments(t *testing.T) {
	_, c := loggedIn(t)

	require.NoError(t, c.FetchProjectAssignments(context.Background(), 0))
	as, err := c.ProjectAssignments()
	require.NoError(t, err)
	require.Len(t, as, 1)
	assert.Equal(t, testProfileID, as[0].EmployeeID)
	require.NotNil(t, as[0].Project)
	require.NotNil(t, as[0].Project.Account)
	assert.Equal(t, "Acme", as[0].Project.Account.Name)
}

func TestFetchActivityNotFound(t *testing.T) {
	_, c := loggedIn(t)

	err := c.FetchActivity(context.Background(), 12345)
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 404, serr.StatusCode)
}

func TestBuildInfo(t *testing.T) {
	f, c := loggedIn(t)
	f.seedActivity(Activity{EmployeeID: testProfileID, ProjectID: 7})

	require.NoError(t, c.BuildInfo(context.Background()))
	for _, r := range append(buildInfoResources, ResourceActivities, ResourceProjectAssignments) {
		assert.Equal(t, Materialized, c.SnapshotState(r), r)
	}

	projects, err := c.Projects()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Nova", projects[0].Name)
	assert.Equal(t, ID(3), projects[0].AccountID)
}

func TestBuildInfoStopsAtFirstFailure(t *testing.T) {
	f, c := loggedIn(t)
	f.fail("/api/ProjectStatuses")

	var serr *StatusError
	require.ErrorAs(t, c.BuildInfo(context.Background()), &serr)
	assert.Equal(t, ResourceProjectStatuses, serr.Resource)
	assert.Equal(t, Materialized, c.SnapshotState(ResourceProjectTypes))
	assert.Equal(t, Unfetched, c.SnapshotState(ResourceActivityTypes))
}

func TestParseResource(t *testing.T) {
	r, err := ParseResource("activity_types")
	require.NoError(t, err)
	assert.Equal(t, ResourceActivityTypes, r)

	_, err = ParseResource("create_activity")
	assert.Error(t, err)
	_, err = ParseResource("login")
	assert.Error(t, err)

	names := ListResources()
	assert.Contains(t, names, ResourceProjects)
	assert.NotContains(t, names, ResourceProfile)
	assert.IsIncreasing(t, names)
}
