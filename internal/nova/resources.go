package nova

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const (
	activitiesFilter  = `{"where":{"employeeId": %d}}`
	assignmentsFilter = `{"where":{"employeeId":"%d"},"include":{"project":"account"}}`
)

// Fetch issues a GET for r and keeps the raw response. query may be nil. A
// non-2xx response is kept as well and returned as a *StatusError.
func (c *Client) Fetch(ctx context.Context, r Resource, query url.Values) error {
	spec, ok := resources[r]
	if !ok || spec.endpoint == nil {
		return fmt.Errorf("fetching %s: resource cannot be fetched directly", r)
	}
	if err := c.requireAuth("fetching " + string(r)); err != nil {
		return err
	}
	_, err := c.store(ctx, r, http.MethodGet, spec.endpoint(c.endpoints), query, nil)
	return err
}

// Materialize decodes the kept response for r and returns the generic JSON
// value. It fails with ErrResponseNotAvailable when r was never fetched.
func (c *Client) Materialize(r Resource) (any, error) {
	snap, ok := c.snapshots[r]
	if !ok {
		return nil, fmt.Errorf("materializing %s: %w", r, ErrResponseNotAvailable)
	}
	if err := snap.materialize(); err != nil {
		return nil, fmt.Errorf("materializing %s: %w", r, err)
	}
	return snap.value, nil
}

// Decode materializes r and unmarshals its body into v.
func (c *Client) Decode(r Resource, v any) error {
	if _, err := c.Materialize(r); err != nil {
		return err
	}
	if err := json.Unmarshal(c.snapshots[r].Body, v); err != nil {
		return fmt.Errorf("parsing %s response: %w", r, err)
	}
	return nil
}

func (c *Client) employeeID(explicit ID) (ID, error) {
	if explicit != 0 {
		return explicit, nil
	}
	if c.profileID != 0 {
		return c.profileID, nil
	}
	return 0, ErrEmployeeIDRequired
}

// FetchActivities requests the activities of one employee. A zero
// employeeID means the logged-in user.
func (c *Client) FetchActivities(ctx context.Context, employeeID ID) error {
	if err := c.requireAuth("fetching activities"); err != nil {
		return err
	}
	id, err := c.employeeID(employeeID)
	if err != nil {
		return fmt.Errorf("fetching activities: %w", err)
	}
	q := url.Values{"filter": {fmt.Sprintf(activitiesFilter, id)}}
	_, err = c.store(ctx, ResourceActivities, http.MethodGet, c.endpoints.Activities, q, nil)
	return err
}

// FetchProjectAssignments requests the project assignments of one employee,
// including each project and its account. A zero employeeID means the
// logged-in user.
func (c *Client) FetchProjectAssignments(ctx context.Context, employeeID ID) error {
	if err := c.requireAuth("fetching project assignments"); err != nil {
		return err
	}
	id, err := c.employeeID(employeeID)
	if err != nil {
		return fmt.Errorf("fetching project assignments: %w", err)
	}
	q := url.Values{"filter": {fmt.Sprintf(assignmentsFilter, id)}}
	_, err = c.store(ctx, ResourceProjectAssignments, http.MethodGet, c.endpoints.ProjectAssignments, q, nil)
	return err
}

// FetchActivity requests a single activity by id.
func (c *Client) FetchActivity(ctx context.Context, id ID) error {
	if id <= 0 {
		return fmt.Errorf("fetching activity: activity id is required: %w", ErrInsufficientArguments)
	}
	if err := c.requireAuth("fetching activity"); err != nil {
		return err
	}
	_, err := c.store(ctx, ResourceActivity, http.MethodGet, c.activityURL(id), nil, nil)
	return err
}

func (c *Client) activityURL(id ID) string {
	return c.endpoints.Activities + "/" + id.String()
}

func (c *Client) Activities() ([]Activity, error) {
	var out []Activity
	if err := c.Decode(ResourceActivities, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Activity() (*Activity, error) {
	var a Activity
	if err := c.Decode(ResourceActivity, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) ProjectAssignments() ([]ProjectAssignment, error) {
	var out []ProjectAssignment
	if err := c.Decode(ResourceProjectAssignments, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ActivityTypes() ([]ActivityType, error) {
	var out []ActivityType
	if err := c.Decode(ResourceActivityTypes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Projects() ([]Project, error) {
	var out []Project
	if err := c.Decode(ResourceProjects, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var buildInfoResources = []Resource{
	ResourceProjectTypes,
	ResourceProjectStatuses,
	ResourceActivityTypes,
	ResourceUsers,
	ResourceAccounts,
	ResourceProjects,
	ResourceTechnologies,
	ResourceEmployeeTypes,
}

// BuildInfo fetches and materializes the reference lists plus the logged-in
// user's activities and project assignments, stopping at the first error.
func (c *Client) BuildInfo(ctx context.Context) error {
	for _, r := range buildInfoResources {
		if err := c.Fetch(ctx, r, nil); err != nil {
			return fmt.Errorf("building info: %w", err)
		}
		if _, err := c.Materialize(r); err != nil {
			return fmt.Errorf("building info: %w", err)
		}
	}

	if err := c.FetchActivities(ctx, 0); err != nil {
		return fmt.Errorf("building info: %w", err)
	}
	if _, err := c.Materialize(ResourceActivities); err != nil {
		return fmt.Errorf("building info: %w", err)
	}

	if err := c.FetchProjectAssignments(ctx, 0); err != nil {
		return fmt.Errorf("building info: %w", err)
	}
	if _, err := c.Materialize(ResourceProjectAssignments); err != nil {
		return fmt.Errorf("building info: %w", err)
	}

	c.logger.Debug("nova info built", "resources", len(c.snapshots))
	return nil
}
