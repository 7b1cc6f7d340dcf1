package nova

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	activityDateLayout = "2006-01-02T00:00:00Z"
	defaultStepID      = "1"
)

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// CreateActivity posts a new activity and returns the server's record of it.
func (c *Client) CreateActivity(ctx context.Context, in NewActivity) (*Activity, error) {
	if in.ProjectID == 0 || in.TypeID == 0 {
		return nil, fmt.Errorf("creating activity: project and activity type are required: %w", ErrInsufficientArguments)
	}
	if err := c.requireAuth("creating activity"); err != nil {
		return nil, err
	}
	employeeID, err := c.employeeID(in.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("creating activity: %w", err)
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	hours := in.Hours
	if hours == 0 {
		hours = 1
	}

	form := url.Values{
		"activityDate":  {date.Format(activityDateLayout)},
		"value":         {formatHours(hours)},
		"billablevalue": {formatHours(hours)},
		"comments":      {in.Comments},
		"task":          {in.Ticket},
		"employeeId":    {employeeID.String()},
		"stepId":        {defaultStepID},
		"typeId":        {in.TypeID.String()},
		"projectId":     {in.ProjectID.String()},
	}
	if _, err := c.store(ctx, ResourceCreateActivity, http.MethodPost, c.endpoints.Activities, nil, form); err != nil {
		return nil, fmt.Errorf("creating activity: %w", err)
	}

	var created Activity
	if err := c.Decode(ResourceCreateActivity, &created); err != nil {
		return nil, fmt.Errorf("creating activity: %w", err)
	}
	c.logger.Debug("nova activity created", "id", created.ID, "project_id", in.ProjectID, "hours", hours)
	return &created, nil
}

// UpdateActivity changes the supplied fields of an activity. Setting Value
// updates both the value and the billable value.
func (c *Client) UpdateActivity(ctx context.Context, id ID, patch ActivityPatch) (*Activity, error) {
	if id <= 0 {
		return nil, fmt.Errorf("updating activity: activity id is required: %w", ErrInsufficientArguments)
	}
	if patch.empty() {
		return nil, fmt.Errorf("updating activity %s: one of value, comments or ticket is required: %w", id, ErrInsufficientArguments)
	}
	if err := c.requireAuth("updating activity"); err != nil {
		return nil, err
	}

	form := url.Values{"activityId": {id.String()}}
	if patch.Value != 0 {
		form.Set("value", formatHours(patch.Value))
		form.Set("billablevalue", formatHours(patch.Value))
	}
	if patch.Comments != "" {
		form.Set("comments", patch.Comments)
	}
	if patch.Ticket != "" {
		form.Set("ticket", patch.Ticket)
	}

	if _, err := c.store(ctx, ResourceUpdateActivity, http.MethodPut, c.activityURL(id), nil, form); err != nil {
		return nil, fmt.Errorf("updating activity %s: %w", id, err)
	}

	var updated Activity
	if err := c.Decode(ResourceUpdateActivity, &updated); err != nil {
		return nil, fmt.Errorf("updating activity %s: %w", id, err)
	}
	return &updated, nil
}

// DeleteActivity removes an activity. The server answers with a count of
// deleted records rather than the record itself.
func (c *Client) DeleteActivity(ctx context.Context, id ID) (*DeleteResult, error) {
	if id <= 0 {
		return nil, fmt.Errorf("deleting activity: activity id is required: %w", ErrInsufficientArguments)
	}
	if err := c.requireAuth("deleting activity"); err != nil {
		return nil, err
	}
	if _, err := c.store(ctx, ResourceDeleteActivity, http.MethodDelete, c.activityURL(id), nil, nil); err != nil {
		return nil, fmt.Errorf("deleting activity %s: %w", id, err)
	}

	var res DeleteResult
	if err := c.Decode(ResourceDeleteActivity, &res); err != nil {
		return nil, fmt.Errorf("deleting activity %s: %w", id, err)
	}
	return &res, nil
}
