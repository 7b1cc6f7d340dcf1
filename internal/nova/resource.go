package nova

import (
	"fmt"
	"sort"
)

// Resource names a remote resource whose last response is kept on the client.
type Resource string

const (
	ResourceProfile            Resource = "profile"
	ResourceUsers              Resource = "users"
	ResourceAccounts           Resource = "accounts"
	ResourceAccountStatuses    Resource = "account_statuses"
	ResourceProjects           Resource = "projects"
	ResourceProjectTypes       Resource = "project_types"
	ResourceProjectStatuses    Resource = "project_statuses"
	ResourceProjectAssignments Resource = "project_assignments"
	ResourceActivityTypes      Resource = "activity_types"
	ResourceActivities         Resource = "activities"
	ResourceActivity           Resource = "activity"
	ResourceTechnologies       Resource = "technologies"
	ResourceEmployeeTypes      Resource = "employee_types"
	ResourceOrgStructures      Resource = "org_structures"
	ResourceCreateActivity     Resource = "create_activity"
	ResourceUpdateActivity     Resource = "update_activity"
	ResourceDeleteActivity     Resource = "delete_activity"
	ResourceLogout             Resource = "logout"

	resourceLogin     Resource = "login"
	resourceAuthorize Resource = "authorize"
	resourceToken     Resource = "token"
)

// Shape is the JSON value kind a resource is expected to decode to.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeObject
	ShapeList
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeList:
		return "list"
	default:
		return "none"
	}
}

type resourceSpec struct {
	shape Shape
	// endpoint is nil for resources that cannot be fetched with a plain GET.
	endpoint func(Endpoints) string
}

var resources = map[Resource]resourceSpec{
	ResourceProfile:            {ShapeObject, func(e Endpoints) string { return e.Profile }},
	ResourceUsers:              {ShapeList, func(e Endpoints) string { return e.Users }},
	ResourceAccounts:           {ShapeList, func(e Endpoints) string { return e.Accounts }},
	ResourceAccountStatuses:    {ShapeList, func(e Endpoints) string { return e.AccountStatuses }},
	ResourceProjects:           {ShapeList, func(e Endpoints) string { return e.Projects }},
	ResourceProjectTypes:       {ShapeList, func(e Endpoints) string { return e.ProjectTypes }},
	ResourceProjectStatuses:    {ShapeList, func(e Endpoints) string { return e.ProjectStatuses }},
	ResourceProjectAssignments: {ShapeList, func(e Endpoints) string { return e.ProjectAssignments }},
	ResourceActivityTypes:      {ShapeList, func(e Endpoints) string { return e.ActivityTypes }},
	ResourceActivities:         {ShapeList, func(e Endpoints) string { return e.Activities }},
	ResourceTechnologies:       {ShapeList, func(e Endpoints) string { return e.Technologies }},
	ResourceEmployeeTypes:      {ShapeList, func(e Endpoints) string { return e.EmployeeTypes }},
	ResourceOrgStructures:      {ShapeList, func(e Endpoints) string { return e.OrgStructures }},
	ResourceActivity:           {ShapeObject, nil},
	ResourceCreateActivity:     {ShapeObject, nil},
	ResourceUpdateActivity:     {ShapeObject, nil},
	ResourceDeleteActivity:     {ShapeObject, nil},
	ResourceLogout:             {ShapeNone, nil},
	resourceLogin:              {ShapeNone, nil},
	resourceAuthorize:          {ShapeNone, nil},
	resourceToken:              {ShapeNone, nil},
}

// Shape reports the expected JSON shape of r.
func (r Resource) Shape() Shape {
	return resources[r].shape
}

// Fetchable reports whether r can be retrieved with Client.Fetch.
func (r Resource) Fetchable() bool {
	return resources[r].endpoint != nil
}

// ListResources returns the names of all list-shaped fetchable resources, sorted.
func ListResources() []Resource {
	var out []Resource
	for r, spec := range resources {
		if spec.endpoint != nil && spec.shape == ShapeList {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseResource maps a name to a fetchable Resource.
func ParseResource(name string) (Resource, error) {
	r := Resource(name)
	if !r.Fetchable() {
		return "", fmt.Errorf("unknown resource %q", name)
	}
	return r, nil
}
