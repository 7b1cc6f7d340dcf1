package nova

import (
	"fmt"
	"net/url"
)

// Endpoints lists every URL the client talks to. The values are fixed per
// deployment; DefaultEndpoints returns the production one.
type Endpoints struct {
	Login              string `toml:"login"`
	Authorization      string `toml:"authorization"`
	Authorized         string `toml:"authorized"` // redirect target carrying the access token
	Profile            string `toml:"profile"`
	Accounts           string `toml:"accounts"`
	AccountStatuses    string `toml:"account_statuses"`
	Projects           string `toml:"projects"`
	ProjectTypes       string `toml:"project_types"`
	ProjectStatuses    string `toml:"project_statuses"`
	ProjectAssignments string `toml:"project_assignments"`
	ActivityTypes      string `toml:"activity_types"`
	Activities         string `toml:"activities"`
	Users              string `toml:"users"`
	Logout             string `toml:"logout"`
	EmployeeTypes      string `toml:"employee_types"`
	OrgStructures      string `toml:"org_structures"`
	Technologies       string `toml:"technologies"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:              "http://nova.cloudapp.net/login",
		Authorization:      "http://nova.cloudapp.net/authorization",
		Authorized:         "http://nova.itexico.com/#/authorized/",
		Profile:            "http://nova.cloudapp.net/api/employees/profile",
		Accounts:           "http://nova.cloudapp.net/api/Accounts",
		AccountStatuses:    "http://nova.cloudapp.net/api/AccountStatuses",
		Projects:           "http://nova-api.itexico.com/api/Projects",
		ProjectTypes:       "http://nova.cloudapp.net/api/ProjectTypes",
		ProjectStatuses:    "http://nova.cloudapp.net/api/ProjectStatuses",
		ProjectAssignments: "http://nova.cloudapp.net/api/ProjectAssignments",
		ActivityTypes:      "http://nova.cloudapp.net/api/activityTypes",
		Activities:         "http://nova.cloudapp.net/api/Activities",
		Users:              "http://nova.cloudapp.net/api/employees",
		Logout:             "http://nova.cloudapp.net/api/employees/logout",
		EmployeeTypes:      "http://nova.cloudapp.net/api/employeeTypes",
		OrgStructures:      "http://nova-api.itexico.com/api/OrgStructures",
		Technologies:       "http://nova-api.itexico.com/api/Technologies",
	}
}

// WithDefaults fills every empty field from DefaultEndpoints.
func (e Endpoints) WithDefaults() Endpoints {
	d := DefaultEndpoints()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&e.Login, d.Login)
	fill(&e.Authorization, d.Authorization)
	fill(&e.Authorized, d.Authorized)
	fill(&e.Profile, d.Profile)
	fill(&e.Accounts, d.Accounts)
	fill(&e.AccountStatuses, d.AccountStatuses)
	fill(&e.Projects, d.Projects)
	fill(&e.ProjectTypes, d.ProjectTypes)
	fill(&e.ProjectStatuses, d.ProjectStatuses)
	fill(&e.ProjectAssignments, d.ProjectAssignments)
	fill(&e.ActivityTypes, d.ActivityTypes)
	fill(&e.Activities, d.Activities)
	fill(&e.Users, d.Users)
	fill(&e.Logout, d.Logout)
	fill(&e.EmployeeTypes, d.EmployeeTypes)
	fill(&e.OrgStructures, d.OrgStructures)
	fill(&e.Technologies, d.Technologies)
	return e
}

func (e Endpoints) named() []struct{ name, value string } {
	return []struct{ name, value string }{
		{"login", e.Login},
		{"authorization", e.Authorization},
		{"authorized", e.Authorized},
		{"profile", e.Profile},
		{"accounts", e.Accounts},
		{"account_statuses", e.AccountStatuses},
		{"projects", e.Projects},
		{"project_types", e.ProjectTypes},
		{"project_statuses", e.ProjectStatuses},
		{"project_assignments", e.ProjectAssignments},
		{"activity_types", e.ActivityTypes},
		{"activities", e.Activities},
		{"users", e.Users},
		{"logout", e.Logout},
		{"employee_types", e.EmployeeTypes},
		{"org_structures", e.OrgStructures},
		{"technologies", e.Technologies},
	}
}

// Validate checks that every endpoint is an absolute http(s) URL.
func (e Endpoints) Validate() error {
	for _, ep := range e.named() {
		if ep.value == "" {
			return fmt.Errorf("endpoint %s is empty", ep.name)
		}
		u, err := url.Parse(ep.value)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", ep.name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("endpoint %s is not an absolute http(s) URL: %q", ep.name, ep.value)
		}
	}
	return nil
}
