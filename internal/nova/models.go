package nova

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is a server-assigned identifier. The API sends ids both as JSON numbers
// and as quoted strings, so both decode.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parsing id %q: %w", data, err)
	}
	*id = ID(n)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type Profile struct {
	ID        ID              `json:"id"`
	Email     string          `json:"email"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Contract  json.RawMessage `json:"contract,omitempty"`
}

type Activity struct {
	ID            ID      `json:"id"`
	ActivityDate  string  `json:"activityDate"`
	Value         float64 `json:"value"`
	BillableValue float64 `json:"billablevalue"`
	Comments      string  `json:"comments"`
	Task          string  `json:"task"`
	Ticket        string  `json:"ticket"`
	EmployeeID    ID      `json:"employeeId"`
	ProjectID     ID      `json:"projectId"`
	TypeID        ID      `json:"typeId"`
	StepID        ID      `json:"stepId"`
}

type ActivityType struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Project struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	AccountID ID     `json:"accountId"`
	Account   *struct {
		ID   ID     `json:"id"`
		Name string `json:"name"`
	} `json:"account,omitempty"`
}

type ProjectAssignment struct {
	ID         ID       `json:"id"`
	EmployeeID ID       `json:"employeeId"`
	ProjectID  ID       `json:"projectId"`
	Project    *Project `json:"project,omitempty"`
}

// DeleteResult is the confirmation returned by an activity delete.
type DeleteResult struct {
	Count int `json:"count"`
}

// NewActivity holds the fields of an activity to create. ProjectID and TypeID
// are required; zero Date means today, zero Hours means 1 and zero EmployeeID
// means the logged-in user.
type NewActivity struct {
	ProjectID  ID
	TypeID     ID
	Date       time.Time
	EmployeeID ID
	Hours      float64
	Comments   string
	Ticket     string
}

// ActivityPatch holds the fields to change on an existing activity. At least
// one must be non-zero.
type ActivityPatch struct {
	Value    float64
	Comments string
	Ticket   string
}

func (p ActivityPatch) empty() bool {
	return p.Value == 0 && p.Comments == "" && p.Ticket == ""
}
