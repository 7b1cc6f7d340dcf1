package nova

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUsername  = "jane.doe@example.com"
	testPassword  = "s3cret"
	testToken     = "Zx81tokenABC123"
	testProfileID = ID(42)
)

// fakeNova imitates the login redirect chain and the REST API of a Nova
// deployment.
type fakeNova struct {
	t   *testing.T
	srv *httptest.Server

	// tokenRedirect overrides where the token request redirects to.
	tokenRedirect string
	// failing makes the listed paths answer 500.
	failing map[string]bool

	hits atomic.Int64

	mu         sync.Mutex
	profiles   int
	nextID     ID
	activities map[ID]*Activity
	lastForm   map[string][]string
}

func newFakeNova(t *testing.T) *fakeNova {
	t.Helper()
	f := &fakeNova{
		t:          t,
		failing:    map[string]bool{},
		nextID:     100,
		activities: map[ID]*Activity{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", f.handleLogin)
	mux.HandleFunc("GET /authorization", f.handleAuthorizationPage)
	mux.HandleFunc("POST /authorization", f.handleDecision)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>nova</body></html>`)
	})
	mux.HandleFunc("GET /api/employees/profile", f.api(f.handleProfile))
	mux.HandleFunc("POST /api/employees/logout", f.api(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /api/Activities", f.api(f.handleListActivities))
	mux.HandleFunc("POST /api/Activities", f.api(f.handleCreateActivity))
	mux.HandleFunc("GET /api/Activities/{id}", f.api(f.handleGetActivity))
	mux.HandleFunc("PUT /api/Activities/{id}", f.api(f.handleUpdateActivity))
	mux.HandleFunc("DELETE /api/Activities/{id}", f.api(f.handleDeleteActivity))
	mux.HandleFunc("GET /api/ProjectAssignments", f.api(f.handleAssignments))
	mux.HandleFunc("GET /api/activityTypes", f.api(f.list(`[{"id":1,"name":"Development"},{"id":2,"name":"Meetings"}]`)))
	mux.HandleFunc("GET /api/Projects", f.api(f.list(`[{"id":7,"name":"Nova","accountId":3}]`)))
	for _, p := range []string{
		"/api/ProjectTypes", "/api/ProjectStatuses", "/api/employees", "/api/Accounts",
		"/api/AccountStatuses", "/api/Technologies", "/api/employeeTypes", "/api/OrgStructures",
	} {
		mux.HandleFunc("GET "+p, f.api(f.list(`[{"id":1,"name":"one"},{"id":2,"name":"two"}]`)))
	}
	mux.HandleFunc("GET /api/broken", f.api(f.list(`{"not":"a list"}`)))
	mux.HandleFunc("GET /api/employees/anonymous", f.api(f.list(`{"email":"jane.doe@example.com","id":null}`)))

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeNova) endpoints() Endpoints {
	base := f.srv.URL
	return Endpoints{
		Login:              base + "/login",
		Authorization:      base + "/authorization",
		Authorized:         base + "/#/authorized/",
		Profile:            base + "/api/employees/profile",
		Accounts:           base + "/api/Accounts",
		AccountStatuses:    base + "/api/AccountStatuses",
		Projects:           base + "/api/Projects",
		ProjectTypes:       base + "/api/ProjectTypes",
		ProjectStatuses:    base + "/api/ProjectStatuses",
		ProjectAssignments: base + "/api/ProjectAssignments",
		ActivityTypes:      base + "/api/activityTypes",
		Activities:         base + "/api/Activities",
		Users:              base + "/api/employees",
		Logout:             base + "/api/employees/logout",
		EmployeeTypes:      base + "/api/employeeTypes",
		OrgStructures:      base + "/api/OrgStructures",
		Technologies:       base + "/api/Technologies",
	}
}

func (f *fakeNova) client(username, password string) *Client {
	f.t.Helper()
	c, err := NewClient(username, password, Options{Endpoints: f.endpoints()})
	require.NoError(f.t, err)
	return c
}

func (f *fakeNova) seedActivity(a Activity) ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	f.activities[a.ID] = &a
	return a.ID
}

func (f *fakeNova) fail(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[path] = true
}

func (f *fakeNova) redirectTokenTo(target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenRedirect = target
}

func (f *fakeNova) form() map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

func (f *fakeNova) handleLogin(w http.ResponseWriter, r *http.Request) {
	assert.NoError(f.t, r.ParseForm())
	q := r.URL.Query()
	if q.Get("client_id") != DefaultClientID || q.Get("response_type") != "token" || q.Get("state") == "" {
		http.Error(w, "bad oauth parameters", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("username") != testUsername || r.PostForm.Get("password") != testPassword {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><form><div class="alert alert-danger">
			Invalid username
			or password</div></form></body></html>`)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "nova.sid", Value: "s1", Path: "/"})
	http.Redirect(w, r, "/authorization?"+q.Encode(), http.StatusFound)
}

func (f *fakeNova) hasSession(r *http.Request) bool {
	c, err := r.Cookie("nova.sid")
	return err == nil && c.Value == "s1"
}

func (f *fakeNova) handleAuthorizationPage(w http.ResponseWriter, r *http.Request) {
	if !f.hasSession(r) {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	fmt.Fprint(w, `<html><body>Authorize nova?</body></html>`)
}

func (f *fakeNova) handleDecision(w http.ResponseWriter, r *http.Request) {
	assert.NoError(f.t, r.ParseForm())
	if !f.hasSession(r) || r.PostForm.Get("decision") != "1" {
		http.Error(w, "not authorized", http.StatusForbidden)
		return
	}
	f.mu.Lock()
	target := f.tokenRedirect
	f.mu.Unlock()
	if target == "" {
		target = f.srv.URL + "/#/authorized/?access_token=" + testToken +
			"&token_type=bearer&state=" + r.URL.Query().Get("state")
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// api guards a handler behind the bearer token.
func (f *fakeNova) api(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"statusCode":401,"message":"Authorization Required"}}`)
			return
		}
		f.mu.Lock()
		failing := f.failing[r.URL.Path]
		f.mu.Unlock()
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"statusCode":500}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}
}

func (f *fakeNova) list(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}
}

func (f *fakeNova) writeJSON(w http.ResponseWriter, v any) {
	assert.NoError(f.t, json.NewEncoder(w).Encode(v))
}

func (f *fakeNova) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("filter") != `{"include":["contract"]}` {
		http.Error(w, "missing include filter", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.profiles++
	n := f.profiles
	f.mu.Unlock()
	fmt.Fprintf(w, `{"id":%d,"email":%q,"firstName":"Jane","lastName":"Doe","fetch":%d,"contract":{"id":9}}`,
		testProfileID, testUsername, n)
}

type whereFilter struct {
	Where struct {
		EmployeeID ID `json:"employeeId"`
	} `json:"where"`
}

func (f *fakeNova) handleListActivities(w http.ResponseWriter, r *http.Request) {
	var filter whereFilter
	if raw := r.URL.Query().Get("filter"); raw != "" {
		assert.NoError(f.t, json.Unmarshal([]byte(raw), &filter))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Activity{}
	for _, a := range f.activities {
		if filter.Where.EmployeeID == 0 || a.EmployeeID == filter.Where.EmployeeID {
			out = append(out, *a)
		}
	}
	f.writeJSON(w, out)
}

func (f *fakeNova) handleAssignments(w http.ResponseWriter, r *http.Request) {
	var filter whereFilter
	assert.NoError(f.t, json.Unmarshal([]byte(r.URL.Query().Get("filter")), &filter))
	fmt.Fprintf(w, `[{"id":5,"employeeId":"%d","projectId":7,"project":{"id":7,"name":"Nova","account":{"id":3,"name":"Acme"}}}]`,
		filter.Where.EmployeeID)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseID(s string) ID {
	v, _ := strconv.ParseInt(s, 10, 64)
	return ID(v)
}

func (f *fakeNova) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	assert.NoError(f.t, r.ParseForm())
	f.mu.Lock()
	f.lastForm = r.PostForm
	f.mu.Unlock()

	id := f.seedActivity(Activity{
		ActivityDate:  r.PostForm.Get("activityDate"),
		Value:         parseFloat(r.PostForm.Get("value")),
		BillableValue: parseFloat(r.PostForm.Get("billablevalue")),
		Comments:      r.PostForm.Get("comments"),
		Task:          r.PostForm.Get("task"),
		EmployeeID:    parseID(r.PostForm.Get("employeeId")),
		ProjectID:     parseID(r.PostForm.Get("projectId")),
		TypeID:        parseID(r.PostForm.Get("typeId")),
		StepID:        parseID(r.PostForm.Get("stepId")),
	})
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeJSON(w, f.activities[id])
}

func (f *fakeNova) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.activities[parseID(r.PathValue("id"))]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"statusCode":404}}`)
		return
	}
	f.writeJSON(w, a)
}

func (f *fakeNova) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	assert.NoError(f.t, r.ParseForm())
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastForm = r.PostForm

	a, ok := f.activities[parseID(r.PathValue("id"))]
	if !ok || r.PostForm.Get("activityId") != r.PathValue("id") {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"statusCode":404}}`)
		return
	}
	if v := r.PostForm.Get("value"); v != "" {
		a.Value = parseFloat(v)
	}
	if v := r.PostForm.Get("billablevalue"); v != "" {
		a.BillableValue = parseFloat(v)
	}
	if v := r.PostForm.Get("comments"); v != "" {
		a.Comments = v
	}
	if v := r.PostForm.Get("ticket"); v != "" {
		a.Ticket = v
	}
	f.writeJSON(w, a)
}

func (f *fakeNova) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := parseID(r.PathValue("id"))
	count := 0
	if _, ok := f.activities[id]; ok {
		delete(f.activities, id)
		count = 1
	}
	fmt.Fprintf(w, `{"count":%d}`, count)
}
