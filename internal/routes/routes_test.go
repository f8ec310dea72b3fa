package routes_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	approutes "github.com/agentplane/agentplane/internal/routes"
	pkgroutes "github.com/agentplane/agentplane/pkg/routes"
)

func newSystem() pkgroutes.System {
	return approutes.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ok(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func TestRegisterRoute(t *testing.T) {
	sys := newSystem()
	sys.RegisterRoute(pkgroutes.Route{Method: "GET", Pattern: "/healthz", Handler: ok("OK")})

	rec := httptest.NewRecorder()
	sys.Build().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRegisterGroupPrefix(t *testing.T) {
	sys := newSystem()
	sys.RegisterGroup(pkgroutes.Group{
		Prefix: "/api/agents",
		Routes: []pkgroutes.Route{
			{Method: "GET", Pattern: "", Handler: ok("list")},
			{Method: "GET", Pattern: "/{id}", Handler: ok("single")},
		},
	})

	handler := sys.Build()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/agents", nil))
	if rec.Body.String() != "list" {
		t.Errorf("GET /api/agents = %q, want list", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/agents/abc", nil))
	if rec.Body.String() != "single" {
		t.Errorf("GET /api/agents/abc = %q, want single", rec.Body.String())
	}
}

func TestRegisterGroupChildren(t *testing.T) {
	sys := newSystem()
	sys.RegisterGroup(pkgroutes.Group{
		Prefix: "/api",
		Children: []pkgroutes.Group{
			{
				Prefix: "/tasks",
				Routes: []pkgroutes.Route{
					{Method: "GET", Pattern: "/pending", Handler: ok("pending")},
				},
			},
		},
	})

	rec := httptest.NewRecorder()
	sys.Build().ServeHTTP(rec, httptest.NewRequest("GET", "/api/tasks/pending", nil))

	if rec.Body.String() != "pending" {
		t.Errorf("GET /api/tasks/pending = %q, want pending", rec.Body.String())
	}
}

func TestMethodMismatch(t *testing.T) {
	sys := newSystem()
	sys.RegisterRoute(pkgroutes.Route{Method: "POST", Pattern: "/api/agents", Handler: ok("created")})

	rec := httptest.NewRecorder()
	sys.Build().ServeHTTP(rec, httptest.NewRequest("GET", "/api/agents", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on POST route = %d, want 405", rec.Code)
	}
}
