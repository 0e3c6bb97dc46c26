package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hassbridge/hassbridge-core/internal/command"
	"github.com/hassbridge/hassbridge-core/internal/hass"
	"github.com/hassbridge/hassbridge-core/internal/infrastructure/config"
	"github.com/hassbridge/hassbridge-core/internal/infrastructure/logging"
	"github.com/hassbridge/hassbridge-core/internal/snapshot"
)

const testSecret = "test-secret"

type stubFetcher struct{}

func (stubFetcher) States(ctx context.Context) ([]hass.Entity, error) {
	return []hass.Entity{{EntityID: "light.kitchen"}}, nil
}
func (stubFetcher) Devices(ctx context.Context) ([]hass.Device, error) { return nil, nil }
func (stubFetcher) Areas(ctx context.Context) ([]hass.Area, error)     { return nil, nil }
func (stubFetcher) Floors(ctx context.Context) ([]hass.Floor, error)   { return nil, nil }
func (stubFetcher) Labels(ctx context.Context) ([]hass.Label, error)   { return nil, nil }
func (stubFetcher) IntegrationEntityIDs(ctx context.Context, integration string) ([]string, error) {
	return nil, nil
}
func (stubFetcher) ServicesRaw(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(Deps{
		Config: config.APIConfig{JWTSecret: testSecret},
		Logger: logging.Default(),
		Cache:  snapshot.New(stubFetcher{}, 16, time.Minute),
		Commands: []command.Definition{{
			Namespace:   "light",
			Name:        "turn_on",
			Description: "Turns on a light",
			Parameters: []command.Parameter{
				{Name: "entity_id", Kind: command.KindString, Required: true,
					Suggest: func(ctx context.Context, userID, query string) []command.Choice { return nil }},
				{Name: "brightness", Kind: command.KindInteger},
			},
		}},
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return signed
}

func doRequest(srv *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func TestHealthRequiresNoAuth(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestCommandsRejectMissingToken(t *testing.T) {
	srv := newTestServer(t)
	if rec := doRequest(srv, http.MethodGet, "/api/v1/commands", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}
	if rec := doRequest(srv, http.MethodGet, "/api/v1/commands", signToken(t, "wrong-secret")); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad signature status = %d, want 401", rec.Code)
	}
}

func TestListCommands(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/api/v1/commands", signToken(t, testSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Commands []commandView `json:"commands"`
		Total    int           `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Total != 1 || len(body.Commands) != 1 {
		t.Fatalf("total = %d, commands = %d", body.Total, len(body.Commands))
	}
	cmd := body.Commands[0]
	if cmd.Qualified != "light.turn_on" || len(cmd.Parameters) != 2 {
		t.Errorf("command = %+v", cmd)
	}
	if !cmd.Parameters[0].Dynamic || cmd.Parameters[1].Dynamic {
		t.Error("dynamic flag must follow suggestion binding")
	}
}

func TestGetCommand(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, testSecret)

	rec := doRequest(srv, http.MethodGet, "/api/v1/commands/light.turn_on", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = doRequest(srv, http.MethodGet, "/api/v1/commands/light.explode", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown command status = %d, want 404", rec.Code)
	}
}

func TestCacheStatusAndInvalidate(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, testSecret)

	if _, err := srv.cache.Entities(context.Background()); err != nil {
		t.Fatalf("priming cache: %v", err)
	}

	rec := doRequest(srv, http.MethodGet, "/api/v1/cache", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var status struct {
		CachedKeys []string `json:"cached_keys"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(status.CachedKeys) != 1 {
		t.Errorf("cached_keys = %v, want one entry", status.CachedKeys)
	}

	if rec := doRequest(srv, http.MethodPost, "/api/v1/cache/invalidate", token); rec.Code != http.StatusOK {
		t.Fatalf("invalidate status = %d", rec.Code)
	}
	if got := srv.cache.Status(); len(got.CachedKeys) != 0 {
		t.Errorf("cache still holds %v after invalidate", got.CachedKeys)
	}
}

func TestUsageRoutesWithoutRepository(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, testSecret)
	if rec := doRequest(srv, http.MethodGet, "/api/v1/usage", token); rec.Code != http.StatusNotFound {
		t.Errorf("usage list status = %d, want 404 when unconfigured", rec.Code)
	}
}
