package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
)

func newTestClient(t *testing.T, h http.HandlerFunc, creds CredentialProvider) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/"}, creds)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, base := range []string{"", "  ", "ftp://x", "http://", "::"} {
		_, err := New(Config{BaseURL: base}, nil)
		assert.Error(t, err, base)
	}
}

func TestToList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2},
		{"data envelope", `{"data":[{"id":1}]}`, 1},
		{"items envelope", `{"items":[{"id":1},{"id":2},{"id":3}]}`, 3},
		{"results envelope", `{"results":[{"id":1}]}`, 1},
		{"object without list", `{"data":{"id":1}}`, 0},
		{"scalar", `"hello"`, 0},
		{"invalid", `{`, 0},
		{"empty body", ``, 0},
		{"non-object elements dropped", `[{"id":1},2,"x",null]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := ToList([]byte(tt.body))
			require.NotNil(t, rows)
			assert.Len(t, rows, tt.want)
		})
	}
}

func TestToObject(t *testing.T) {
	assert.Equal(t, "x", ToObject([]byte(`{"data":{"status":"x"}}`))["status"])
	assert.Equal(t, "y", ToObject([]byte(`{"status":"y"}`))["status"])
	assert.Empty(t, ToObject([]byte(`[1,2]`)))
}

func TestAPIError_MessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"Şirket bulunamadı"}`, "Şirket bulunamadı"},
		{"detail", `{"detail":"Not authenticated"}`, "Not authenticated"},
		{"error string", `{"error":"bad"}`, "bad"},
		{"nested error", `{"error":{"message":"nested"}}`, "nested"},
		{"validation list", `{"detail":[{"msg":"field required"}]}`, "field required"},
		{"no message", `{"foo":1}`, "İstek başarısız oldu (HTTP 500)"},
		{"html", `<html>oops</html>`, "İstek başarısız oldu (HTTP 500)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, tt.body)
			}, nil)

			_, err := c.Companies(context.Background())
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestClient_UnauthorizedClearsToken(t *testing.T) {
	creds := NewMemoryCredentials("stale")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}, creds)

	_, err := c.Companies(context.Background())
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Empty(t, creds.Token())
}

func TestClient_LoginStoresToken(t *testing.T) {
	creds := NewMemoryCredentials("")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "admin@example.com", body["email"])
			_, _ = io.WriteString(w, `{"data":{"access_token":"tok-1"}}`)
		case "/auth/logout":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, creds)

	tok, err := c.Login(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, "tok-1", creds.Token())

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, creds.Token())
}

func TestClient_LoginWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":true}`)
	}, nil)

	_, err := c.Login(context.Background(), "a", "b")
	assert.Error(t, err)
}

func TestClient_PathsAreEscaped(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = io.WriteString(w, `{"status":"minted"}`)
	}, nil)

	out, err := c.MintStatus(context.Background(), "c/1", "e 2", "p3")
	require.NoError(t, err)
	assert.Equal(t, "minted", out["status"])
	assert.Equal(t, "/companies/c%2F1/employees/e%202/payrolls/p3/status", gotPath)
}

func TestClient_Listings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/companies":
			_, _ = io.WriteString(w, `[{"id":"c1","name":"Acme"}]`)
		case "/companies/c1/employees":
			_, _ = io.WriteString(w, `{"items":[{"id":"e1"},{"id":"e2"}]}`)
		case "/companies/c1/employees/e1/payrolls":
			_, _ = io.WriteString(w, `{"data":[{"id":"p1"}]}`)
		case "/companies/c1/nfts", "/companies/c1/employees/e1/nfts":
			_, _ = io.WriteString(w, `{"results":[]}`)
		default:
			http.NotFound(w, r)
		}
	}, nil)
	ctx := context.Background()

	companies, err := c.Companies(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme", companies[0]["name"])

	employees, err := c.Employees(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, employees, 2)

	payrolls, err := c.Payrolls(ctx, "c1", "e1")
	require.NoError(t, err)
	assert.Len(t, payrolls, 1)

	nfts, err := c.CompanyNFTs(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, nfts)

	nfts, err = c.EmployeeNFTs(ctx, "c1", "e1")
	require.NoError(t, err)
	assert.Empty(t, nfts)
}

func TestBulkSubmitter_ThreadsGroupID(t *testing.T) {
	var bodies []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/c1/payrolls/bulk", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		_, _ = io.WriteString(w, `{"created":[{"id":"a"},{"id":"b"}],"failed":["x"],"payroll_group_id":"grp-9"}`)
	}, nil)

	sub := BulkSubmitter{Client: c, CompanyID: "c1"}
	recs := []bulkimport.Record{{NationalID: "11111111111"}, {NationalID: "22222222222"}, {NationalID: "33333333333"}}

	resp, err := sub.SubmitChunk(context.Background(), recs, nil)
	require.NoError(t, err)
	assert.Equal(t, bulkimport.ChunkResponse{Created: 2, Failed: 1, BatchID: "grp-9"}, resp)

	gid := "grp-9"
	_, err = sub.SubmitChunk(context.Background(), recs[:1], &gid)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Nil(t, bodies[0]["payroll_group_id"])
	assert.Len(t, bodies[0]["items"], 3)
	assert.Equal(t, "grp-9", bodies[1]["payroll_group_id"])

	item := bodies[0]["items"].([]any)[0].(map[string]any)
	assert.Contains(t, item, "bonus", "optional fields are sent as null")
	assert.Nil(t, item["bonus"])
}

func TestBulkSubmitter_EmployeeScope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/c1/employees/e1/payrolls/bulk", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":{"created":[1],"failed":[]}}`)
	}, nil)

	resp, err := BulkSubmitter{Client: c, CompanyID: "c1", EmployeeID: "e1"}.
		SubmitChunk(context.Background(), []bulkimport.Record{{}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Created)
	assert.Empty(t, resp.BatchID)
}

func TestFileCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")

	fc, err := NewFileCredentials(path)
	require.NoError(t, err)
	assert.Empty(t, fc.Token())

	fc.SetToken(" tok ")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := NewFileCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "tok", reloaded.Token())

	reloaded.ClearToken()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, reloaded.Token())
}

func TestFileCredentials_SeedStaysInMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	fc, err := NewFileCredentials(path)
	require.NoError(t, err)
	fc.Seed("from-env")
	assert.Equal(t, "from-env", fc.Token())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "seeded token must not be written")

	fc.SetToken("from-login")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-login", string(data))
}
