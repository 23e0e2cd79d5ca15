package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	chttp "github.com/kochabx/carelink/core/net/http"
	"github.com/kochabx/carelink/errors"
	"github.com/kochabx/carelink/internal/devserver"
	"github.com/kochabx/carelink/log"
	"github.com/kochabx/carelink/service/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	s, err := devserver.New(&devserver.Config{Secret: "cli-test-secret-0123456789"},
		devserver.WithLogger(log.NewWriter(io.Discard)),
		devserver.WithRegisterer(prometheus.NewRegistry()),
		devserver.WithBcryptCost(bcrypt.MinCost),
	)
	require.NoError(t, err)
	return s.Handler()
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newHandler(t))
	t.Cleanup(srv.Close)
	return srv
}

// roleLog records the role header of every request by path.
type roleLog struct {
	mu    sync.Mutex
	roles map[string][]string
}

func (l *roleLog) For(path string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.roles[path]...)
}

func newRoleRecordingBackend(t *testing.T) (*httptest.Server, *roleLog) {
	t.Helper()
	next := newHandler(t)
	roles := &roleLog{roles: make(map[string][]string)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roles.mu.Lock()
		roles.roles[r.URL.Path] = append(roles.roles[r.URL.Path], r.Header.Get(chttp.HeaderUserRole))
		roles.mu.Unlock()
		next.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, roles
}

func writeConfig(t *testing.T, baseURL string, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf("api:\n  base_url: %s\ncookie_jar: %s\nlog:\n  level: error\n%s",
		baseURL, filepath.Join(dir, "cookies.json"), extra)

	path := filepath.Join(dir, "carelink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes one invocation, like a separate process sharing the config
// and cookie jar.
func run(t *testing.T, config, stdin string, args ...string) (string, string, error) {
	t.Helper()
	c := &CLI{}
	root := c.Command()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", config}, args...))

	err := root.ExecuteContext(context.Background())
	require.NoError(t, c.Close())
	return out.String(), errOut.String(), err
}

func login(t *testing.T, config string) {
	t.Helper()
	out, _, err := run(t, config, "", "login", "--email", "demo@carelink.test", "--password", "carelink-demo")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, writeConfig(t, "http://127.0.0.1:1", ""), "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "carelink dev "), out)
}

func TestLoginWhoamiLogout(t *testing.T) {
	config := writeConfig(t, newBackend(t).URL, "")

	login(t, config)

	out, _, err := run(t, config, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Demo Volunteer <demo@carelink.test> (volunteer)\n", out)

	out, _, err = run(t, config, "", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Signed out\n", out)

	_, errOut, err := run(t, config, "", "whoami")
	require.Error(t, err)
	assert.ErrorIs(t, err, chttp.ErrAuth)
	assert.Contains(t, errOut, "carelink login")
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	config := writeConfig(t, newBackend(t).URL, "")

	out, _, err := run(t, config, "carelink-demo\n", "login", "-e", "demo@carelink.test")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo Volunteer")
}

func TestLoginFailureDoesNotPrintHint(t *testing.T) {
	config := writeConfig(t, newBackend(t).URL, "")

	_, errOut, err := run(t, config, "", "login", "-e", "demo@carelink.test", "-p", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, chttp.ErrAuth)
	assert.NotContains(t, errOut, "carelink login")
}

func TestSignup(t *testing.T) {
	config := writeConfig(t, newBackend(t).URL, "")

	out, _, err := run(t, config, "", "login", "--signup", "--name", "Ana", "-e", "ana@example.org", "-p", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, "Signed in as Ana <ana@example.org> (family)\n", out)
}

func TestRecords(t *testing.T) {
	config := writeConfig(t, newBackend(t).URL, "")
	login(t, config)

	out, _, err := run(t, config, `{"status":"open","note":"fever"}`, "records", "create", "observations")
	require.NoError(t, err)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotEmpty(t, created.ID)

	out, _, err = run(t, config, "", "records", "get", "observations", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `"note": "fever"`)

	batch := `[{"status":"open","note":"a"},{"status":"closed","note":"b"},{"status":"open","note":"c"}]`
	out, errOut, err := run(t, config, batch, "records", "submit-batch", "observations", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, errOut, "submitted 3 of 3 records")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	out, errOut, err = run(t, config, "", "records", "list", "observations", "--filter", "status=open", "--limit", "2")
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 2)
	assert.Contains(t, errOut, "2 of 3 records")

	out, _, err = run(t, config, "", "records", "list", "observations", "--all", "--limit", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 4)

	out, _, err = run(t, config, "", "records", "export", "observations", "--filter", "status=closed")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "note")
	assert.Contains(t, lines[1], "closed")

	_, _, err = run(t, config, "", "records", "get", "observations", "missing")
	assert.ErrorIs(t, err, chttp.ErrNotFound)
	assert.Equal(t, "resource not found: record not found", errorMessage(err))
}

func TestSubmitBatchReportsFailures(t *testing.T) {
	config := writeConfig(t, newBackend(t).URL, "")
	login(t, config)

	_, errOut, err := run(t, config, "{\"note\":\"ok\"}\n[1]\n", "records", "submit-batch", "health-reports")
	require.Error(t, err)
	assert.Contains(t, errOut, "item 1:")
	assert.Contains(t, errOut, "submitted 1 of 2 records")
}

func TestSessionUserOutlivesTheLoginRun(t *testing.T) {
	srv, roles := newRoleRecordingBackend(t)
	config := writeConfig(t, srv.URL, "")
	login(t, config)

	_, _, err := run(t, config, "", "records", "list", "health-reports")
	require.NoError(t, err)
	assert.Equal(t, []string{"volunteer"}, roles.For("/health-reports"))

	_, _, err = run(t, config, "", "logout")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(config), "session.json"))
	assert.True(t, os.IsNotExist(err), "logout removes the saved user")
}

func TestListMine(t *testing.T) {
	config := writeConfig(t, newBackend(t).URL, "")
	login(t, config)

	for _, note := range []string{"a", "b"} {
		_, _, err := run(t, config, fmt.Sprintf(`{"note":%q}`, note), "records", "create", "observations")
		require.NoError(t, err)
	}

	out, _, err := run(t, config, "", "records", "list", "observations", "--mine")
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 2)

	_, _, err = run(t, config, "", "login", "--signup", "--name", "Ana", "-e", "ana@example.org", "-p", "long-enough")
	require.NoError(t, err)

	out, errOut, err := run(t, config, "", "records", "list", "observations", "--mine")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Empty(t, items)
	assert.Contains(t, errOut, "0 of 2 records")

	out, _, err = run(t, config, "", "records", "list", "observations", "--all")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 2)
}

func TestListMineNeedsSignedInUser(t *testing.T) {
	config := writeConfig(t, newBackend(t).URL, "session:\n  backend: memory\n")
	login(t, config)

	_, _, err := run(t, config, "", "records", "list", "observations", "--mine")
	assert.ErrorIs(t, err, auth.ErrNotSignedIn)
}

func TestRecordsNeedSession(t *testing.T) {
	config := writeConfig(t, newBackend(t).URL, "")

	_, errOut, err := run(t, config, "", "records", "list", "health-reports")
	require.Error(t, err)
	assert.ErrorIs(t, err, chttp.ErrAuth)
	assert.Contains(t, errOut, "carelink login")
}

func TestSplitItems(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
		err   bool
	}{
		{"array", `[{"a":1},{"a":2}]`, 2, false},
		{"lines", "{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n", 3, false},
		{"empty", "  \n", 0, false},
		{"broken array", `[{"a":1}`, 0, true},
		{"broken lines", "{\"a\":1}\n{oops}", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := splitItems([]byte(tt.input))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

const safeFlags = "--ph=7.2 --hardness=150 --solids=400 --chloramines=3 --sulfate=200 " +
	"--conductivity=350 --organic-carbon=2 --trihalomethanes=50 --turbidity=1"

func TestPredictOffline(t *testing.T) {
	config := writeConfig(t, "http://127.0.0.1:1", "")

	out, _, err := run(t, config, "", append([]string{"predict", "--offline"}, strings.Fields(safeFlags)...)...)
	require.NoError(t, err)
	assert.Equal(t, "Safe to drink (threshold rule)\n", out)

	out, _, err = run(t, config, `{"ph":15,"hardness":150,"solids":400,"chloramines":3,"sulfate":200,"conductivity":350,"organic_carbon":2,"trihalomethanes":50,"turbidity":1}`,
		"predict", "--offline", "--file", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Not safe to drink")
	assert.Contains(t, out, "warning: ph (15) is outside typical range (0-14)")

	_, _, err = run(t, config, "", "predict", "--offline", "--ph=7")
	require.Error(t, err)
	assert.Contains(t, errorMessage(err), "--turbidity")
	assert.NotContains(t, errorMessage(err), "--ph")
}

func TestPredictRemote(t *testing.T) {
	srv := newBackend(t)
	config := writeConfig(t, srv.URL, "predictor:\n  base_url: "+srv.URL+"\n")

	out, _, err := run(t, config, "", append([]string{"predict", "--json"}, strings.Fields(safeFlags)...)...)
	require.NoError(t, err)

	var p struct {
		Prediction struct {
			IsSafeToDrink bool `json:"is_safe_to_drink"`
		} `json:"prediction"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.True(t, p.Prediction.IsSafeToDrink)
}

func TestRedisSessionBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	config := writeConfig(t, newBackend(t).URL,
		fmt.Sprintf("session:\n  backend: redis\n  key: test:user\n  redis:\n    addrs: [%q]\n", mr.Addr()))

	login(t, config)

	stored, err := mr.Get("test:user")
	require.NoError(t, err)
	assert.Contains(t, stored, "demo@carelink.test")

	_, _, err = run(t, config, "", "logout")
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:user"))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "plain", errorMessage(fmt.Errorf("plain")))
	assert.Equal(t, "boom", errorMessage(errors.BadRequest("boom")))
}
