package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"leaseapi/internal/lease"
)

type fakeLister struct {
	result lease.Result
	err    error
}

func (f fakeLister) List(ctx context.Context) (lease.Result, error) {
	return f.result, f.err
}

func mustParse(t *testing.T, lines ...string) []lease.Record {
	t.Helper()
	records := make([]lease.Record, 0, len(lines))
	for _, l := range lines {
		r, err := lease.Parse(l)
		require.NoError(t, err)
		records = append(records, r)
	}
	return records
}

func do(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestLeasesJSON(t *testing.T) {
	records := mustParse(t,
		"1535916991 aa:bb:cc:dd:ee:ff 172.16.1.60 android-2bfa2b2619add6eb 01:aa:bb:cc:dd:ee:ff",
		"1535966088 aa:bb:cc:dd:ee:ff 1.1.1.1 * *",
	)
	metrics := NewMetrics()
	s := NewServer(":0", fakeLister{result: lease.Result{Records: records, Skipped: 2}}, metrics, nil)

	for _, target := range []string{"/leases/", "/leases"} {
		rec := do(t, s, target)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

		var body []map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body, 2)
		assert.Equal(t, map[string]string{
			"ip_address":        "172.16.1.60",
			"mac_address":       "aa:bb:cc:dd:ee:ff",
			"lease_expiry_time": "2018-09-02T19:36:31+00:00",
			"client_id":         "01:aa:bb:cc:dd:ee:ff",
			"hostname":          "android-2bfa2b2619add6eb",
		}, body[0])
		assert.Equal(t, "", body[1]["hostname"])
		assert.Equal(t, "", body[1]["client_id"])
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.requests.WithLabelValues("200")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.leases))
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.skipped))
}

func TestLeasesEmptyIsArray(t *testing.T) {
	s := NewServer(":0", fakeLister{}, nil, nil)
	rec := do(t, s, "/leases/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestLeasesYAML(t *testing.T) {
	records := mustParse(t, "1535966088 aa:bb:cc:dd:ee:ff 1.1.1.1 host *")
	s := NewServer(":0", fakeLister{result: lease.Result{Records: records}}, nil, nil)

	rec := do(t, s, "/leases/?format=yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	var body []map[string]string
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "host", body[0]["hostname"])
	assert.Equal(t, "1.1.1.1", body[0]["ip_address"])
}

func TestLeasesErrors(t *testing.T) {
	_, parseErr := lease.Parse("1535966088 aa:bb:cc:dd:ee:ff 1.2.3.a * *")
	require.Error(t, parseErr)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"no source", fmt.Errorf("%w: tried [/a]", lease.ErrSourceUnavailable), http.StatusServiceUnavailable},
		{"bad line", fmt.Errorf("line 3: %w", parseErr), http.StatusInternalServerError},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := NewMetrics()
			s := NewServer(":0", fakeLister{err: tc.err}, metrics, nil)
			rec := do(t, s, "/leases/")
			assert.Equal(t, tc.code, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.err.Error(), body.Error)
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues(fmt.Sprint(tc.code))))
		})
	}
}

func TestLeasesMethodNotAllowed(t *testing.T) {
	s := NewServer(":0", fakeLister{}, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/leases/", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.LeaseFileEvent("/var/lib/misc/dnsmasq.leases", fsnotify.Write)
	s := NewServer(":0", fakeLister{}, metrics, nil)

	rec := do(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `leaseapi_lease_file_events_total{op="WRITE",path="/var/lib/misc/dnsmasq.leases"} 1`)
	assert.Contains(t, rec.Body.String(), `leaseapi_lease_file_last_change_timestamp_seconds{path="/var/lib/misc/dnsmasq.leases"}`)
}

func TestLeaseFileEventSetsLastChange(t *testing.T) {
	metrics := NewMetrics()
	before := float64(time.Now().Unix())
	metrics.LeaseFileEvent("/tmp/dnsmasq.leases", fsnotify.Create)

	got := testutil.ToFloat64(metrics.lastChange.WithLabelValues("/tmp/dnsmasq.leases"))
	assert.GreaterOrEqual(t, got, before)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.fileEvents.WithLabelValues("/tmp/dnsmasq.leases", "CREATE")))
}

func TestLeasesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dnsmasq.leases")
	require.NoError(t, os.WriteFile(path, []byte("1535966088 aa:bb:cc:dd:ee:ff 1.1.1.1 * *\n"), 0644))

	svc := lease.NewService(lease.Candidates(path, []string{filepath.Join(dir, "missing")}), nil, true, nil)
	s := NewServer(":0", svc, nil, nil)

	rec := do(t, s, "/leases/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ip_address":"1.1.1.1"`)

	require.NoError(t, os.Remove(path))
	rec = do(t, s, "/leases/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
