package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"daokit-go/internal/store"
	"daokit-go/internal/verify"
)

type fakeStore struct {
	deployments map[string]*store.Deployment
}

func (f *fakeStore) Get(id string) (*store.Deployment, error) {
	d, ok := f.deployments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) List(limit int) ([]store.Deployment, error) {
	var out []store.Deployment
	for _, d := range f.deployments {
		out = append(out, *d)
	}
	return out, nil
}

type fakeLauncher struct {
	gotDelay   int64
	gotMembers []common.Address
	err        error
}

func (f *fakeLauncher) Launch(_ context.Context, minDelay int64, members []common.Address) (*store.Deployment, error) {
	f.gotDelay, f.gotMembers = minDelay, members
	if f.err != nil {
		return nil, f.err
	}
	return &store.Deployment{ID: "dep-1", MinDelay: minDelay}, nil
}

type fakeVerifier struct {
	report *verify.Report
}

func (f *fakeVerifier) Verify(context.Context, *store.Deployment) (*verify.Report, error) {
	return f.report, nil
}

func newTestServer(db DeploymentStore, l Launcher, v Verifier) *Server {
	return NewServer(db, l, v, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeStore{}, nil, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLaunchDeployment(t *testing.T) {
	l := &fakeLauncher{}
	srv := newTestServer(&fakeStore{}, l, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"min_delay": 180,
		"members":   []string{"0xAAA0000000000000000000000000000000000001"},
	})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/deployments", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(180), l.gotDelay)
	require.Len(t, l.gotMembers, 1)
	assert.Equal(t, common.HexToAddress("0xAAA0000000000000000000000000000000000001"), l.gotMembers[0])

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dep-1", resp["id"])
}

func TestLaunchRejectsBadInput(t *testing.T) {
	srv := newTestServer(&fakeStore{}, &fakeLauncher{}, nil)

	cases := []string{
		`not json`,
		`{"min_delay": -1}`,
		`{"min_delay": 60, "members": ["bogus"]}`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/deployments", bytes.NewReader([]byte(body))))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestLaunchDisabledWithoutLauncher(t *testing.T) {
	srv := newTestServer(&fakeStore{}, nil, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/deployments", bytes.NewReader([]byte(`{}`))))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetDeployment(t *testing.T) {
	db := &fakeStore{deployments: map[string]*store.Deployment{
		"dep-1": {ID: "dep-1", Kernel: "0x0000000000000000000000000000000000000050"},
	}}
	srv := newTestServer(db, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/deployments/dep-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0x0000000000000000000000000000000000000050", resp["kernel"])

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/deployments/absent", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListDeployments(t *testing.T) {
	db := &fakeStore{deployments: map[string]*store.Deployment{
		"dep-1": {ID: "dep-1"},
		"dep-2": {ID: "dep-2"},
	}}
	srv := newTestServer(db, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/deployments", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/deployments?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyDeployment(t *testing.T) {
	db := &fakeStore{deployments: map[string]*store.Deployment{"dep-1": {ID: "dep-1"}}}
	report := &verify.Report{}
	report.Findings = append(report.Findings, verify.Finding{Check: "kernel record TIMELOCK", OK: true})
	srv := newTestServer(db, nil, &fakeVerifier{report: report})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/deployments/dep-1/verify", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OK       bool             `json:"ok"`
		Findings []verify.Finding `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Len(t, resp.Findings, 1)
}
