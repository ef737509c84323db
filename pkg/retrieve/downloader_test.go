package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velarno/copper/pkg/catalog"
	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/template"
)

const dataset = "reanalysis-era5-land"

type fakeRetrieveAPI struct {
	polls      atomic.Int32
	readyAfter int32
	finalState string

	mu     sync.Mutex
	inputs map[string][]string
}

func (f *fakeRetrieveAPI) submitted() map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs
}

func (f *fakeRetrieveAPI) handler(t *testing.T, srvURL func() string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /retrieve/v1/processes/{dataset}/execution", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs map[string][]string `json:"inputs"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.inputs = body.Inputs
		f.mu.Unlock()
		fmt.Fprint(w, `{"jobID":"job-1","status":"accepted"}`)
	})
	mux.HandleFunc("GET /retrieve/v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		status := StatusRunning
		if f.polls.Add(1) > f.readyAfter {
			status = f.finalState
		}
		fmt.Fprintf(w, `{"jobID":%q,"status":%q,"message":"queue"}`, r.PathValue("id"), status)
	})
	mux.HandleFunc("GET /retrieve/v1/jobs/{id}/results", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"asset":{"value":{"href":%q,"type":"application/netcdf"}}}`, srvURL()+"/files/data.nc")
	})
	mux.HandleFunc("GET /files/data.nc", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "netcdf-bytes")
	})
	return mux
}

func newTestDownloader(t *testing.T, api *fakeRetrieveAPI, opts ...Option) (*Downloader, string) {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(api.handler(t, func() string { return srv.URL }))
	t.Cleanup(srv.Close)

	client, err := catalog.NewClient(catalog.WithBaseURL(srv.URL), catalog.WithRateLimit(0), catalog.WithCacheSize(0))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "downloads")
	opts = append([]Option{WithPollInterval(time.Millisecond)}, opts...)
	d := NewDownloader(client, dir, opts...)
	d.newRunID = func() string { return "run-1" }
	return d, dir
}

type recordingUploader struct {
	key, path string
}

func (u *recordingUploader) Upload(_ context.Context, key, localPath string) (string, error) {
	u.key, u.path = key, localPath
	return "bucket/" + key, nil
}

func TestDownload(t *testing.T) {
	api := &fakeRetrieveAPI{readyAfter: 2, finalState: StatusSuccessful}
	up := &recordingUploader{}
	d, dir := newTestDownloader(t, api, WithUploader(up))

	state := template.NewStateFromParameters("land", dataset, template.Parameters{
		"year":     {"2010", "2011"},
		"variable": {"2m_temperature"},
	})

	res, err := d.Download(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, filepath.Join(dir, dataset+"-run-1.nc"), res.Path)
	assert.Equal(t, int64(len("netcdf-bytes")), res.Bytes)
	assert.Equal(t, "bucket/"+dataset+"/"+dataset+"-run-1.nc", res.Object)
	assert.Equal(t, res.Path, up.path)
	assert.Equal(t, int32(3), api.polls.Load())
	assert.Equal(t, []string{"2010", "2011"}, api.submitted()["year"])

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "netcdf-bytes", string(data))
}

func TestDownload_JobFailed(t *testing.T) {
	api := &fakeRetrieveAPI{finalState: StatusFailed}
	d, dir := newTestDownloader(t, api)

	_, err := d.Download(context.Background(), template.NewState("t", dataset))
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeUnavailable))

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWait_ContextCancelled(t *testing.T) {
	api := &fakeRetrieveAPI{readyAfter: 1 << 30, finalState: StatusSuccessful}
	d, _ := newTestDownloader(t, api, WithPollInterval(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Wait(ctx, "job-1")
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeTimeout))
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := NewDownloader(nil, "")
	target := filepath.Join(t.TempDir(), "x.nc")
	_, err := d.Fetch(context.Background(), srv.URL+"/missing.nc", target)
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeUnavailable))

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtension(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://host/cache/abc/data.zip", ".zip"},
		{"https://host/cache/abc/data.grib?x=1", ".grib"},
		{"https://host/cache/abc/noext", ""},
		{"://bad", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extension(tt.in), tt.in)
	}
}
