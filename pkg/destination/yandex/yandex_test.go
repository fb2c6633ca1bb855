package yandex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkbackup/pkg/config"
	"vkbackup/pkg/destination"
	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
)

// fakeDisk mimics the parts of the Disk API the client uses
type fakeDisk struct {
	t      *testing.T
	server *httptest.Server

	mu           sync.Mutex
	folderStatus int
	uploadStatus int
	files        map[string]string
	opStatuses   []string
	opPolls      int
	copied       map[string]string
	lastEncoding []string
	lastLength   int64
}

func newFakeDisk(t *testing.T) *fakeDisk {
	d := &fakeDisk{
		t:            t,
		folderStatus: http.StatusCreated,
		uploadStatus: http.StatusCreated,
		files:        map[string]string{},
		copied:       map[string]string{},
	}
	d.server = httptest.NewServer(http.HandlerFunc(d.handle))
	t.Cleanup(d.server.Close)
	return d
}

func (d *fakeDisk) handle(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case r.URL.Path == "/v1/disk/resources" && r.Method == http.MethodPut:
		assert.Equal(d.t, "OAuth yd-token", r.Header.Get("Authorization"))
		w.WriteHeader(d.folderStatus)

	case r.URL.Path == "/v1/disk/resources/upload" && r.Method == http.MethodGet:
		assert.Equal(d.t, "OAuth yd-token", r.Header.Get("Authorization"))
		path := r.URL.Query().Get("path")
		json.NewEncoder(w).Encode(link{Href: d.server.URL + "/upload-target?p=" + path, Method: "PUT"})

	case r.URL.Path == "/upload-target" && r.Method == http.MethodPut:
		assert.Empty(d.t, r.Header.Get("Authorization"), "signed URL must not receive the token")
		body, _ := io.ReadAll(r.Body)
		d.files[r.URL.Query().Get("p")] = string(body)
		d.lastEncoding = r.TransferEncoding
		d.lastLength = r.ContentLength
		w.WriteHeader(d.uploadStatus)

	case r.URL.Path == "/v1/disk/resources/upload" && r.Method == http.MethodPost:
		d.copied[r.URL.Query().Get("path")] = r.URL.Query().Get("url")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(link{Href: d.server.URL + "/v1/disk/operations/op-1", Method: "GET"})

	case r.URL.Path == "/v1/disk/operations/op-1":
		status := "in-progress"
		if d.opPolls < len(d.opStatuses) {
			status = d.opStatuses[d.opPolls]
		}
		d.opPolls++
		json.NewEncoder(w).Encode(operation{Status: status})

	default:
		http.NotFound(w, r)
	}
}

func (d *fakeDisk) snapshot() (polls int, files, copied map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	files = make(map[string]string, len(d.files))
	for k, v := range d.files {
		files[k] = v
	}
	copied = make(map[string]string, len(d.copied))
	for k, v := range d.copied {
		copied[k] = v
	}
	return d.opPolls, files, copied
}

func (d *fakeDisk) client(pollTimeout time.Duration) *Client {
	return New(config.YandexConfig{
		Token:   "yd-token",
		BaseURL: d.server.URL + "/v1/disk/",
	}, config.PollingConfig{
		Interval:    time.Millisecond,
		MaxInterval: 5 * time.Millisecond,
		Multiplier:  2,
		Timeout:     pollTimeout,
	}, config.HTTPConfig{Timeout: 5 * time.Second}, logger.NewNopLogger())
}

func TestCreateFolder(t *testing.T) {
	disk := newFakeDisk(t)
	folder, err := disk.client(time.Second).CreateFolder(context.Background(), "ВКонтакте")
	require.NoError(t, err)
	assert.Equal(t, destination.Folder{Name: "ВКонтакте", Path: "ВКонтакте"}, folder)
}

func TestCreateFolderExisting(t *testing.T) {
	disk := newFakeDisk(t)
	disk.folderStatus = http.StatusConflict

	log := logger.NewTestLogger()
	c := disk.client(time.Second)
	c.logger = log

	_, err := c.CreateFolder(context.Background(), "ВКонтакте")
	require.NoError(t, err)
	assert.True(t, log.HasMessage("folder already exists"))
}

func TestCreateFolderErrors(t *testing.T) {
	disk := newFakeDisk(t)
	disk.folderStatus = http.StatusUnauthorized

	_, err := disk.client(time.Second).CreateFolder(context.Background(), "ВКонтакте")
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
}

func TestUploadFile(t *testing.T) {
	disk := newFakeDisk(t)
	c := disk.client(time.Second)

	err := c.UploadFile(context.Background(), destination.Folder{Path: "ВКонтакте"}, "12_1700000000.jpg", strings.NewReader("jpeg"), 4)
	require.NoError(t, err)
	_, files, _ := disk.snapshot()
	assert.Equal(t, "jpeg", files["ВКонтакте/12_1700000000.jpg"])
}

func TestUploadFileEmptyBodyIsNotChunked(t *testing.T) {
	disk := newFakeDisk(t)

	err := disk.client(time.Second).UploadFile(context.Background(), destination.Folder{Path: "f"}, "empty.jpg", strings.NewReader(""), 0)
	require.NoError(t, err)

	disk.mu.Lock()
	defer disk.mu.Unlock()
	assert.Empty(t, disk.lastEncoding)
	assert.Equal(t, int64(0), disk.lastLength)
	assert.Contains(t, disk.files, "f/empty.jpg")
}

func TestUploadFileRequires201(t *testing.T) {
	disk := newFakeDisk(t)
	disk.uploadStatus = http.StatusOK

	err := disk.client(time.Second).UploadFile(context.Background(), destination.Folder{Path: "f"}, "a.jpg", strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.True(t, errs.IsRemote(err))
}

func TestUploadURLSuccess(t *testing.T) {
	disk := newFakeDisk(t)
	disk.opStatuses = []string{"in-progress", "in-progress", "success"}

	err := disk.client(time.Second).UploadURL(context.Background(), destination.Folder{Path: "ВКонтакте"}, "1_2.jpg", "https://cdn.example/1.jpg")
	require.NoError(t, err)
	polls, _, copied := disk.snapshot()
	assert.Equal(t, 3, polls)
	assert.Equal(t, "https://cdn.example/1.jpg", copied["ВКонтакте/1_2.jpg"])
}

func TestUploadURLFailed(t *testing.T) {
	disk := newFakeDisk(t)
	disk.opStatuses = []string{"in-progress", "failed"}

	err := disk.client(time.Second).UploadURL(context.Background(), destination.Folder{Path: "f"}, "1_2.jpg", "https://cdn.example/1.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"failed"`)
}

func TestUploadURLTimesOut(t *testing.T) {
	disk := newFakeDisk(t)

	err := disk.client(30*time.Millisecond).UploadURL(context.Background(), destination.Folder{Path: "f"}, "1_2.jpg", "https://cdn.example/1.jpg")
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeTimeout, errs.TypeOf(err))
}

func TestClientCapabilities(t *testing.T) {
	c := newFakeDisk(t).client(time.Second)

	assert.True(t, destination.SupportsURL(c))
	assert.Equal(t, "Yandex.Disk", c.Name())
}
