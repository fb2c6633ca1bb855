// Package gdrive uploads photos to Google Drive through the v3 REST API.
package gdrive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"vkbackup/internal/httpclient"
	"vkbackup/pkg/config"
	"vkbackup/pkg/destination"
	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/retry"
)

const (
	DefaultAPIURL    = "https://www.googleapis.com/drive/v3/"
	DefaultUploadURL = "https://www.googleapis.com/upload/drive/v3/"

	folderMimeType   = "application/vnd.google-apps.folder"
	metadataMimeType = "application/json; charset=UTF-8"
	sniffLen         = 512
)

type fileMetadata struct {
	Name     string   `json:"name"`
	Parents  []string `json:"parents,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
}

type fileResource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client is a destination.Destination backed by Google Drive
type Client struct {
	http        *httpclient.Client
	apiURL      string
	uploadURL   string
	parentID    string
	folderPause time.Duration
	logger      logger.Logger
}

var _ destination.Destination = (*Client)(nil)

// New creates a Drive client authorised with the bearer token in cfg
func New(cfg config.GDriveConfig, httpCfg config.HTTPConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("destination", "gdrive")

	client := httpclient.New(httpCfg, log)
	client.SetHeader("Authorization", "Bearer "+cfg.Token)

	return &Client{
		http:        client,
		apiURL:      withSlash(cfg.APIURL, DefaultAPIURL),
		uploadURL:   withSlash(cfg.UploadURL, DefaultUploadURL),
		parentID:    cfg.ParentID,
		folderPause: cfg.FolderPause,
		logger:      log,
	}
}

// WithHTTPClient replaces the transport client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http.WithHTTPClient(hc)
	return c
}

func (c *Client) Name() string { return "Google Drive" }

// CreateFolder creates a folder under the configured parent. Drive allows
// duplicate names, so every call makes a new folder.
func (c *Client) CreateFolder(ctx context.Context, name string) (destination.Folder, error) {
	meta := fileMetadata{Name: name, MimeType: folderMimeType}
	if c.parentID != "" {
		meta.Parents = []string{c.parentID}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return destination.Folder{}, err
	}

	req, err := c.http.NewRequest(ctx, http.MethodPost, c.apiURL+"files", bytes.NewReader(payload))
	if err != nil {
		return destination.Folder{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var created fileResource
	if _, err := c.http.DoJSON(req, &created, http.StatusOK); err != nil {
		return destination.Folder{}, err
	}
	if created.ID == "" {
		return destination.Folder{}, errs.MissingData("folder %q was created without an id", name)
	}

	c.logger.InfoWithFields("folder created", map[string]interface{}{
		"name": name,
		"id":   created.ID,
	})

	if err := retry.Wait(ctx, c.folderPause); err != nil {
		return destination.Folder{}, err
	}
	return destination.Folder{Name: name, ID: created.ID}, nil
}

// UploadFile sends metadata and content in one multipart request. Only 200
// counts as success.
func (c *Client) UploadFile(ctx context.Context, folder destination.Folder, name string, body io.Reader, size int64) error {
	if folder.ID == "" {
		return errs.MissingData("folder %q has no id", folder.Name)
	}

	payload, contentType, err := buildMultipart(fileMetadata{Name: name, Parents: []string{folder.ID}}, body)
	if err != nil {
		return errs.LocalIO(err, "read %s", name)
	}

	req, err := c.http.NewRequest(ctx, http.MethodPost, c.uploadURL+"files?uploadType=multipart", payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	_, err = c.http.DoJSON(req, nil, http.StatusOK)
	return err
}

// buildMultipart assembles a multipart/related body: a JSON metadata part
// followed by the media part with a sniffed content type
func buildMultipart(meta fileMetadata, body io.Reader) (*bytes.Buffer, string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	head = head[:n]
	media := mimetype.Detect(head).String()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	metaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {metadataMimeType}})
	if err != nil {
		return nil, "", err
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, "", err
	}

	mediaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {media}})
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(mediaPart, io.MultiReader(bytes.NewReader(head), body)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf, "multipart/related; boundary=" + w.Boundary(), nil
}

func withSlash(u, fallback string) string {
	if u == "" {
		u = fallback
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}
