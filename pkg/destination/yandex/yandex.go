// Package yandex uploads photos to Yandex.Disk through its REST API.
package yandex

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vkbackup/internal/httpclient"
	"vkbackup/pkg/config"
	"vkbackup/pkg/destination"
	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/retry"
)

// DefaultBaseURL is the root of the Disk REST API
const DefaultBaseURL = "https://cloud-api.yandex.net/v1/disk/"

const (
	statusInProgress = "in-progress"
	statusSuccess    = "success"
)

// link is the response of the upload URL and copy-from-URL requests
type link struct {
	Href      string `json:"href"`
	Method    string `json:"method"`
	Templated bool   `json:"templated"`
}

// operation is the response of an asynchronous operation status request
type operation struct {
	Status string `json:"status"`
}

// Client is a destination.Destination backed by Yandex.Disk
type Client struct {
	http        *httpclient.Client
	baseURL     string
	folderPause time.Duration
	polling     config.PollingConfig
	logger      logger.Logger
}

var (
	_ destination.Destination = (*Client)(nil)
	_ destination.URLUploader = (*Client)(nil)
)

// New creates a Yandex.Disk client authorised with cfg.Token
func New(cfg config.YandexConfig, polling config.PollingConfig, httpCfg config.HTTPConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("destination", "yandex")

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	client := httpclient.New(httpCfg, log)
	client.SetHeader("Authorization", "OAuth "+cfg.Token)

	return &Client{
		http:        client,
		baseURL:     baseURL,
		folderPause: cfg.FolderPause,
		polling:     polling,
		logger:      log,
	}
}

// WithHTTPClient replaces the transport client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http.WithHTTPClient(hc)
	return c
}

func (c *Client) Name() string { return "Yandex.Disk" }

// CreateFolder creates the folder at path name. An existing folder (409)
// is accepted.
func (c *Client) CreateFolder(ctx context.Context, name string) (destination.Folder, error) {
	req, err := c.http.NewRequest(ctx, http.MethodPut, c.resourceURL("resources", url.Values{"path": {name}}), nil)
	if err != nil {
		return destination.Folder{}, err
	}

	status, err := c.http.DoJSON(req, nil, http.StatusCreated, http.StatusConflict)
	if err != nil {
		return destination.Folder{}, err
	}

	if status == http.StatusConflict {
		c.logger.WarnWithFields("folder already exists", map[string]interface{}{"path": name})
	} else {
		c.logger.InfoWithFields("folder created", map[string]interface{}{"path": name})
	}

	if err := retry.Wait(ctx, c.folderPause); err != nil {
		return destination.Folder{}, err
	}
	return destination.Folder{Name: name, Path: name}, nil
}

// UploadFile requests a signed upload URL and PUTs body to it. Only 201
// counts as success.
func (c *Client) UploadFile(ctx context.Context, folder destination.Folder, name string, body io.Reader, size int64) error {
	target := joinPath(folder.Path, name)

	req, err := c.http.NewRequest(ctx, http.MethodGet, c.resourceURL("resources/upload", url.Values{"path": {target}}), nil)
	if err != nil {
		return err
	}
	var upload link
	if _, err := c.http.DoJSON(req, &upload); err != nil {
		return err
	}
	if upload.Href == "" {
		return errs.MissingData("upload link for %s has no href", target)
	}

	method := upload.Method
	if method == "" {
		method = http.MethodPut
	}
	// The signed URL carries its own credentials.
	put, err := http.NewRequestWithContext(ctx, method, upload.Href, body)
	if err != nil {
		return err
	}
	if size >= 0 {
		put.ContentLength = size
	}
	if size == 0 {
		put.Body = http.NoBody
	}

	_, err = c.http.DoJSON(put, nil, http.StatusCreated)
	return err
}

// UploadURL asks Disk to fetch sourceURL itself, then polls the operation
// until it leaves the in-progress state or the polling timeout elapses
func (c *Client) UploadURL(ctx context.Context, folder destination.Folder, name, sourceURL string) error {
	target := joinPath(folder.Path, name)

	req, err := c.http.NewRequest(ctx, http.MethodPost, c.resourceURL("resources/upload", url.Values{
		"path": {target},
		"url":  {sourceURL},
	}), nil)
	if err != nil {
		return err
	}
	var op link
	if _, err := c.http.DoJSON(req, &op); err != nil {
		return err
	}
	if op.Href == "" {
		return errs.MissingData("copy operation for %s has no status link", target)
	}

	var final string
	err = retry.Poll(ctx, c.polling, c.logger, func(ctx context.Context) (bool, error) {
		status, err := c.operationStatus(ctx, op.Href)
		if err != nil {
			return false, err
		}
		final = status
		return status != statusInProgress, nil
	})
	if err != nil {
		return err
	}

	if final != statusSuccess {
		return errs.Remote(0, "copy of %s finished with status %q", target, final)
	}
	return nil
}

func (c *Client) operationStatus(ctx context.Context, href string) (string, error) {
	var op operation
	if err := c.http.GetJSON(ctx, href, &op); err != nil {
		return "", err
	}
	if op.Status == "" {
		return "", errs.MissingData("operation status is empty")
	}
	return op.Status, nil
}

func (c *Client) resourceURL(path string, params url.Values) string {
	return c.baseURL + path + "?" + params.Encode()
}

func joinPath(folder, name string) string {
	if folder == "" {
		return name
	}
	return strings.TrimSuffix(folder, "/") + "/" + name
}
