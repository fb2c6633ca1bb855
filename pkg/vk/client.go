package vk

import (
	"context"
	"net/http"
	"net/url"

	"vkbackup/internal/httpclient"
	"vkbackup/pkg/config"
	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/ratelimit"
)

// Client fetches photo metadata from the VK API
type Client struct {
	http     *httpclient.Client
	baseURL  string
	token    string
	version  string
	pageSize int
	limiter  ratelimit.Limiter
	logger   logger.Logger
}

// NewClient creates a VK client. Page requests of FetchAll are spaced by
// cfg.PageDelay.
func NewClient(cfg config.VKConfig, httpCfg config.HTTPConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("component", "vk")

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return &Client{
		http:     httpclient.New(httpCfg, log),
		baseURL:  baseURL,
		token:    cfg.Token,
		version:  version,
		pageSize: pageSize,
		limiter:  ratelimit.NewInterval(cfg.PageDelay),
		logger:   log,
	}
}

// WithHTTPClient replaces the transport client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http.WithHTTPClient(hc)
	return c
}

// FetchRecent returns up to count of the newest profile photos of ownerID,
// in the order the API returns them
func (c *Client) FetchRecent(ctx context.Context, ownerID string, count int) ([]Photo, error) {
	c.logger.DebugWithFields("fetching profile photos", map[string]interface{}{
		"owner_id": ownerID,
		"count":    count,
	})

	page, err := c.call(ctx, methodPhotosGet, recentParams(ownerID, count))
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("fetched profile photos", map[string]interface{}{
		"owner_id": ownerID,
		"received": len(page.Items),
		"total":    page.Count,
	})
	return page.Items, nil
}

// FetchAll pages through every album of ownerID. The total reported by the
// first page bounds the loop; later changes to the total are ignored.
func (c *Client) FetchAll(ctx context.Context, ownerID string) ([]Photo, error) {
	var (
		photos []Photo
		total  int
	)

	for offset := 0; ; offset += c.pageSize {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := c.call(ctx, methodPhotosGetAll, allParams(ownerID, offset, c.pageSize))
		if err != nil {
			return nil, err
		}
		if offset == 0 {
			total = page.Count
		}
		photos = append(photos, page.Items...)

		c.logger.DebugWithFields("fetched photo page", map[string]interface{}{
			"owner_id": ownerID,
			"offset":   offset,
			"received": len(page.Items),
			"total":    total,
		})

		if offset+c.pageSize >= total || len(page.Items) == 0 {
			break
		}
	}

	c.logger.InfoWithFields("fetched all photos", map[string]interface{}{
		"owner_id": ownerID,
		"received": len(photos),
		"total":    total,
	})
	return photos, nil
}

// call performs one API method and unwraps the response envelope
func (c *Client) call(ctx context.Context, method string, params url.Values) (*photoPage, error) {
	params.Set("access_token", c.token)
	params.Set("v", c.version)

	var envelope photosResponse
	if err := c.http.GetJSON(ctx, methodURL(c.baseURL, method, params), &envelope); err != nil {
		return nil, err
	}

	if envelope.Error != nil {
		switch envelope.Error.Code {
		case errCodeAuthFailed, errCodeAccessDenied, errCodeValidation:
			return nil, errs.Auth(envelope.Error.Code, "%s: %s", method, envelope.Error.Message)
		default:
			return nil, errs.Remote(envelope.Error.Code, "%s: %s", method, envelope.Error.Message)
		}
	}
	if envelope.Response == nil {
		return nil, errs.Remote(0, "%s: response field missing", method)
	}
	return envelope.Response, nil
}
