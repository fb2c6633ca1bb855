// Package bucket stores photos in an S3-compatible object bucket. A folder
// is a key prefix; creating one makes sure the bucket exists.
package bucket

import (
	"bufio"
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"vkbackup/pkg/config"
	"vkbackup/pkg/destination"
	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
)

// Client is a destination.Destination backed by a minio client
type Client struct {
	client *minio.Client
	bucket string
	region string
	logger logger.Logger
}

var _ destination.Destination = (*Client)(nil)

// New creates a bucket client. Endpoint may be given with or without a
// scheme; a scheme overrides cfg.UseSSL.
func New(cfg config.BucketConfig, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg.Bucket == "" {
		return nil, &errs.Error{Type: errs.ErrorTypeConfig, Message: "bucket name is required"}
	}

	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, err, "create bucket client for %s", cfg.Endpoint)
	}

	return &Client{
		client: mc,
		bucket: cfg.Bucket,
		region: cfg.Region,
		logger: log.WithFields(map[string]interface{}{
			"destination": "bucket",
			"bucket":      cfg.Bucket,
		}),
	}, nil
}

func (c *Client) Name() string { return "Bucket " + c.bucket }

// CreateFolder makes the bucket when it is missing and returns name as the
// key prefix
func (c *Client) CreateFolder(ctx context.Context, name string) (destination.Folder, error) {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return destination.Folder{}, translateError(err, "check bucket %s", c.bucket)
	}
	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
			return destination.Folder{}, translateError(err, "create bucket %s", c.bucket)
		}
		c.logger.Info("bucket created")
	}

	prefix := strings.Trim(name, "/")
	return destination.Folder{Name: name, Path: prefix}, nil
}

// UploadFile puts body at folder.Path/name with a sniffed content type
func (c *Client) UploadFile(ctx context.Context, folder destination.Folder, name string, body io.Reader, size int64) error {
	br := bufio.NewReaderSize(body, 512)
	head, _ := br.Peek(512)
	contentType := mimetype.Detect(head).String()

	key := path.Join(folder.Path, name)
	info, err := c.client.PutObject(ctx, c.bucket, key, br, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return translateError(err, "put %s", key)
	}

	c.logger.DebugWithFields("object stored", map[string]interface{}{
		"key":  key,
		"etag": info.ETag,
		"size": info.Size,
	})
	return nil
}

func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint, useSSL
	}
	return u.Host, u.Scheme == "https"
}

func translateError(err error, format string, args ...interface{}) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == 0 {
		return errs.Wrap(errs.ErrorTypeRemote, err, format, args...)
	}
	e := errs.Remote(resp.StatusCode, format, args...)
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		e.Type = errs.ErrorTypeAuth
	}
	e.Err = err
	return e
}
