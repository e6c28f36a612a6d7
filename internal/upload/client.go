package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	libraryhttp "github.com/feildrixliemdra/library-admin/internal/http"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// Result describes a stored file.
type Result struct {
	URL    string `json:"url"    yaml:"url"`
	FileID string `json:"fileId" yaml:"fileId"`
	Name   string `json:"name"   yaml:"name"`
	Size   int64  `json:"size"   yaml:"size"`
}

// AuthSource supplies upload parameters.
type AuthSource interface {
	AuthParams(ctx context.Context) (*AuthParams, error)
}

// AuthParams implements AuthSource by signing locally.
func (s *Signer) AuthParams(_ context.Context) (*AuthParams, error) {
	return s.Sign()
}

// RemoteAuth fetches upload parameters from an auth endpoint such as the one
// served by NewRouter.
type RemoteAuth struct {
	client *libraryhttp.Client
	path   string
}

// NewRemoteAuth creates an AuthSource for the endpoint URL.
func NewRemoteAuth(endpoint string, opts ...libraryhttp.Option) (*RemoteAuth, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid auth endpoint %q", constants.ErrUploadAuthFailed, endpoint)
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = constants.UploadAuthPath
	}

	base := parsed.Scheme + "://" + parsed.Host

	return &RemoteAuth{client: libraryhttp.NewClient(base, opts...), path: path}, nil
}

// AuthParams implements AuthSource.
func (a *RemoteAuth) AuthParams(ctx context.Context) (*AuthParams, error) {
	resp, err := a.client.Get(ctx, a.path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrUploadAuthFailed, err)
	}

	var params AuthParams

	if resp.NoBody() {
		return nil, fmt.Errorf("%w: %w", constants.ErrUploadAuthFailed, library.ErrUnexpectedContentType)
	}

	err = json.Unmarshal(resp.Body, &params)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding parameters: %w", constants.ErrUploadAuthFailed, err)
	}

	if params.Token == "" || params.Signature == "" {
		return nil, fmt.Errorf("%w: incomplete parameters", constants.ErrUploadAuthFailed)
	}

	return &params, nil
}

// Client uploads files to the storage provider.
type Client struct {
	publicKey string
	uploadURL string
	folder    string
	tags      []string
	auth      AuthSource
	client    *retryablehttp.Client
	logger    library.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUploadURL overrides the provider's upload endpoint.
func WithUploadURL(uploadURL string) Option {
	return func(c *Client) {
		c.uploadURL = uploadURL
	}
}

// WithFolder sets the destination folder.
func WithFolder(folder string) Option {
	return func(c *Client) {
		c.folder = folder
	}
}

// WithTags sets the tags attached to uploaded files.
func WithTags(tags ...string) Option {
	return func(c *Client) {
		c.tags = tags
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.client.HTTPClient = httpClient
	}
}

// WithLogger sets the logger.
func WithLogger(logger library.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an uploader for the account identified by publicKey.
func NewClient(publicKey string, auth AuthSource, opts ...Option) (*Client, error) {
	if publicKey == "" {
		return nil, constants.ErrPublicKeyRequired
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.UploadHTTPTimeout

	c := &Client{
		publicKey: publicKey,
		uploadURL: constants.DefaultUploadURL,
		folder:    constants.UploadFolder,
		tags:      strings.Split(constants.UploadTags, ","),
		auth:      auth,
		client:    retryClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// UploadFile uploads the file at path under its base name.
func (c *Client) UploadFile(ctx context.Context, path string) (*Result, error) {
	if path == "" {
		return nil, constants.ErrFileRequired
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return c.Upload(ctx, filepath.Base(path), file)
}

// Upload uploads the contents of r as fileName.
func (c *Client) Upload(ctx context.Context, fileName string, r io.Reader) (*Result, error) {
	params, err := c.auth.AuthParams(ctx)
	if err != nil {
		return nil, err
	}

	body, contentType, err := c.encode(fileName, r, params)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.logDebug("uploading file", map[string]interface{}{"name": fileName, "folder": c.folder})

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		return nil, &library.NetworkError{Method: http.MethodPost, URL: c.uploadURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := library.NewAPIError(resp.StatusCode, resp.Status, resp.Header.Get("Content-Type"), respBody)

		return nil, fmt.Errorf("%w: %w", constants.ErrUploadFailed, apiErr)
	}

	var result Result

	err = json.Unmarshal(respBody, &result)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", constants.ErrUploadFailed, err)
	}

	return &result, nil
}

func (c *Client) encode(fileName string, r io.Reader, params *AuthParams) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}

	_, err = io.Copy(part, r)
	if err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}

	fields := [][2]string{
		{"fileName", fileName},
		{"publicKey", c.publicKey},
		{"token", params.Token},
		{"expire", strconv.FormatInt(params.Expire, 10)},
		{"signature", params.Signature},
		{"folder", c.folder},
		{"tags", strings.Join(c.tags, ",")},
	}

	for _, field := range fields {
		err = w.WriteField(field[0], field[1])
		if err != nil {
			return nil, "", fmt.Errorf("writing %s: %w", field[0], err)
		}
	}

	err = w.Close()
	if err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

func (c *Client) logDebug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}
