// Package api is the typed client for the data-cleaning backend.
//
// Every call first asks its TokenSource for a fresh access token and sends it
// as a bearer token. Without a token the call fails with ErrUnauthenticated
// and nothing is sent. Calls are never retried.
package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// TokenSource yields the current user's access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client talks to the backend REST API.
type Client struct {
	http   *resty.Client
	tokens TokenSource
}

// Option configures a Client.
type Option func(*resty.Client)

// WithTimeout bounds every call. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		if d > 0 {
			c.SetTimeout(d)
		}
	}
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(hc)
	}
	return &Client{http: hc}
}

// WithTokens returns a client that authenticates with ts. The transport is shared.
func (c *Client) WithTokens(ts TokenSource) *Client {
	return &Client{http: c.http, tokens: ts}
}

func (c *Client) authorize(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", ErrUnauthenticated
	}
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}

// request builds an authorized request or fails before anything is sent.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	token, err := c.authorize(ctx)
	if err != nil {
		return nil, err
	}
	return c.http.R().SetContext(ctx).SetAuthToken(token), nil
}

func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("%w: %w", ErrNoResponse, err)}
	}
	if resp.IsError() {
		return &Error{Op: op, Status: resp.StatusCode(), Detail: parseDetail(resp.Body())}
	}
	return nil
}

// File is an upload payload.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Upload sends the file as multipart field "file". progress, when non-nil,
// receives whole percentages of bytes handed to the transport, only when the
// value changes. It is called from a single goroutine and never after Upload
// returns.
func (c *Client) Upload(ctx context.Context, f File, progress func(int)) (*UploadResult, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	body := &progressReader{r: f.Body, total: f.Size, report: progress}

	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(writeFilePart(mw, f, body))
	}()
	defer func() {
		pr.Close()
		<-done
	}()

	var out UploadResult
	resp, err := req.
		SetHeader("Content-Type", mw.FormDataContentType()).
		SetBody(pr).
		SetResult(&out).
		Post("/upload")
	if err := check("upload", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, f File, body io.Reader) error {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

// GetProfile fetches the column profile of an uploaded dataset.
func (c *Client) GetProfile(ctx context.Context, sessionID string) (*ProfileResult, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var out ProfileResult
	resp, err := req.SetPathParam("session_id", sessionID).SetResult(&out).Get("/profile/{session_id}")
	if err := check("profile", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// CleanData runs the cleaning pipeline with the given options.
func (c *Client) CleanData(ctx context.Context, sessionID string, opts CleanOptions) (*CleanResult, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	body := struct {
		SessionID string `json:"session_id"`
		CleanOptions
	}{sessionID, opts}

	var out CleanResult
	resp, err := req.SetBody(body).SetResult(&out).Post("/clean")
	if err := check("clean", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAudit returns the recorded operations for a session.
func (c *Client) GetAudit(ctx context.Context, sessionID string) ([]AuditLog, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var out struct {
		Success bool       `json:"success"`
		Logs    []AuditLog `json:"logs"`
	}
	resp, err := req.SetPathParam("session_id", sessionID).SetResult(&out).Get("/audit/{session_id}")
	if err := check("audit", resp, err); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// DownloadFile streams the cleaned file. The caller must close the body.
func (c *Client) DownloadFile(ctx context.Context, sessionID string) (io.ReadCloser, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.
		SetPathParam("session_id", sessionID).
		SetHeader("Accept", "*/*").
		SetDoNotParseResponse(true).
		Get("/download/{session_id}")
	if err != nil {
		return nil, check("download", resp, err)
	}

	body := resp.RawBody()
	if resp.IsError() {
		defer body.Close()
		detail, _ := io.ReadAll(io.LimitReader(body, 64<<10))
		return nil, &Error{Op: "download", Status: resp.StatusCode(), Detail: parseDetail(detail)}
	}
	return body, nil
}

// GetFeatures asks the backend for derived-column suggestions.
func (c *Client) GetFeatures(ctx context.Context, sessionID string) (*FeatureSuggestions, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var out FeatureSuggestions
	resp, err := req.
		SetBody(map[string]string{"session_id": sessionID}).
		SetResult(&out).
		Post("/features")
	if err := check("features", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}
