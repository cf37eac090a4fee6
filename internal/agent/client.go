package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/video"
)

// Defaults for a local backend.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 5 * time.Minute
)

// Endpoint paths.
const (
	EndpointUpload = "/upload"
	EndpointChat   = "/chat"
	EndpointHealth = "/"
)

// maxErrorBody caps how much of a failed response is read for the detail.
const maxErrorBody = 64 << 10

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	// Timeout bounds each whole request, including the upload body.
	Timeout time.Duration
	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", base)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: hc,
	}, nil
}

// BaseURL returns the normalized base URL, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload posts the video as multipart field "file". The body is streamed
// so large files are never held in memory.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (UploadResult, error) {
	const op = "upload video"

	pr, pw := io.Pipe()
	defer func() { _ = pr.Close() }()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeFilePart(mw, filepath.Base(name), r))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+EndpointUpload, pr)
	if err != nil {
		return UploadResult{}, &Error{Op: op, Kind: KindUpload, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	log.Debug(log.CatAgent, "Uploading video", "name", name, "url", req.URL.String())

	var result UploadResult
	if err := c.do(req, op, KindUpload, &result); err != nil {
		return UploadResult{}, err
	}
	if result.VideoID == "" {
		return UploadResult{}, &Error{Op: op, Kind: KindUpload, Err: fmt.Errorf("%w: empty video_id", ErrMalformedResponse)}
	}

	log.Info(log.CatAgent, "Video uploaded", "videoID", result.VideoID, "filename", result.Filename)
	return result, nil
}

func writeFilePart(mw *multipart.Writer, name string, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", video.ContentType(name))

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copying video: %w", err)
	}
	return mw.Close()
}

// Chat posts one message and returns the agent's reply.
func (c *Client) Chat(ctx context.Context, chatReq ChatRequest) (ChatReply, error) {
	const op = "send message"

	body, err := json.Marshal(chatReq)
	if err != nil {
		return ChatReply{}, &Error{Op: op, Kind: KindSend, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+EndpointChat, bytes.NewReader(body))
	if err != nil {
		return ChatReply{}, &Error{Op: op, Kind: KindSend, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Debug(log.CatAgent, "Sending message", "videoID", chatReq.VideoID, "threadID", chatReq.ThreadID, "len", len(chatReq.Message))

	var reply ChatReply
	if err := c.do(req, op, KindSend, &reply); err != nil {
		return ChatReply{}, err
	}
	return reply, nil
}

// Health probes the service root.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	const op = "health check"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+EndpointHealth, nil)
	if err != nil {
		return HealthStatus{}, &Error{Op: op, Kind: KindHealth, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	var status HealthStatus
	if err := c.do(req, op, KindHealth, &status); err != nil {
		return HealthStatus{}, err
	}
	return status, nil
}

// do executes req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, op string, kind Kind, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.ErrorErr(log.CatAgent, "Request failed", err, "op", op, "timeout", IsTimeout(err))
		return &Error{Op: op, Kind: kind, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		log.Warn(log.CatAgent, "Unexpected status", "op", op, "status", resp.StatusCode, "detail", detail)
		return &Error{Op: op, Kind: kind, StatusCode: resp.StatusCode, Detail: detail}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Kind: kind, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
	}
	return nil
}

// readDetail extracts FastAPI's {"detail": ...} from an error body. Detail
// is a string for HTTPException and a list for validation errors; anything
// else falls back to the trimmed raw body.
func readDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		return string(envelope.Detail)
	}
	return strings.TrimSpace(string(raw))
}

// IsTimeout reports whether err came from the transport deadline.
func IsTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
