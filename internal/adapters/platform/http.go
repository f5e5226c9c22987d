package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/time/rate"

	"github.com/socialdesk/core/internal/infrastructure/config"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

const (
	opSchedulePost = "schedule-post"
	opScheduleReel = "schedule-reel"
	opInsights     = "insights"
	opDeletePost   = "delete-post"
)

// HTTPClient talks to the scheduler service that fronts the Graph API.
// Write calls are multipart forms; the remote id comes back in a
// per-operation JSON field.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewHTTPClient creates a client for cfg.BaseURL
func NewHTTPClient(cfg config.PlatformConfig, log *logger.Logger) *HTTPClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return &HTTPClient{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: newLimiter(cfg),
		logger:  log.WithComponent("platform"),
	}
}

type formFile struct {
	field string
	media ports.MediaUpload
}

func (c *HTTPClient) SchedulePost(ctx context.Context, req ports.PublishRequest) (string, error) {
	fields := credentialFields(req.Channel)
	fields["message"] = req.Message
	if req.ScheduledTime != nil {
		fields["scheduled_time"] = strconv.FormatInt(req.ScheduledTime.Unix(), 10)
	}
	var file *formFile
	if req.Media != nil {
		file = &formFile{field: "file", media: *req.Media}
	}
	return c.postForm(ctx, req.Channel, opSchedulePost, "post_id", fields, file)
}

func (c *HTTPClient) ScheduleReel(ctx context.Context, req ports.ReelRequest) (string, error) {
	fields := credentialFields(req.Channel)
	fields["description"] = req.Description
	return c.postForm(ctx, req.Channel, opScheduleReel, "reel_id", fields, &formFile{field: "file", media: req.Video})
}

func (c *HTTPClient) FetchInsights(ctx context.Context, creds ports.ChannelCredentials) (*ports.Insights, error) {
	q := url.Values{"access_token": {creds.AccessToken}, "page_id": {creds.ChannelID}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+opInsights+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var insights ports.Insights
	if err := c.do(httpReq, creds, opInsights, &insights); err != nil {
		return nil, err
	}
	return &insights, nil
}

func (c *HTTPClient) DeletePost(ctx context.Context, creds ports.ChannelCredentials, remoteID string) error {
	body, err := json.Marshal(map[string]string{
		"post_id":      remoteID,
		"access_token": creds.AccessToken,
	})
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+opDeletePost, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq, creds, opDeletePost, nil)
}

func credentialFields(creds ports.ChannelCredentials) map[string]string {
	return map[string]string{
		"page_access_token": creds.AccessToken,
		"page_id":           creds.ChannelID,
	}
}

func (c *HTTPClient) postForm(ctx context.Context, creds ports.ChannelCredentials, op, idField string, fields map[string]string, file *formFile) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.media.Filename))
		h.Set("Content-Type", mimetype.Detect(file.media.Content).String())
		part, err := w.CreatePart(h)
		if err != nil {
			return "", err
		}
		if _, err := part.Write(file.media.Content); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	var out map[string]interface{}
	if err := c.do(httpReq, creds, op, &out); err != nil {
		return "", err
	}
	id, ok := out[idField].(string)
	if !ok || id == "" {
		return "", &ports.PlatformError{Platform: creds.Platform, Op: op, Message: "response carries no " + idField}
	}
	return id, nil
}

// do sends req and decodes a JSON body into out. Non-2xx answers become
// PlatformErrors; 429 and 5xx are retryable.
func (c *HTTPClient) do(req *http.Request, creds ports.ChannelCredentials, op string, out interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ports.PlatformError{Platform: creds.Platform, Op: op, Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &ports.PlatformError{Platform: creds.Platform, Op: op, Message: err.Error(), Retryable: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var remote struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &remote) == nil && remote.Error != "" {
			msg = remote.Error
		}
		c.logger.Warnw("Platform call failed", "op", op, "status", resp.StatusCode, "error", msg)
		return &ports.PlatformError{
			Platform:  creds.Platform,
			Op:        op,
			Message:   msg,
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ports.PlatformError{Platform: creds.Platform, Op: op, Message: "invalid response: " + err.Error()}
	}
	return nil
}

// New returns the client selected by cfg.Mode.
func New(cfg config.PlatformConfig, log *logger.Logger) ports.PlatformClient {
	if cfg.Mode == "http" {
		return NewHTTPClient(cfg, log)
	}
	return NewSimulatedClient(cfg, log)
}
