package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrTimeout = errors.New("crm timeout")
var ErrServer = errors.New("crm 5xx")
var ErrClient = errors.New("crm 4xx")
var ErrCircuitOpen = errors.New("circuit open")

// Client pushes enrollment status changes into the CRM. All calls are
// best-effort from the caller's point of view: a failed sync never rolls back
// a local transition.
type Client interface {
	UpdateRecord(ctx context.Context, module, recordID string, fields map[string]any) error
	AddNote(ctx context.Context, module, recordID, title, body string) error
}

// RESTClient talks to a Zoho-style records API:
// PUT  {base}/{module}/{id}          body {"data":[fields]}
// POST {base}/{module}/{id}/Notes    body {"data":[{"Note_Title","Note_Content"}]}
type RESTClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewRESTClient(baseURL, token string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) UpdateRecord(ctx context.Context, module, recordID string, fields map[string]any) error {
	if module == "" || recordID == "" {
		return fmt.Errorf("%w: module and record id are required", ErrClient)
	}
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, module, recordID)
	body := map[string]any{"data": []map[string]any{fields}}
	return c.do(ctx, http.MethodPut, url, body)
}

func (c *RESTClient) AddNote(ctx context.Context, module, recordID, title, body string) error {
	if module == "" || recordID == "" {
		return fmt.Errorf("%w: module and record id are required", ErrClient)
	}
	url := fmt.Sprintf("%s/%s/%s/Notes", c.baseURL, module, recordID)
	payload := map[string]any{"data": []map[string]any{{
		"Note_Title":   title,
		"Note_Content": body,
	}}}
	return c.do(ctx, http.MethodPost, url, payload)
}

func (c *RESTClient) do(ctx context.Context, method, url string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		var ne interface{ Timeout() bool }
		if errors.As(err, &ne) && ne.Timeout() {
			return ErrTimeout
		}
		return errors.Join(ErrServer, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	case resp.StatusCode == http.StatusRequestTimeout:
		return ErrTimeout
	default:
		return fmt.Errorf("%w: status %d", ErrClient, resp.StatusCode)
	}
}
