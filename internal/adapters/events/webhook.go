package events

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

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/translation-queue/internal/domain/model"
)

const maxWebhookErrorBody = 1024

// WebhookOptions configures a WebhookListener.
type WebhookOptions struct {
	URL string
	// Filter is an optional JMESPath expression; events for which it is not
	// truthy are dropped.
	Filter string
	// Body is an optional JMESPath projection used as the request body.
	// The whole event is sent when empty.
	Body       string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// WebhookListener POSTs events as JSON to an HTTP endpoint.
type WebhookListener struct {
	url    string
	filter string
	body   string
	client *http.Client
}

// NewWebhookListener compiles the expressions and returns a listener.
func NewWebhookListener(opts WebhookOptions) (*WebhookListener, error) {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return nil, errors.New("webhook URL is required")
	}

	w := &WebhookListener{
		url:    url,
		filter: strings.TrimSpace(opts.Filter),
		body:   strings.TrimSpace(opts.Body),
		client: opts.HTTPClient,
	}
	if w.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		w.client = &http.Client{Timeout: timeout}
	}

	if err := validate(w.filter); err != nil {
		return nil, fmt.Errorf("compile webhook filter: %w", err)
	}
	if err := validate(w.body); err != nil {
		return nil, fmt.Errorf("compile webhook body: %w", err)
	}
	return w, nil
}

func validate(expr string) error {
	if expr == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

// HandleTranslated implements core.EventListener.
func (w *WebhookListener) HandleTranslated(ctx context.Context, evt model.TranslatedEvent) error {
	doc, err := toDocument(evt)
	if err != nil {
		return err
	}

	if w.filter != "" {
		match, err := jmespath.Search(w.filter, doc)
		if err != nil {
			return fmt.Errorf("evaluate webhook filter: %w", err)
		}
		if !truthy(match) {
			return nil
		}
	}

	payload := any(doc)
	if w.body != "" {
		if payload, err = jmespath.Search(w.body, doc); err != nil {
			return fmt.Errorf("evaluate webhook body: %w", err)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxWebhookErrorBody))
		return fmt.Errorf("webhook responded %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// toDocument converts the event to the generic JSON shape JMESPath evaluates.
func toDocument(evt model.TranslatedEvent) (map[string]any, error) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return doc, nil
}

// truthy follows JMESPath truthiness: false, null, "" and empty collections are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
