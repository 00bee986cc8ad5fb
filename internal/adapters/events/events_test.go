package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/translation-queue/internal/domain/model"
	"github.com/target/translation-queue/internal/mocks"
)

func sampleEvent() model.TranslatedEvent {
	return model.TranslatedEvent{
		JobID:      "job-1",
		Source:     model.Entity{ID: "10", Type: model.ObjectTypePost, Lang: "en"},
		Target:     model.Entity{ID: "11", Type: model.ObjectTypePost, Lang: "fr", TranslationOf: "10"},
		Field:      "post_title",
		TargetLang: "fr",
		Value:      "Bonjour",
		OccurredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

type panicListener struct{}

func (panicListener) HandleTranslated(context.Context, model.TranslatedEvent) error {
	panic("boom")
}

func TestDispatcher_PublishDeliversToEveryListener(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockEventListener(ctrl)
	second := mocks.NewMockEventListener(ctrl)
	evt := sampleEvent()

	first.EXPECT().HandleTranslated(gomock.Any(), evt).Return(errors.New("first failed"))
	second.EXPECT().HandleTranslated(gomock.Any(), evt).Return(nil)

	d := NewDispatcher(nil, first, nil, second)
	assert.Equal(t, 2, d.Len())

	err := d.Publish(context.Background(), evt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first failed")
}

func TestDispatcher_RecoversListenerPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	after := mocks.NewMockEventListener(ctrl)
	after.EXPECT().HandleTranslated(gomock.Any(), gomock.Any()).Return(nil)

	d := NewDispatcher(nil)
	d.Register(panicListener{})
	d.Register(after)

	err := d.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestDispatcher_NoListeners(t *testing.T) {
	require.NoError(t, NewDispatcher(nil).Publish(context.Background(), sampleEvent()))
}

func TestLogListener(t *testing.T) {
	require.NoError(t, NewLogListener(nil).HandleTranslated(context.Background(), sampleEvent()))
}

func TestNewWebhookListener_Validation(t *testing.T) {
	_, err := NewWebhookListener(WebhookOptions{})
	require.Error(t, err)

	_, err = NewWebhookListener(WebhookOptions{URL: "http://x", Filter: "target_lang =="})
	require.Error(t, err)
}

func TestWebhookListener_PostsEvent(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	l, err := NewWebhookListener(WebhookOptions{URL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, l.HandleTranslated(context.Background(), sampleEvent()))

	assert.Equal(t, "job-1", received["job_id"])
	assert.Equal(t, "Bonjour", received["value"])
}

func TestWebhookListener_FilterAndProjection(t *testing.T) {
	var calls atomic.Int32
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &received))
	}))
	defer srv.Close()

	l, err := NewWebhookListener(WebhookOptions{
		URL:    srv.URL,
		Filter: "target_lang == 'fr'",
		Body:   "{id: target.id, lang: target_lang, text: value}",
	})
	require.NoError(t, err)

	require.NoError(t, l.HandleTranslated(context.Background(), sampleEvent()))
	assert.Equal(t, map[string]any{"id": "11", "lang": "fr", "text": "Bonjour"}, received)

	other := sampleEvent()
	other.TargetLang = "de"
	require.NoError(t, l.HandleTranslated(context.Background(), other))
	assert.Equal(t, int32(1), calls.Load(), "filtered events are not delivered")
}

func TestWebhookListener_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	l, err := NewWebhookListener(WebhookOptions{URL: srv.URL})
	require.NoError(t, err)

	err = l.HandleTranslated(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(false))
	assert.False(t, truthy(""))
	assert.False(t, truthy([]any{}))
	assert.False(t, truthy(map[string]any{}))
	assert.True(t, truthy(true))
	assert.True(t, truthy("x"))
	assert.True(t, truthy(0.0))
}
