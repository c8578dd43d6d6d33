package onesignal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"NeighborGuard/internal/modules/notification/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_PostsPayloadWithBasicAuth(t *testing.T) {
	var got map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"id":"abc","recipients":2}`))
	}))
	defer srv.Close()

	c := NewClient(Config{AppID: "app", APIKey: "key", Endpoint: srv.URL}, nil)
	err := c.Send(context.Background(), entity.PushMessage{
		Title:       "Alerta: furto",
		Body:        "bike stolen",
		Data:        map[string]interface{}{"notification_id": 7},
		ExternalIds: []string{"a@x.com", "b@x.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Basic key", auth)
	assert.Equal(t, "app", got["app_id"])
	assert.Equal(t, "push", got["channel_for_external_user_ids"])
	assert.Equal(t, []interface{}{"a@x.com", "b@x.com"}, got["include_external_user_ids"])
	assert.Equal(t, map[string]interface{}{"en": "Alerta: furto"}, got["headings"])
	assert.Equal(t, map[string]interface{}{"en": "bike stolen"}, got["contents"])
	assert.NotContains(t, got, "template_id")
}

func TestBuildPayload_TemplateReplacesText(t *testing.T) {
	p := buildPayload("app", entity.PushMessage{Title: "t", Body: "b", TemplateId: "tpl", ExternalIds: []string{"a"}})
	assert.Equal(t, "tpl", p.TemplateID)
	assert.Nil(t, p.Headings)
	assert.Nil(t, p.Contents)
	assert.NotNil(t, p.Data)
}

func TestSend_NonOKIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":["invalid app_id"]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{AppID: "app", APIKey: "key", Endpoint: srv.URL}, nil)
	err := c.Send(context.Background(), entity.PushMessage{ExternalIds: []string{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "invalid app_id")
}

func TestSend_TimeoutIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(Config{AppID: "app", APIKey: "key", Endpoint: srv.URL}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, c.Send(ctx, entity.PushMessage{ExternalIds: []string{"a"}}))
}

func TestSend_MissingCredentialsAndEmptyBatch(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL}, nil)
	assert.ErrorIs(t, c.Send(context.Background(), entity.PushMessage{ExternalIds: []string{"a"}}), ErrNotConfigured)

	c = NewClient(Config{AppID: "app", APIKey: "key", Endpoint: srv.URL}, nil)
	assert.NoError(t, c.Send(context.Background(), entity.PushMessage{}))
	assert.False(t, called)
}
