package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookPost(t *testing.T) {
	var gotType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("X-Event-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL, time.Second)
	err := hook.Post(context.Background(), "course.rated", map[string]any{"course_id": "c-1"})
	require.NoError(t, err)
	assert.Equal(t, "course.rated", gotType)
	assert.Equal(t, "c-1", gotBody["course_id"])
}

func TestWebhookRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, time.Second).Post(context.Background(), "course.enrolled", struct{}{})
	assert.ErrorContains(t, err, "502")
}

func TestSendGridMailer(t *testing.T) {
	var auth, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGridMailer("SG.key", "Learning Platform", "noreply@example.com")
	m.client.Request.BaseURL = srv.URL + "/v3/mail/send"

	err := m.Send(context.Background(), Email{
		ToName:    "Ada",
		ToAddress: "ada@example.com",
		Subject:   "Congratulations",
		Text:      "done",
		HTML:      "<p>done</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer SG.key", auth)
	assert.True(t, strings.Contains(body, "ada@example.com"))
}
