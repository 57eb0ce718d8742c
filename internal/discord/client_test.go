package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
)

func TestCreateThreadInvitesUser(t *testing.T) {
	var memberPut string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bot tok", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/channels/c1/threads":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Compra - alice", body["name"])
			assert.Equal(t, float64(12), body["type"])
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"id": "t1"})
		case r.Method == http.MethodPut:
			memberPut = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(Config{BotToken: "tok", APIBase: srv.URL})
	id, err := c.CreateThread(context.Background(), "c1", "Compra - alice", "u1")
	require.NoError(t, err)
	assert.Equal(t, "t1", id)
	assert.Equal(t, "/channels/t1/thread-members/u1", memberPut)
}

func TestSendAndEditScreen(t *testing.T) {
	screen := domain.Screen(`{"type":17,"components":[]}`)
	var editBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/channels/t1/messages":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(flagComponentsV2), body["flags"])
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"id": "m1"})
		case r.Method == http.MethodPatch && r.URL.Path == "/channels/t1/messages/m1":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&editBody))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"id": "m1"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(Config{BotToken: "tok", APIBase: srv.URL})
	msgID, err := c.SendScreen(context.Background(), "t1", screen)
	require.NoError(t, err)
	require.Equal(t, "m1", msgID)

	err = c.EditScreen(context.Background(), domain.Anchor{ChannelID: "t1", MessageID: "m1"}, screen)
	require.NoError(t, err)
	assert.Equal(t, float64(flagComponentsV2), editBody["flags"])
}

func TestSendTextErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Config{BotToken: "tok", APIBase: srv.URL})
	err := c.SendText(context.Background(), "t1", "oi")
	assert.Error(t, err)
}
