package mailbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticToken(token string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) { return token, nil }
}

func TestGmailClientFetchMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/gmail/v1/users/me/messages":
			assert.Equal(t, "in:inbox", r.URL.Query().Get("q"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"messages": []map[string]string{{"id": "m1"}, {"id": "m2"}},
			})
		case "/gmail/v1/users/me/messages/m1", "/gmail/v1/users/me/messages/m2":
			id := r.URL.Path[len("/gmail/v1/users/me/messages/"):]
			_ = json.NewEncoder(w).Encode(RawMessage{ID: id, ThreadID: "t1"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewGmailClient(log.New(os.Stdout), server.URL, staticToken("test-token"))

	raws, err := client.FetchMessages(context.Background(), Criteria{Query: "in:inbox"})
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, "m1", raws[0].ID)
	assert.Equal(t, "m2", raws[1].ID)
}

func TestGmailClientFetchMessagesFollowsPages(t *testing.T) {
	var listCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gmail/v1/users/me/messages":
			listCalls++
			switch r.URL.Query().Get("pageToken") {
			case "":
				_ = json.NewEncoder(w).Encode(map[string]any{
					"messages":      []map[string]string{{"id": "m1"}, {"id": "m2"}},
					"nextPageToken": "page-2",
				})
			case "page-2":
				_ = json.NewEncoder(w).Encode(map[string]any{
					"messages": []map[string]string{{"id": "m3"}},
				})
			default:
				http.NotFound(w, r)
			}
		default:
			id := r.URL.Path[len("/gmail/v1/users/me/messages/"):]
			_ = json.NewEncoder(w).Encode(RawMessage{ID: id, ThreadID: "t1"})
		}
	}))
	defer server.Close()

	client := NewGmailClient(log.New(os.Stdout), server.URL, staticToken("test-token"))

	raws, err := client.FetchMessages(context.Background(), Criteria{Query: "in:sent", MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, listCalls)
	require.Len(t, raws, 3)
	assert.Equal(t, "m3", raws[2].ID, "messages past the first page must not be dropped")
}

func TestGmailClientFetchThread(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/threads/t1", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []RawMessage{{ID: "m1", ThreadID: "t1"}, {ID: "m2", ThreadID: "t1"}},
		})
	}))
	defer server.Close()

	client := NewGmailClient(log.New(os.Stdout), server.URL, staticToken("test-token"))

	raws, err := client.FetchThread(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, raws, 2)
}

func TestGmailClientSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)

		var payload struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotEmpty(t, payload.Raw)

		_ = json.NewEncoder(w).Encode(SendResult{MessageID: "m9", ThreadID: "t9"})
	}))
	defer server.Close()

	client := NewGmailClient(log.New(os.Stdout), server.URL, staticToken("test-token"))

	result, err := client.SendMessage(context.Background(), "bob@y.com", "hello", "body")
	require.NoError(t, err)
	assert.Equal(t, "m9", result.MessageID)
	assert.Equal(t, "t9", result.ThreadID)
}

func TestGmailClientReauthRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewGmailClient(log.New(os.Stdout), server.URL, staticToken("expired"))

	_, err := client.FetchMessages(context.Background(), Criteria{Query: "in:inbox"})
	assert.ErrorIs(t, err, ErrReauthRequired)

	_, err = client.FetchThread(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrReauthRequired)
}

func TestGmailClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewGmailClient(log.New(os.Stdout), server.URL, staticToken("test-token"))

	_, err := client.FetchMessages(context.Background(), Criteria{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReauthRequired)
}
