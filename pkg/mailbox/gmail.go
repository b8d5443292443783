package mailbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const defaultGmailAPIURL = "https://gmail.googleapis.com"

var _ Provider = (*GmailClient)(nil)

// GmailClient talks to the Gmail REST API. OAuth itself is out of scope; the
// client only needs a way to obtain a bearer token.
type GmailClient struct {
	httpClient *http.Client
	logger     *log.Logger
	baseURL    string
	tokenFn    func(ctx context.Context) (string, error)
}

func NewGmailClient(logger *log.Logger, baseURL string, tokenFn func(ctx context.Context) (string, error)) *GmailClient {
	if baseURL == "" {
		baseURL = defaultGmailAPIURL
	}
	return &GmailClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokenFn:    tokenFn,
	}
}

// FetchMessages lists every message matching the criteria, following
// nextPageToken until the listing is exhausted, then fetches each message in
// full. MaxResults caps the page size, not the total.
func (g *GmailClient) FetchMessages(ctx context.Context, criteria Criteria) ([]RawMessage, error) {
	pageToken := criteria.PageToken

	var ids []string
	for {
		list, err := g.listPage(ctx, criteria, pageToken)
		if err != nil {
			return nil, err
		}
		for _, m := range list.Messages {
			ids = append(ids, m.ID)
		}
		if list.NextPageToken == "" {
			break
		}
		pageToken = list.NextPageToken
	}

	out := make([]RawMessage, 0, len(ids))
	for _, id := range ids {
		raw, err := g.fetchMessage(ctx, id)
		if err != nil {
			g.logger.Error("fetch message", "id", id, "error", err)
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

type messageList struct {
	Messages      []struct{ ID string } `json:"messages"`
	NextPageToken string                `json:"nextPageToken"`
}

func (g *GmailClient) listPage(ctx context.Context, criteria Criteria, pageToken string) (messageList, error) {
	maxResults := criteria.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	req, err := g.newRequest(ctx, http.MethodGet, "/gmail/v1/users/me/messages", nil)
	if err != nil {
		return messageList{}, err
	}
	q := req.URL.Query()
	q.Set("maxResults", fmt.Sprintf("%d", maxResults))
	if criteria.Query != "" {
		q.Set("q", criteria.Query)
	}
	for _, l := range criteria.LabelIDs {
		q.Add("labelIds", l)
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	req.URL.RawQuery = q.Encode()

	var list messageList
	if err := g.do(req, &list); err != nil {
		return messageList{}, err
	}
	return list, nil
}

func (g *GmailClient) FetchThread(ctx context.Context, threadID string) ([]RawMessage, error) {
	req, err := g.newRequest(ctx, http.MethodGet,
		fmt.Sprintf("/gmail/v1/users/me/threads/%s", threadID), nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("format", "full")
	req.URL.RawQuery = q.Encode()

	var thread struct {
		Messages []RawMessage `json:"messages"`
	}
	if err := g.do(req, &thread); err != nil {
		return nil, err
	}
	return thread.Messages, nil
}

func (g *GmailClient) SendMessage(ctx context.Context, to, subject, body string) (SendResult, error) {
	rfc822 := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body)
	payload, err := json.Marshal(map[string]string{
		"raw": base64.RawURLEncoding.EncodeToString([]byte(rfc822)),
	})
	if err != nil {
		return SendResult{}, err
	}

	req, err := g.newRequest(ctx, http.MethodPost, "/gmail/v1/users/me/messages/send", bytes.NewReader(payload))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var result SendResult
	if err := g.do(req, &result); err != nil {
		return SendResult{}, err
	}
	return result, nil
}

func (g *GmailClient) fetchMessage(ctx context.Context, id string) (RawMessage, error) {
	req, err := g.newRequest(ctx, http.MethodGet,
		fmt.Sprintf("/gmail/v1/users/me/messages/%s", id), nil)
	if err != nil {
		return RawMessage{}, err
	}
	q := req.URL.Query()
	q.Set("format", "full")
	req.URL.RawQuery = q.Encode()

	var raw RawMessage
	if err := g.do(req, &raw); err != nil {
		return RawMessage{}, err
	}
	return raw, nil
}

func (g *GmailClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	token, err := g.tokenFn(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtain access token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (g *GmailClient) do(req *http.Request, v any) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("gmail %s: status %d: %w", req.URL.Path, resp.StatusCode, ErrReauthRequired)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gmail %s: status %d: %s", req.URL.Path, resp.StatusCode, b)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
