package mailbox

import (
	"encoding/base64"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/jaytaylor/html2text"

	"github.com/salesloop/salesloop/pkg/threads"
)

// Normalize converts one raw provider message into a canonical Email. It
// never fails: missing headers become empty strings, undecodable bodies
// become empty bodies, and unparsable dates become the zero time so they
// sort earliest.
func Normalize(raw RawMessage) threads.Email {
	h := headerMap(raw.Payload.Headers)

	date, err := mail.ParseDate(h["date"])
	if err != nil {
		date = parseInternalDate(raw.InternalDate)
	}

	plain, html := extractParts(raw.Payload.Parts)

	if plain == "" && html == "" && raw.Payload.Body.Data != "" {
		switch {
		case strings.HasPrefix(raw.Payload.MimeType, "text/plain"):
			plain, _ = decodeBase64URL(raw.Payload.Body.Data)
		case strings.HasPrefix(raw.Payload.MimeType, "text/html"):
			decoded, _ := decodeBase64URL(raw.Payload.Body.Data)
			html, _ = html2text.FromString(decoded, html2text.Options{OmitLinks: true, TextOnly: true})
		}
	}

	body := plain
	if body == "" {
		body = html
	}

	return threads.Email{
		ID:       raw.ID,
		ThreadID: raw.ThreadID,
		From:     h["from"],
		To:       h["to"],
		Subject:  h["subject"],
		Snippet:  raw.Snippet,
		Body:     strings.TrimSpace(body),
		Date:     date,
		LabelIDs: append([]string(nil), raw.LabelIDs...),
	}
}

// NormalizeAll converts a raw message batch, preserving order.
func NormalizeAll(raws []RawMessage) []threads.Email {
	out := make([]threads.Email, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

// extractParts walks the MIME tree collecting the first text/plain and the
// first text/html part. Plain text wins when both exist.
func extractParts(parts []Part) (plain, html string) {
	for _, p := range parts {
		switch {
		case p.MimeType == "text/plain" && plain == "":
			plain, _ = decodeBase64URL(p.Body.Data)
		case strings.HasPrefix(p.MimeType, "text/html") && html == "":
			decoded, _ := decodeBase64URL(p.Body.Data)
			if t, err := html2text.FromString(decoded, html2text.Options{OmitLinks: true, TextOnly: true}); err == nil {
				html = t
			}
		case strings.HasPrefix(p.MimeType, "multipart/"):
			np, nh := extractParts(p.Parts)
			if plain == "" {
				plain = np
			}
			if html == "" {
				html = nh
			}
		}
	}
	return plain, html
}

func headerMap(headers []Header) map[string]string {
	h := make(map[string]string, len(headers))
	for _, v := range headers {
		key := strings.ToLower(v.Name)
		if _, ok := h[key]; !ok {
			h[key] = v.Value
		}
	}
	return h
}

// parseInternalDate reads the provider's epoch-milliseconds timestamp,
// used as a fallback when the Date header is missing or malformed.
func parseInternalDate(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// decodeBase64URL decodes the provider's base64url body encoding, tolerating
// both padded and unpadded input.
func decodeBase64URL(s string) (string, error) {
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	s = strings.ReplaceAll(s, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	b, err := base64.StdEncoding.DecodeString(s)
	return string(b), err
}
