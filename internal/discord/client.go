// Package discord is a minimal REST client covering the three operations
// this bot needs: fetch a message, reply to it, edit the reply. It
// implements the reconciliation engine's artifact sink.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	appLog "memocal/internal/log"
	"memocal/internal/reconcile"
)

const defaultBaseURL = "https://discord.com/api/v10"

// Message is the subset of a Discord message this bot reads.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Author    struct {
		ID  string `json:"id"`
		Bot bool   `json:"bot"`
	} `json:"author"`
}

type Client struct {
	httpc     *http.Client
	baseURL   string
	token     string
	userAgent string
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint; used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func NewClient(token string, opts ...Option) *Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	c := &Client{
		httpc:     &http.Client{Timeout: 15 * time.Second, Transport: tr},
		baseURL:   defaultBaseURL,
		token:     token,
		userAgent: "memocal (https://discord.com, v10)",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMessage retrieves a single message by channel and ID.
func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (Message, error) {
	var msg Message
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Me returns the bot's own user ID, used to ignore self-reactions.
func (c *Client) Me(ctx context.Context) (string, error) {
	var user struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/@me", nil, nil, &user); err != nil {
		return "", err
	}
	return user.ID, nil
}

// Create posts the rendered content as a reply to the origin message and
// returns the new message's ID.
func (c *Client) Create(ctx context.Context, channelID, originID string, content reconcile.Content) (string, error) {
	payload := messagePayload(content)
	payload["message_reference"] = map[string]any{"message_id": originID}
	payload["allowed_mentions"] = map[string]any{"replied_user": false}

	var msg Message
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.do(ctx, http.MethodPost, path, payload, attachment(content), &msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// Edit replaces the artifact's rendering in place. A missing or
// inaccessible target maps to reconcile.ErrArtifactNotFound.
func (c *Client) Edit(ctx context.Context, channelID, artifactID string, content reconcile.Content) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, artifactID)
	return c.do(ctx, http.MethodPatch, path, messagePayload(content), attachment(content), nil)
}

// filePart is one file uploaded alongside a message payload.
type filePart struct {
	name string
	body []byte
}

// attachment extracts the content's companion file, or nil when the
// rendering carries none.
func attachment(content reconcile.Content) *filePart {
	if content.FileBody == "" {
		return nil
	}
	name := content.FileName
	if name == "" {
		name = "event.ics"
	}
	return &filePart{name: name, body: []byte(content.FileBody)}
}

// messagePayload renders Content as a Discord embed plus, when the content
// carries a link control, a single link-button row. Components are always
// present so an edit to the withdrawn rendering clears the old button.
func messagePayload(content reconcile.Content) map[string]any {
	embed := map[string]any{"title": content.Title}
	if content.Body != "" {
		embed["description"] = content.Body
	}
	if len(content.Fields) > 0 {
		fields := make([]map[string]any, 0, len(content.Fields))
		for _, f := range content.Fields {
			fields = append(fields, map[string]any{
				"name":   f.Name,
				"value":  f.Value,
				"inline": false,
			})
		}
		embed["fields"] = fields
	}
	if content.Footer != "" {
		embed["footer"] = map[string]any{"text": content.Footer}
	}

	components := []map[string]any{}
	if content.LinkURL != "" {
		components = append(components, map[string]any{
			"type": 1, // action row
			"components": []map[string]any{{
				"type":  2, // button
				"style": 5, // link
				"label": content.LinkLabel,
				"url":   content.LinkURL,
			}},
		})
	}

	return map[string]any{
		"embeds":     []map[string]any{embed},
		"components": components,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload map[string]any, file *filePart, out any) error {
	var body io.Reader
	var contentType string
	if payload != nil {
		if file != nil {
			// Discord file uploads are multipart: the JSON goes into a
			// payload_json field and must declare the attachment slot.
			payload["attachments"] = []map[string]any{{"id": 0, "filename": file.name}}
			buf := &bytes.Buffer{}
			w := multipart.NewWriter(buf)
			data, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			if err := w.WriteField("payload_json", string(data)); err != nil {
				return err
			}
			fw, err := w.CreateFormFile("files[0]", file.name)
			if err != nil {
				return err
			}
			if _, err := fw.Write(file.body); err != nil {
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			body = buf
			contentType = w.FormDataContentType()
		} else {
			// No file: an explicit empty attachments list makes an edit
			// drop a previously uploaded file.
			payload["attachments"] = []map[string]any{}
			data, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			body = bytes.NewReader(data)
			contentType = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s %s: http %d: %w", method, path, resp.StatusCode, reconcile.ErrArtifactNotFound)
	case resp.StatusCode/100 != 2:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		appLog.Debug("discord request failed", "method", method, "path", path,
			"status", resp.StatusCode, "body", string(detail))
		return fmt.Errorf("%s %s: http %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return nil
}
