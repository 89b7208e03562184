package client

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := ValidateMobile(req.Mobile); err != nil {
		return nil, err
	}
	if err := requireText("message", req.Message, "Please enter a message"); err != nil {
		return nil, err
	}
	if req.History == nil {
		req.History = []Turn{}
	}

	var out ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/chat", authUser, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EndChat(ctx context.Context, mobile string, history []Turn, sessionID string) (*EndChatResponse, error) {
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}
	if history == nil {
		history = []Turn{}
	}

	body := map[string]any{
		"mobile":     mobile,
		"history":    history,
		"session_id": sessionID,
	}
	var out EndChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/end-chat", authUser, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns stored sessions, most recent first.
func (c *Client) History(ctx context.Context, mobile string) ([]StoredSession, error) {
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}

	var out struct {
		Sessions []StoredSession `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/history/"+url.PathEscape(mobile), authUser, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, req FeedbackRequest) error {
	if err := ValidateMobile(req.Mobile); err != nil {
		return err
	}
	if err := ValidateRating(req.Rating); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, "/auth/feedback", authUser, req, nil)
}
