package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) AdminLogin(ctx context.Context, username, password string) (*AdminLoginResponse, error) {
	if err := requireText("password", password, "Password is required"); err != nil {
		return nil, err
	}

	var out AdminLoginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/admin/login", authNone, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminLogout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/admin/logout", authAdmin, nil, nil)
}

func (c *Client) AdminUsers(ctx context.Context, limit, offset int) (*AdminUserPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/admin/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out AdminUserPage
	if err := c.doJSON(ctx, http.MethodGet, path, authAdmin, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminUser(ctx context.Context, mobile string) (*AdminUserDetail, error) {
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}

	var out AdminUserDetail
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(mobile), authAdmin, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminPrompts(ctx context.Context) ([]Prompt, error) {
	var out struct {
		Items []Prompt `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/admin/prompts", authAdmin, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) AdminUpdatePrompt(ctx context.Context, name, content string) (*Prompt, error) {
	if err := requireText("content", content, "Prompt content is required"); err != nil {
		return nil, err
	}

	var out Prompt
	body := map[string]string{"content": content}
	if err := c.doJSON(ctx, http.MethodPut, "/admin/prompts/"+url.PathEscape(name), authAdmin, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RAGUpload sends a document as the multipart field "file".
func (c *Client) RAGUpload(ctx context.Context, filename string, r io.Reader) (*RAGDocument, error) {
	if err := requireText("file", filename, "A document file is required"); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var out RAGDocument
	if err := c.do(ctx, http.MethodPost, "/admin/rag-test/upload", authAdmin, &buf, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RAGProcess(ctx context.Context, docID string) (*RAGDocument, error) {
	var out RAGDocument
	if err := c.doJSON(ctx, http.MethodPost, "/admin/rag-test/"+url.PathEscape(docID)+"/process", authAdmin, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RAGChat(ctx context.Context, docID, question string) (*RAGChatResponse, error) {
	if err := requireText("question", question, "Please enter a question"); err != nil {
		return nil, err
	}

	var out RAGChatResponse
	body := map[string]string{"question": question}
	if err := c.doJSON(ctx, http.MethodPost, "/admin/rag-test/"+url.PathEscape(docID)+"/chat", authAdmin, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
