package client

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) WalletBalance(ctx context.Context, mobile string) (float64, error) {
	if err := ValidateMobile(mobile); err != nil {
		return 0, err
	}

	var out struct {
		Balance float64 `json:"balance"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/wallet/balance?mobile="+url.QueryEscape(mobile), authUser, nil, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (c *Client) WalletHistory(ctx context.Context, mobile string) ([]Transaction, error) {
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}

	var out struct {
		History []Transaction `json:"history"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/wallet/history?mobile="+url.QueryEscape(mobile), authUser, nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

func (c *Client) Recharge(ctx context.Context, mobile string, amount float64) (*RechargeResponse, error) {
	return c.credit(ctx, "/wallet/recharge", mobile, amount)
}

// Dakshina is a voluntary contribution; it follows the recharge contract.
func (c *Client) Dakshina(ctx context.Context, mobile string, amount float64) (*RechargeResponse, error) {
	return c.credit(ctx, "/wallet/dakshina", mobile, amount)
}

func (c *Client) credit(ctx context.Context, path, mobile string, amount float64) (*RechargeResponse, error) {
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	var out RechargeResponse
	body := map[string]any{"mobile": mobile, "amount": amount}
	if err := c.doJSON(ctx, http.MethodPost, path, authUser, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
