package client

import (
	"context"
	"net/http"
	"net/url"
)

type SendOTPResponse struct {
	Message string `json:"message"`
	// OTP is only present when the server echoes codes for development.
	OTP string `json:"otp,omitempty"`
}

func (c *Client) SendOTP(ctx context.Context, mobile string) (*SendOTPResponse, error) {
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}

	var out SendOTPResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/send-otp", authNone, map[string]string{"mobile": mobile}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyOTP(ctx context.Context, mobile, otp string) (*VerifyResponse, error) {
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}
	if err := ValidateOTP(otp); err != nil {
		return nil, err
	}

	var out VerifyResponse
	body := map[string]string{"mobile": mobile, "otp": otp}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/verify-otp", authNone, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, p Profile) (*RegisterResponse, error) {
	if err := ValidateMobile(p.Mobile); err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", authUser, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UserStatus(ctx context.Context, mobile string) (*StatusResponse, error) {
	if err := ValidateMobile(mobile); err != nil {
		return nil, err
	}

	var out StatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/user-status/"+url.PathEscape(mobile), authUser, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes every token of the caller.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", authUser, nil, nil)
}
