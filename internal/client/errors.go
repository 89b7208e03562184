package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GenericRetryMessage is shown for failures that carry no server detail.
const GenericRetryMessage = "Something went wrong. Please try again."

// ValidationError is raised before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RequestError is a non-2xx response. Detail is the server's message.
type RequestError struct {
	Status int
	Detail string
	Code   string
}

func (e *RequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed (%d %s): %s", e.Status, e.Code, e.Detail)
	}
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Detail)
}

// NetworkError covers timeouts and connectivity failures.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsRequest(err error) bool {
	var r *RequestError
	return errors.As(err, &r)
}

func IsNetwork(err error) bool {
	var n *NetworkError
	return errors.As(err, &n)
}

// HasCode reports whether err is a RequestError with the given code.
func HasCode(err error, code string) bool {
	var r *RequestError
	return errors.As(err, &r) && r.Code == code
}

// UserMessage converts any error into the text shown inline or in an alert.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}

	var r *RequestError
	if errors.As(err, &r) && r.Detail != "" {
		return r.Detail
	}

	return GenericRetryMessage
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Code   string          `json:"code"`
}

type fieldDetail struct {
	Msg string `json:"msg"`
}

// parseRequestError reads detail as either a string or a list of field
// errors, of which the first message wins.
func parseRequestError(status int, body []byte) *RequestError {
	reqErr := &RequestError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		reqErr.Code = eb.Code
		var s string
		var fields []fieldDetail
		switch {
		case json.Unmarshal(eb.Detail, &s) == nil:
			reqErr.Detail = s
		case json.Unmarshal(eb.Detail, &fields) == nil && len(fields) > 0:
			reqErr.Detail = fields[0].Msg
		}
	}

	if strings.TrimSpace(reqErr.Detail) == "" {
		reqErr.Detail = http.StatusText(status)
	}
	return reqErr
}
