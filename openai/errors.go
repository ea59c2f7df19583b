// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// serviceError turns a non-2xx response into an [af.ServiceError] wrapping
// the sentinel that matches the failure.
func serviceError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	msg := eb.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	code := errorCode(eb.Error.Code)

	err := &af.ServiceError{StatusCode: resp.StatusCode, Code: code, Message: msg, Err: af.ErrService}
	switch {
	case code == "content_filter" || eb.Error.Type == "content_filter":
		err.Err = af.ErrContentFilter
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		err.Err = af.ErrAuth
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusUnprocessableEntity:
		err.Err = af.ErrInvalidRequest
	}
	return err
}

// errorCode formats the code field, which is a string, a number or null
// depending on the server.
func errorCode(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
