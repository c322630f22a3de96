package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/lumenmarket/storefront-client/pkg/apierrors"
)

// successCode is the envelope sentinel the backend uses for success.
const successCode = 200

// envelope is the optional {code, message, data} wrapper on 2xx
// responses, plus the FastAPI error detail field seen on failures.
type envelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Detail  json.RawMessage `json:"detail"`
}

// classify maps a response to its payload or to exactly one error kind.
// It is pure: side effects are dispatched by the caller.
func classify(status int, body []byte, dev bool) (json.RawMessage, *apierrors.Error) {
	if status >= 200 && status < 300 {
		env, ok := parseEnvelope(body)
		if !ok || env.Code == nil {
			// No embedded status code: the body is the payload.
			return body, nil
		}
		if *env.Code != successCode {
			message := env.Message
			if message == "" {
				message = "operation failed"
			}
			return nil, apierrors.NewBusiness(*env.Code, message)
		}
		if len(env.Data) > 0 && !isJSONNull(env.Data) {
			return env.Data, nil
		}
		return nil, nil
	}
	return nil, apierrors.NewTransport(status, transportMessage(status, body, dev))
}

func transportMessage(status int, body []byte, dev bool) string {
	env, _ := parseEnvelope(body)
	detail := detailString(env)

	switch status {
	case http.StatusBadRequest:
		if detail != "" {
			return detail
		}
		return "invalid request parameters"
	case http.StatusUnauthorized:
		return "session expired, please log in again"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusNotFound:
		return "requested resource not found"
	case http.StatusUnprocessableEntity:
		if msgs := validationMessages(env); len(msgs) > 0 {
			return "validation failed: " + strings.Join(msgs, "; ")
		}
		if detail != "" {
			return "validation failed: " + detail
		}
		return "validation failed: check your input"
	case http.StatusInternalServerError:
		if dev && detail != "" {
			return detail
		}
		return "internal server error, please retry later"
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "service temporarily unavailable, please retry later"
	default:
		return fmt.Sprintf("request failed: %d", status)
	}
}

func parseEnvelope(body []byte) (envelope, bool) {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

// detailString flattens the FastAPI detail field, which may be a plain
// string, falling back to the envelope message.
func detailString(env envelope) string {
	if len(env.Detail) > 0 {
		var s string
		if err := json.Unmarshal(env.Detail, &s); err == nil {
			return s
		}
	}
	return env.Message
}

// validationMessages extracts per-field messages from a 422 detail
// array ([{"msg": ...}, ...]).
func validationMessages(env envelope) []string {
	if len(env.Detail) == 0 {
		return nil
	}
	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &entries); err != nil {
		return nil
	}
	msgs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Msg != "" {
			msgs = append(msgs, entry.Msg)
		}
	}
	return msgs
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
