package xrtc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire envelopes. Field names and casing follow the service's JSON
// contract; fields matching their defaults are omitted, which the
// service treats as the default.

type sentItem struct {
	PortalID string `json:"portalid"`
	Payload  string `json:"payload"`
}

type setItemRequest struct {
	Items []sentItem `json:"items"`
}

type getItemRequest struct {
	Portals  []Portal `json:"portals"`
	Schedule string   `json:"schedule,omitempty"`
}

type loginRequest struct {
	AccountID string `json:"accountid"`
	APIKey    string `json:"apikey"`
}

type loginResponse struct {
	ServerTimestamp int64 `json:"servertimestamp"`
}

type receivedData struct {
	Items []Item `json:"items"`
}

type receivedError struct {
	Error struct {
		Group   int    `json:"errorgroup"`
		Code    int    `json:"errorcode"`
		Message string `json:"errormessage"`
	} `json:"error"`
}

// encodeSetRequest validates and serializes an item batch.
//
// The batch must be non-empty and every item must carry a portal id.
// A serialized body larger than limit is rejected; nothing is sent.
func encodeSetRequest(items []Item, limit int) ([]byte, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Reason: "empty item batch"}
	}

	wire := setItemRequest{Items: make([]sentItem, len(items))}
	for i, item := range items {
		if item.PortalID == "" {
			return nil, &ValidationError{Reason: fmt.Sprintf("items[%d]: empty portal id", i)}
		}
		wire.Items[i] = sentItem{PortalID: item.PortalID, Payload: item.Payload}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, &ValidationError{Reason: "unserializable item batch: " + err.Error()}
	}
	if len(body) > limit {
		return nil, &ValidationError{Reason: fmt.Sprintf("request body is %d bytes, limit is %d", len(body), limit)}
	}
	return body, nil
}

// encodeGetRequest validates and serializes a portal query.
//
// At least one portal with a non-empty id is required. Duplicate portal
// ids collapse to one, preserving first appearance order. The default
// LIFO schedule is omitted from the wire form.
func encodeGetRequest(portals []Portal, schedule Schedule, limit int) ([]byte, error) {
	if len(portals) == 0 {
		return nil, &ValidationError{Reason: "no portals requested"}
	}

	seen := make(map[string]struct{}, len(portals))
	unique := make([]Portal, 0, len(portals))
	for i, p := range portals {
		if p.ID == "" {
			return nil, &ValidationError{Reason: fmt.Sprintf("portals[%d]: empty portal id", i)}
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		unique = append(unique, p)
	}

	wire := getItemRequest{Portals: unique}
	if schedule != "" && schedule != ScheduleLIFO {
		wire.Schedule = string(schedule)
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, &ValidationError{Reason: "unserializable portal query: " + err.Error()}
	}
	if len(body) > limit {
		return nil, &ValidationError{Reason: fmt.Sprintf("request body is %d bytes, limit is %d", len(body), limit)}
	}
	return body, nil
}

// encodeLoginRequest serializes the credential pair for the login call.
func encodeLoginRequest(creds Credentials) ([]byte, error) {
	body, err := json.Marshal(loginRequest{AccountID: creds.AccountID(), APIKey: creds.APIKey()})
	if err != nil {
		return nil, fmt.Errorf("serializing login request: %w", err)
	}
	return body, nil
}

// decodeItems interprets a 200 item/get response body.
//
// An empty body, a body larger than limit, and malformed JSON are all
// decode failures, distinct from an empty batch. A response with no
// "items" key, or with "items": null, is a valid empty batch.
func decodeItems(body []byte, limit int, url string) ([]Item, error) {
	if err := checkBody(body, limit); err != nil {
		return nil, &DecodeError{URL: url, Err: err}
	}
	var data receivedData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &DecodeError{URL: url, Err: err}
	}
	return data.Items, nil
}

// decodeLoginResponse interprets a 200 auth/login response body.
func decodeLoginResponse(body []byte, limit int, url string) (loginResponse, error) {
	if err := checkBody(body, limit); err != nil {
		return loginResponse{}, &DecodeError{URL: url, Err: err}
	}
	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return loginResponse{}, &DecodeError{URL: url, Err: err}
	}
	return resp, nil
}

// decodeAPIError attempts to parse a structured service error from a
// non-200 response body. Returns nil when the body carries none.
func decodeAPIError(body []byte) *APIError {
	var wire receivedError
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil
	}
	e := wire.Error
	if e.Group == 0 && e.Code == 0 && e.Message == "" {
		return nil
	}
	return &APIError{Group: e.Group, Code: e.Code, Message: e.Message}
}

// checkBody enforces the non-empty and size-limit preconditions shared
// by all response decoders.
func checkBody(body []byte, limit int) error {
	if len(body) == 0 {
		return errors.New("empty response body")
	}
	if len(body) > limit {
		return fmt.Errorf("response body is %d bytes, limit is %d", len(body), limit)
	}
	return nil
}
