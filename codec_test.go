package xrtc

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// TestEncodeSetRequestWireShape verifies the serialized batch carries
// only portal id and payload, under the service's field names.
func TestEncodeSetRequestWireShape(t *testing.T) {
	items := []Item{
		{PortalID: "alpha", Payload: `{"v":1}`, ServerTimestamp: 99},
		{PortalID: "beta", Payload: "plain"},
	}

	body, err := encodeSetRequest(items, DefaultMaxBodyBytes)
	if err != nil {
		t.Fatalf("encodeSetRequest returned error: %v", err)
	}

	var wire map[string][]map[string]any
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	sent, ok := wire["items"]
	if !ok || len(sent) != 2 {
		t.Fatalf("expected 2 entries under \"items\", got %v", wire)
	}
	if sent[0]["portalid"] != "alpha" || sent[0]["payload"] != `{"v":1}` {
		t.Errorf("unexpected first entry: %v", sent[0])
	}
	if _, leaked := sent[0]["servertimestamp"]; leaked {
		t.Error("servertimestamp must not appear in a set request")
	}
}

// TestEncodeSetRequestValidation exercises the rejected batch shapes.
func TestEncodeSetRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		limit int
	}{
		{name: "empty batch", items: nil, limit: DefaultMaxBodyBytes},
		{name: "blank portal id", items: []Item{{PortalID: "", Payload: "x"}}, limit: DefaultMaxBodyBytes},
		{name: "oversized body", items: []Item{{PortalID: "p", Payload: strings.Repeat("x", 64)}}, limit: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encodeSetRequest(tt.items, tt.limit)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

// TestEncodeGetRequestOmitsDefaultSchedule verifies the LIFO default
// stays off the wire while FIFO is spelled out.
func TestEncodeGetRequestOmitsDefaultSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		want     string
		present  bool
	}{
		{name: "default", schedule: ScheduleLIFO},
		{name: "explicit FIFO", schedule: ScheduleFIFO, want: "FIFO", present: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := encodeGetRequest([]Portal{{ID: "p1"}}, tt.schedule, DefaultMaxBodyBytes)
			if err != nil {
				t.Fatalf("encodeGetRequest returned error: %v", err)
			}

			var wire map[string]any
			if err := json.Unmarshal(body, &wire); err != nil {
				t.Fatalf("request body is not valid JSON: %v", err)
			}
			got, present := wire["schedule"]
			if present != tt.present {
				t.Fatalf("schedule present = %v, want %v (body %s)", present, tt.present, body)
			}
			if tt.present && got != tt.want {
				t.Errorf("schedule = %v, want %q", got, tt.want)
			}
		})
	}
}

// TestEncodeGetRequestDeduplicates verifies repeated portal ids collapse
// to one query entry, keeping first appearance order.
func TestEncodeGetRequestDeduplicates(t *testing.T) {
	portals := []Portal{{ID: "b"}, {ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: "c"}}

	body, err := encodeGetRequest(portals, ScheduleLIFO, DefaultMaxBodyBytes)
	if err != nil {
		t.Fatalf("encodeGetRequest returned error: %v", err)
	}

	var wire getItemRequest
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	got := make([]string, len(wire.Portals))
	for i, p := range wire.Portals {
		got[i] = p.ID
	}
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d portals %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("portal order %v, want %v", got, want)
		}
	}
}

// TestEncodeGetRequestValidation exercises the rejected query shapes.
func TestEncodeGetRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		portals []Portal
		limit   int
	}{
		{name: "no portals", portals: nil, limit: DefaultMaxBodyBytes},
		{name: "blank portal id", portals: []Portal{{ID: "ok"}, {ID: ""}}, limit: DefaultMaxBodyBytes},
		{name: "oversized body", portals: []Portal{{ID: strings.Repeat("p", 64)}}, limit: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encodeGetRequest(tt.portals, ScheduleLIFO, tt.limit)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

// TestEncodeLoginRequest verifies the credential field names on the wire.
func TestEncodeLoginRequest(t *testing.T) {
	body, err := encodeLoginRequest(Credentials{accountID: "acc-1", apiKey: "key-1"})
	if err != nil {
		t.Fatalf("encodeLoginRequest returned error: %v", err)
	}

	var wire map[string]string
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	if wire["accountid"] != "acc-1" || wire["apikey"] != "key-1" {
		t.Errorf("unexpected login body: %s", body)
	}
}

// TestDecodeItems covers the valid response shapes, including the two
// spellings of an empty batch.
func TestDecodeItems(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "batch", body: `{"items":[{"portalid":"p","payload":"x","servertimestamp":1700000000000}]}`, want: 1},
		{name: "no items key", body: `{}`, want: 0},
		{name: "items null", body: `{"items":null}`, want: 0},
		{name: "items empty", body: `{"items":[]}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := decodeItems([]byte(tt.body), DefaultMaxBodyBytes, DefaultGetURL)
			if err != nil {
				t.Fatalf("decodeItems returned error: %v", err)
			}
			if len(items) != tt.want {
				t.Fatalf("got %d items, want %d", len(items), tt.want)
			}
		})
	}
}

// TestDecodeItemsFields verifies the item fields survive decoding.
func TestDecodeItemsFields(t *testing.T) {
	body := `{"items":[{"portalid":"p7","payload":"{\"temp\":21}","servertimestamp":1700000000123}]}`

	items, err := decodeItems([]byte(body), DefaultMaxBodyBytes, DefaultGetURL)
	if err != nil {
		t.Fatalf("decodeItems returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	got := items[0]
	if got.PortalID != "p7" || got.Payload != `{"temp":21}` || got.ServerTimestamp != 1700000000123 {
		t.Errorf("unexpected item: %+v", got)
	}
}

// TestDecodeItemsFailures verifies unusable bodies are decode errors,
// never empty batches.
func TestDecodeItemsFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		limit int
	}{
		{name: "empty body", body: "", limit: DefaultMaxBodyBytes},
		{name: "malformed JSON", body: `{"items":[`, limit: DefaultMaxBodyBytes},
		{name: "wrong items type", body: `{"items":"nope"}`, limit: DefaultMaxBodyBytes},
		{name: "oversized body", body: `{"items":[]}`, limit: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeItems([]byte(tt.body), tt.limit, DefaultGetURL)
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if derr.URL != DefaultGetURL {
				t.Errorf("DecodeError.URL = %q, want %q", derr.URL, DefaultGetURL)
			}
		})
	}
}

// TestDecodeLoginResponse verifies the timestamp field round-trips and
// garbage fails as a decode error.
func TestDecodeLoginResponse(t *testing.T) {
	resp, err := decodeLoginResponse([]byte(`{"servertimestamp":1700000000456}`), DefaultMaxBodyBytes, DefaultLoginURL)
	if err != nil {
		t.Fatalf("decodeLoginResponse returned error: %v", err)
	}
	if resp.ServerTimestamp != 1700000000456 {
		t.Errorf("ServerTimestamp = %d, want 1700000000456", resp.ServerTimestamp)
	}

	_, err = decodeLoginResponse([]byte("not json"), DefaultMaxBodyBytes, DefaultLoginURL)
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

// TestDecodeAPIError verifies structured service errors parse and
// everything else is reported as absent.
func TestDecodeAPIError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *APIError
	}{
		{
			name: "structured error",
			body: `{"error":{"errorgroup":3,"errorcode":12,"errormessage":"portal not provisioned"}}`,
			want: &APIError{Group: 3, Code: 12, Message: "portal not provisioned"},
		},
		{
			name: "message only",
			body: `{"error":{"errormessage":"slow down"}}`,
			want: &APIError{Message: "slow down"},
		},
		{name: "empty error object", body: `{"error":{}}`},
		{name: "unrelated JSON", body: `{"status":"bad"}`},
		{name: "not JSON", body: "Internal Server Error"},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeAPIError([]byte(tt.body))
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected no API error, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected an API error, got nil")
			}
			if got.Group != tt.want.Group || got.Code != tt.want.Code || got.Message != tt.want.Message {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
