package email

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRecipients_UnmarshalString(t *testing.T) {
	var req SendRequest
	if err := json.Unmarshal([]byte(`{"to": "one@example.com"}`), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual([]string(req.To), []string{"one@example.com"}) {
		t.Errorf("expected single recipient, got %v", req.To)
	}
}

func TestRecipients_UnmarshalArray(t *testing.T) {
	var req SendRequest
	if err := json.Unmarshal([]byte(`{"to": ["a@example.com", "b@example.com"]}`), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.To) != 2 {
		t.Errorf("expected 2 recipients, got %v", req.To)
	}
}

func TestRecipients_UnmarshalEmptyString(t *testing.T) {
	var req SendRequest
	if err := json.Unmarshal([]byte(`{"to": ""}`), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.To) != 0 {
		t.Errorf("expected no recipients, got %v", req.To)
	}
}

func TestRecipients_UnmarshalInvalid(t *testing.T) {
	var req SendRequest
	if err := json.Unmarshal([]byte(`{"to": 42}`), &req); err == nil {
		t.Error("expected error for numeric to field")
	}
}

func TestSendRequest_InlineSettingsOverrides(t *testing.T) {
	var req SendRequest
	payload := `{"to": "a@example.com", "subject": "hi", "text": "b", "smtpHost": "smtp.inline.example"}`
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.SMTPHost != "smtp.inline.example" {
		t.Errorf("expected inline settings override, got %q", req.SMTPHost)
	}
}

func TestMissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  SendRequest
		want []string
	}{
		{
			"all missing",
			SendRequest{},
			[]string{"to", "subject", "text or html"},
		},
		{
			"complete with text",
			SendRequest{To: Recipients{"a@example.com"}, Subject: "hi", Text: "body"},
			nil,
		},
		{
			"complete with html",
			SendRequest{To: Recipients{"a@example.com"}, Subject: "hi", HTML: "<p>body</p>"},
			nil,
		},
		{
			"blank recipients",
			SendRequest{To: Recipients{"  ", ""}, Subject: "hi", Text: "body"},
			[]string{"to"},
		},
		{
			"whitespace subject",
			SendRequest{To: Recipients{"a@example.com"}, Subject: "  ", Text: "body"},
			[]string{"subject"},
		},
		{
			"no body",
			SendRequest{To: Recipients{"a@example.com"}, Subject: "hi"},
			[]string{"text or html"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.req.MissingFields()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MissingFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessage_TrimsRecipients(t *testing.T) {
	req := SendRequest{
		To:      Recipients{" a@example.com ", "", "b@example.com"},
		Subject: " hi ",
		Text:    "body",
	}

	msg := req.message()
	if !reflect.DeepEqual(msg.To, []string{"a@example.com", "b@example.com"}) {
		t.Errorf("expected trimmed recipients, got %v", msg.To)
	}
	if msg.Subject != "hi" {
		t.Errorf("expected trimmed subject, got %q", msg.Subject)
	}
}
