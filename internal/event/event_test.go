package event

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

const testEvent = `{
  "Records": [
    {
      "eventSource": "aws:ses",
      "eventVersion": "1.0",
      "ses": {
        "mail": {
          "source": "someone@somedomain.com",
          "messageId": "3bnsm1c2akm1gded3speted0hpnglijt74jbd201",
          "destination": ["info@example.com"],
          "headers": [],
          "commonHeaders": {}
        },
        "receipt": {
          "recipients": ["info@example.com", "Members@example.com", "info@example.com"]
        }
      }
    }
  ]
}`

func TestParse(t *testing.T) {
	t.Parallel()

	in, err := Parse([]byte(testEvent))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if in.MessageID != "3bnsm1c2akm1gded3speted0hpnglijt74jbd201" {
		t.Errorf("MessageID: got %q", in.MessageID)
	}
	want := []string{"info@example.com", "Members@example.com", "info@example.com"}
	if !slices.Equal(in.Recipients, want) {
		t.Errorf("Recipients: got %v, want %v", in.Recipients, want)
	}
	if in.Mail.Source != "someone@somedomain.com" {
		t.Errorf("Mail.Source: got %q", in.Mail.Source)
	}
	if !slices.Equal(in.Mail.Destination, []string{"info@example.com"}) {
		t.Errorf("Mail.Destination: got %v", in.Mail.Destination)
	}
	if in.FirstRecipient() != "info@example.com" {
		t.Errorf("FirstRecipient: got %q", in.FirstRecipient())
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "hello"},
		{name: "no records key", raw: `{}`},
		{name: "empty records", raw: `{"Records": []}`},
		{name: "wrong source", raw: strings.Replace(testEvent, "aws:ses", "aws:s3", 1)},
		{name: "missing source", raw: strings.Replace(testEvent, `"eventSource": "aws:ses",`, "", 1)},
		{name: "unknown version", raw: strings.Replace(testEvent, `"1.0"`, `"2.0"`, 1)},
		{name: "missing version", raw: strings.Replace(testEvent, `"eventVersion": "1.0",`, "", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.raw))
			if !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("got %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestFromSimpleEmailEvent_NoRecipients(t *testing.T) {
	t.Parallel()

	ev := events.SimpleEmailEvent{Records: []events.SimpleEmailRecord{{
		EventSource:  Source,
		EventVersion: "1.0",
	}}}

	in, err := FromSimpleEmailEvent(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(in.Recipients) != 0 {
		t.Errorf("Recipients: got %v, want none", in.Recipients)
	}
	if in.FirstRecipient() != "" {
		t.Errorf("FirstRecipient: got %q, want empty", in.FirstRecipient())
	}
}

func TestFromSimpleEmailEvent_UsesFirstRecord(t *testing.T) {
	t.Parallel()

	first := events.SimpleEmailRecord{EventSource: Source, EventVersion: "1.0"}
	first.SES.Mail.MessageID = "first"
	second := events.SimpleEmailRecord{EventSource: Source, EventVersion: "1.0"}
	second.SES.Mail.MessageID = "second"

	in, err := FromSimpleEmailEvent(events.SimpleEmailEvent{Records: []events.SimpleEmailRecord{first, second}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.MessageID != "first" {
		t.Errorf("MessageID: got %q, want %q", in.MessageID, "first")
	}
}
