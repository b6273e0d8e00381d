package ses

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/ses-forwarder/internal/provider"
)

// mockSESClient implements SendEmailAPI for testing.
type mockSESClient struct {
	sendFn    func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	callCount int
	lastInput *sesv2.SendEmailInput
}

func (m *mockSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.callCount++
	m.lastInput = params
	if m.sendFn != nil {
		return m.sendFn(ctx, params, optFns...)
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("test-message-id")}, nil
}

const testRaw = "From: Some One at someone@someplace.com  <info@example.com>\r\n" +
	"Subject: [Info] hello\r\n" +
	"Reply-To: Some One <someone@someplace.com>\r\n" +
	"\r\n" +
	"Test message.\r\n"

func TestName(t *testing.T) {
	t.Parallel()
	p := NewWithClient(&mockSESClient{})
	if got := p.Name(); got != "ses" {
		t.Errorf("Name(): got %q, want %q", got, "ses")
	}
}

func TestSend_RawMessage(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient(mock)

	id, err := p.Send(context.Background(), &provider.Message{
		From: "info@example.com",
		To:   []string{"user1@example.com", "user2@example.com"},
		Data: []byte(testRaw),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id != "test-message-id" {
		t.Errorf("message id: got %q, want %q", id, "test-message-id")
	}
	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1", mock.callCount)
	}

	input := mock.lastInput
	if input.Content.Raw == nil {
		t.Fatal("expected raw email content, got nil")
	}
	if input.Content.Simple != nil {
		t.Error("expected no simple content")
	}
	if got := string(input.Content.Raw.Data); got != testRaw {
		t.Errorf("raw data: got %q, want %q", got, testRaw)
	}
	if got := aws.ToString(input.FromEmailAddress); got != "info@example.com" {
		t.Errorf("FromEmailAddress: got %q, want %q", got, "info@example.com")
	}
	if len(input.Destination.ToAddresses) != 2 {
		t.Errorf("ToAddresses: got %d, want 2", len(input.Destination.ToAddresses))
	}
	if len(input.Destination.CcAddresses) != 0 || len(input.Destination.BccAddresses) != 0 {
		t.Error("expected only ToAddresses in the destination")
	}
}

func TestSend_APIErrorNoRetry(t *testing.T) {
	t.Parallel()

	apiErr := &types.MessageRejected{Message: aws.String("Email address is not verified.")}
	mock := &mockSESClient{
		sendFn: func(_ context.Context, _ *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
			return nil, apiErr
		},
	}
	p := NewWithClient(mock)

	_, err := p.Send(context.Background(), &provider.Message{
		From: "info@example.com",
		To:   []string{"user1@example.com"},
		Data: []byte(testRaw),
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rejected *types.MessageRejected
	if !errors.As(err, &rejected) {
		t.Errorf("expected wrapped MessageRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "SES API request failed") {
		t.Errorf("error message: got %q", err.Error())
	}
	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1", mock.callCount)
	}
}

func TestSend_ContextPassedThrough(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "invocation")

	var seen any
	mock := &mockSESClient{
		sendFn: func(ctx context.Context, _ *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
			seen = ctx.Value(ctxKey{})
			return &sesv2.SendEmailOutput{}, nil
		},
	}

	id, err := NewWithClient(mock).Send(ctx, &provider.Message{From: "a@b", To: []string{"c@d"}, Data: []byte(testRaw)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" {
		t.Errorf("message id: got %q, want empty", id)
	}
	if seen != "invocation" {
		t.Errorf("context value: got %v", seen)
	}
}
