// Package rewrite adjusts the header of an inbound message so it can be
// re-sent from a verified address.
package rewrite

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shineum/ses-forwarder/internal/email"
)

// DefaultPrefixKey is the subject prefix used when the first original
// recipient has no prefix of its own.
const DefaultPrefixKey = "Default"

var (
	// ErrMissingFromHeader is returned when the message has no From field.
	ErrMissingFromHeader = errors.New("missing From header")

	// ErrRewriteFailed is returned when the From address cannot be replaced.
	ErrRewriteFailed = errors.New("failed to rewrite from address")
)

// Settings holds the parts of the forwarding configuration the rewriter
// reads.
type Settings struct {
	// FromEmail replaces the sender address. When empty the first original
	// recipient is used.
	FromEmail string

	// SubjectPrefix maps an original recipient to the prefix added to the
	// subject. The DefaultPrefixKey entry applies to everyone else.
	SubjectPrefix map[string]string
}

// Rewriter applies the header transformations in a fixed order.
type Rewriter struct {
	settings Settings
}

// New creates a Rewriter.
func New(s Settings) *Rewriter {
	return &Rewriter{settings: s}
}

// Rewrite mutates msg in place. Later steps read the result of earlier ones:
//
//  1. add Reply-To from the original From
//  2. replace From and Return-Path with the verified address
//  3. prefix the Subject
//  4. remove Return-Path
//  5. remove Sender
//  6. remove DKIM-Signature
func (r *Rewriter) Rewrite(msg *email.Message, originalRecipients []string) error {
	if err := r.AddReplyTo(msg); err != nil {
		return err
	}
	if err := r.ReplaceFrom(msg, originalRecipients); err != nil {
		return err
	}
	r.AddSubjectPrefix(msg, originalRecipients)
	RemoveReturnPath(msg)
	RemoveSender(msg)
	StripDKIM(msg)
	return nil
}

// AddReplyTo drops any existing Reply-To field and appends a new one carrying
// the From value unchanged.
func (r *Rewriter) AddReplyTo(msg *email.Message) error {
	for _, prev := range msg.Header.RemoveAll("Reply-To") {
		slog.Info("removing existing reply-to header", "reply_to", prev.Unfolded())
	}

	from := msg.Header.Get("From")
	if from == nil {
		slog.Error("unable to extract from address")
		return ErrMissingFromHeader
	}

	replyTo := from.Rename("Reply-To")
	slog.Info("adding reply-to header", "reply_to", replyTo.Unfolded())
	msg.Header.Append(replyTo)
	return nil
}

// ReplaceFrom rewrites From so the original address becomes part of the
// display text, followed by the verified address in angle brackets. A
// Return-Path field, if present, is pointed at the verified address too.
func (r *Rewriter) ReplaceFrom(msg *email.Message, originalRecipients []string) error {
	from := msg.Header.Get("From")
	if len(originalRecipients) == 0 || from == nil {
		return fmt.Errorf("%w: recipients=%d, has_from=%t", ErrRewriteFailed, len(originalRecipients), from != nil)
	}

	addr := r.settings.FromEmail
	if addr == "" {
		addr = originalRecipients[0]
	}
	slog.Info("replacing from address",
		"original", from.Unfolded(),
		"replacement", addr,
	)

	msg.Header.Replace("From", email.NewField(from.Name, displayFrom(from.Unfolded())+"  <"+addr+">"))
	msg.Header.Replace("Return-Path", email.NewField("Return-Path", "<"+addr+">"))
	return nil
}

// displayFrom turns an address value into plain display text, so that
// "Some One <a@b.c>" reads "Some One at a@b.c".
func displayFrom(value string) string {
	v := strings.Trim(value, " \r\n\t")
	v = strings.ReplaceAll(v, "<", "at ")
	return strings.ReplaceAll(v, ">", "")
}

// AddSubjectPrefix prepends the prefix configured for the first original
// recipient. A message without a Subject is left alone.
func (r *Rewriter) AddSubjectPrefix(msg *email.Message, originalRecipients []string) {
	subject := msg.Header.Get("Subject")
	if subject == nil {
		return
	}

	prefix := r.prefixFor(originalRecipients)
	updated := email.NewField(subject.Name, prefix+subject.Value())
	updated.Continuations = subject.Continuations
	msg.Header.Replace("Subject", updated)
}

func (r *Rewriter) prefixFor(originalRecipients []string) string {
	if len(originalRecipients) > 0 {
		first := originalRecipients[0]
		if p, ok := r.settings.SubjectPrefix[first]; ok {
			return p
		}
		if p, ok := r.settings.SubjectPrefix[strings.ToLower(first)]; ok {
			return p
		}
	}
	return r.settings.SubjectPrefix[DefaultPrefixKey]
}

// RemoveReturnPath removes every Return-Path field. It runs after
// ReplaceFrom, so a rewritten Return-Path is removed as well.
func RemoveReturnPath(msg *email.Message) {
	msg.Header.RemoveAll("Return-Path")
}

// RemoveSender removes every Sender field.
func RemoveSender(msg *email.Message) {
	msg.Header.RemoveAll("Sender")
}

// StripDKIM removes every DKIM-Signature field together with its folded
// lines. Any header change invalidates the signature.
func StripDKIM(msg *email.Message) {
	msg.Header.RemoveAll("DKIM-Signature")
}
