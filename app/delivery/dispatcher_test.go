package delivery

import (
	"context"
	"errors"
	"testing"
)

type fakeMailSender struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeMailSender) Send(ctx context.Context, bundlePath, subject, recipient string) error {
	f.sent = append(f.sent, recipient)
	if f.failFor[recipient] {
		return errors.New("smtp refused")
	}
	return nil
}

type fakeDirectSender struct {
	called   bool
	filename string
	err      error
}

func (f *fakeDirectSender) SendDocument(ctx context.Context, bundlePath, filename string) error {
	f.called = true
	f.filename = filename
	return f.err
}

func TestDispatcher_Deliver_AllSucceed(t *testing.T) {
	mail := &fakeMailSender{}
	direct := &fakeDirectSender{}
	dispatcher := NewDispatcher(mail, direct, "Daily News")

	report := dispatcher.Deliver(context.Background(), "/tmp/bundle.epub", "news_20260830.epub",
		[]string{"a@kindle.com", "b@kindle.com"})

	if len(report.Emails) != 2 {
		t.Fatalf("Expected 2 email outcomes, got %d", len(report.Emails))
	}
	for _, outcome := range report.Emails {
		if !outcome.OK {
			t.Errorf("Expected success for %s, got reason: %s", outcome.Target, outcome.Reason)
		}
	}
	if !report.Direct.OK {
		t.Errorf("Expected direct channel success")
	}
	if report.Failures() != 0 {
		t.Errorf("Expected 0 failures, got %d", report.Failures())
	}
	if direct.filename != "news_20260830.epub" {
		t.Errorf("Expected filename passed through, got %s", direct.filename)
	}
}

func TestDispatcher_Deliver_FailuresAreIndependent(t *testing.T) {
	mail := &fakeMailSender{failFor: map[string]bool{"a@kindle.com": true}}
	direct := &fakeDirectSender{}
	dispatcher := NewDispatcher(mail, direct, "Daily News")

	report := dispatcher.Deliver(context.Background(), "/tmp/bundle.epub", "news.epub",
		[]string{"a@kindle.com", "b@kindle.com"})

	// The failing recipient must not prevent the remaining attempts.
	if len(mail.sent) != 2 {
		t.Fatalf("Expected both recipients attempted, got %d", len(mail.sent))
	}
	if !direct.called {
		t.Errorf("Direct channel should still be attempted")
	}

	if report.Emails[0].OK {
		t.Errorf("Expected failure recorded for a@kindle.com")
	}
	if report.Emails[0].Reason == "" {
		t.Errorf("Expected a failure reason")
	}
	if !report.Emails[1].OK {
		t.Errorf("Expected success recorded for b@kindle.com")
	}
	if report.Failures() != 1 {
		t.Errorf("Expected 1 failure, got %d", report.Failures())
	}
}

func TestDispatcher_Deliver_DirectChannelFailure(t *testing.T) {
	mail := &fakeMailSender{}
	direct := &fakeDirectSender{err: errors.New("upload failed")}
	dispatcher := NewDispatcher(mail, direct, "Daily News")

	report := dispatcher.Deliver(context.Background(), "/tmp/bundle.epub", "news.epub",
		[]string{"a@kindle.com"})

	if report.Direct.OK {
		t.Errorf("Expected direct channel failure recorded")
	}
	if report.Direct.Target != "direct-channel" {
		t.Errorf("Expected direct-channel target, got %s", report.Direct.Target)
	}
	if report.Failures() != 1 {
		t.Errorf("Expected 1 failure, got %d", report.Failures())
	}
}

func TestDispatcher_Deliver_NoRecipients(t *testing.T) {
	mail := &fakeMailSender{}
	direct := &fakeDirectSender{}
	dispatcher := NewDispatcher(mail, direct, "Daily News")

	report := dispatcher.Deliver(context.Background(), "/tmp/bundle.epub", "news.epub", nil)

	if len(report.Emails) != 0 {
		t.Errorf("Expected no email outcomes, got %d", len(report.Emails))
	}
	if len(mail.sent) != 0 {
		t.Errorf("Expected no email attempts")
	}
	if !direct.called {
		t.Errorf("Direct channel should be attempted even without email recipients")
	}
}
