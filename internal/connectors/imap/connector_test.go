package imap

import (
	"testing"
	"time"

	"github.com/emersion/go-imap"
)

func TestSearchCriteriaLookback(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	criteria := searchCriteria(0, now)
	if !criteria.Since.IsZero() {
		t.Fatalf("no lookback configured but Since set: %v", criteria.Since)
	}
	if len(criteria.WithoutFlags) != 1 || criteria.WithoutFlags[0] != imap.SeenFlag {
		t.Fatalf("unseen filter missing: %v", criteria.WithoutFlags)
	}

	criteria = searchCriteria(7, now)
	want := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	if !criteria.Since.Equal(want) {
		t.Fatalf("Since = %v, want %v", criteria.Since, want)
	}
}

func TestFormatAddresses(t *testing.T) {
	got := formatAddresses([]*imap.Address{
		{PersonalName: "Acme Orders", MailboxName: "orders", HostName: "acme.example.com"},
		{MailboxName: "sales", HostName: "acme.example.com"},
	})
	want := "Acme Orders <orders@acme.example.com>, sales@acme.example.com"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	if got := formatAddresses(nil); got != "" {
		t.Fatalf("empty list formatted as %q", got)
	}
}
