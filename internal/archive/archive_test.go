// ABOUTME: Tests for the raw batch archive round trip and listing order.
package archive

import (
	"testing"
)

func setupArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestPutGetRoundTrip(t *testing.T) {
	a := setupArchive(t)

	body := []byte(`{"metrics":[{"name":"bg","qty":112}]}`)
	key, err := a.Put("session-1", body)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := a.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(body) {
		t.Errorf("body = %q, want verbatim original", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	a := setupArchive(t)
	if _, err := a.Get("2025-01-15T00:00:00Z/nope"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestListChronological(t *testing.T) {
	a := setupArchive(t)

	for _, session := range []string{"s1", "s2", "s3"} {
		if _, err := a.Put(session, []byte("{}")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	entries, err := a.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i, want := range []string{"s1", "s2", "s3"} {
		if entries[i].SessionID != want {
			t.Errorf("entry %d session = %q, want %q", i, entries[i].SessionID, want)
		}
		if entries[i].ReceivedAt.IsZero() {
			t.Errorf("entry %d missing received-at", i)
		}
	}
}
