package validate

import "testing"

// TestEmail accepts bare addresses only.
func TestEmail(t *testing.T) {
	if err := Email("user@example.com"); err != nil {
		t.Fatalf("Email: %v", err)
	}
	for _, bad := range []string{"", "user", "Bob <bob@example.com>", "a@"} {
		if err := Email(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

// TestEntryName refuses control characters.
func TestEntryName(t *testing.T) {
	if err := EntryName("photo.png"); err != nil {
		t.Fatalf("EntryName: %v", err)
	}
	if err := EntryName("bad\nname"); err == nil {
		t.Fatalf("expected control character to be rejected")
	}
}

// TestRootPath normalizes and rejects filesystem root.
func TestRootPath(t *testing.T) {
	got, err := RootPath("/tmp/files_manager/")
	if err != nil || got != "/tmp/files_manager" {
		t.Fatalf("got=%q err=%v", got, err)
	}
	if _, err := RootPath("/"); err == nil {
		t.Fatalf("expected filesystem root to be rejected")
	}
	if _, err := RootPath("relative/dir"); err == nil {
		t.Fatalf("expected relative path to be rejected")
	}
}
