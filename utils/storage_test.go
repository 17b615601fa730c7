package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestGenerateStorageName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	name := GenerateStorageName("Invoice Scan.PDF", now)

	re := regexp.MustCompile(`^1700000000123-[0-9a-z]{1,8}\.pdf$`)
	if !re.MatchString(name) {
		t.Fatalf("unexpected storage name %q", name)
	}

	if other := GenerateStorageName("Invoice Scan.PDF", now); other == name {
		t.Errorf("two names generated in the same millisecond collided: %q", name)
	}
}

func TestGenerateStorageName_NoExtension(t *testing.T) {
	name := GenerateStorageName("README", time.UnixMilli(42))
	if !strings.HasPrefix(name, "42-") || strings.Contains(name, ".") {
		t.Errorf("got %q", name)
	}
}

func TestNormalizeFolderPath(t *testing.T) {
	cases := []struct {
		in, want string
		wantErr  bool
	}{
		{"", "", false},
		{"/Shipping line/MSC/", "Shipping line/MSC", false},
		{`FORM C30\\Apapa`, "FORM C30/Apapa", false},
		{"a//b///c", "a/b/c", false},
		{"a/../b", "", true},
		{"..", "", true},
		{"a/..b", "a/..b", false},
	}

	for _, tc := range cases {
		got, err := NormalizeFolderPath(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeFolderPath(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeFolderPath(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeFolderPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestObjectKey(t *testing.T) {
	if got := ObjectKey("", "x.pdf"); got != "x.pdf" {
		t.Errorf("root: got %q", got)
	}
	if got := ObjectKey("Policies", "x.pdf"); got != "Policies/x.pdf" {
		t.Errorf("nested: got %q", got)
	}
}
