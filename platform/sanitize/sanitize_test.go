package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Backwash done", "Backwash done"},
		{"ampersand kept", "pH & chlorine ok", "pH & chlorine ok"},
		{"script removed", "<p>Filter cleaned</p><script>alert(1)</script>", "Filter cleaned"},
		{"encoded tag removed", "&lt;b&gt;skimmer&lt;/b&gt;", "skimmer"},
		{"whitespace collapsed", "  pump \n\n primed ", "pump primed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.in); got != tc.want {
				t.Fatalf("Text(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTextPtrNil(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatalf("expected nil")
	}
}
