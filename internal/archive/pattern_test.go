package archive

import "testing"

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.log", "app.log", true},
		{"*.log", "dir/app.log", true}, // '*' crosses '/'
		{"/tmp/*", "/tmp/foo/bar", true},
		{"/tmp/*", "/var/foo", false},
		{"/home/?/.cache/*", "/home/alice/.cache/x", true},
		{"/home/?/.cache/*", "/home/al/ice/.cache/x", false}, // '?' excludes '/'
		{"/home/?/.cache/*", "/home//.cache/x", false},       // '?' needs 1+ chars
		{"file?.txt", "file1.txt", true},
		{"file?.txt", "file12.txt", true}, // '?' matches one OR MORE
		{"file?.txt", "file.txt", false},  // needs at least one char
		{"exact", "exact", true},
		{"exact", "exactly", false},
		{"", "", true},
		{"", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.path, func(t *testing.T) {
			p := NewPattern(tt.pattern)
			if got := p.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) against pattern %q = %v, want %v", tt.path, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestMatchAny(t *testing.T) {
	pats := []Pattern{NewPattern("*.tmp"), NewPattern("/proc/*")}

	if !MatchAny(pats, "/proc/1/stat") {
		t.Error("MatchAny() = false, want true for /proc/*")
	}
	if !MatchAny(pats, "cache.tmp") {
		t.Error("MatchAny() = false, want true for *.tmp")
	}
	if MatchAny(pats, "/etc/passwd") {
		t.Error("MatchAny() = true, want false")
	}
	if MatchAny(nil, "anything") {
		t.Error("MatchAny(nil, ...) = true, want false")
	}
}

func TestBuiltinExclusions(t *testing.T) {
	pats := BuiltinExclusions()
	if len(pats) != 5 {
		t.Fatalf("BuiltinExclusions() returned %d patterns, want 5", len(pats))
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/home/bob/.cache/thumbnails", true},
		{"/home/bob/snap/firefox/common/.cache/foo", true},
		{"/tmp/scratch", true},
		{"/dev/null", true},
		{"/proc/self/status", true},
		{"/srv/data/file", false},
	}
	for _, tt := range tests {
		if got := MatchAny(pats, tt.path); got != tt.want {
			t.Errorf("MatchAny(builtin, %q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPattern_String(t *testing.T) {
	p := NewPattern("*.log")
	if got := p.String(); got != "*.log" {
		t.Errorf("String() = %q, want %q", got, "*.log")
	}
}
