package version

import "testing"

func TestString_NormalizesPrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no prefix", "1.2.0", "v1.2.0"},
		{"with v prefix", "v1.2.0", "v1.2.0"},
		{"dev", "dev", "vdev"},
		{"git describe", "v1.2.0-3-gabcdef", "v1.2.0-3-gabcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := Version
			defer func() { Version = original }()

			Version = tt.input
			if got := String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithRevision(t *testing.T) {
	tests := []struct {
		rev  string
		want string
	}{
		{"", "v1.0.0"},
		{"abc123", "v1.0.0 (abc123)"},
		{"0123456789abcdef0123", "v1.0.0 (0123456789ab)"},
	}
	for _, tt := range tests {
		if got := withRevision("v1.0.0", tt.rev); got != tt.want {
			t.Errorf("withRevision(%q) = %q, want %q", tt.rev, got, tt.want)
		}
	}
}
