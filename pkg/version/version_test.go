package version

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{name: "VersionSet", version: Version},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.version == "" {
				t.Fatal("Version must not be empty")
			}
			if !strings.HasPrefix(tt.version, "v") {
				t.Errorf("Version = %q, want a v-prefixed semver", tt.version)
			}
		})
	}
}
