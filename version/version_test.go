package version

import "testing"

func TestGetDefaultsToDev(t *testing.T) {
	info := Get()
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}
}

func TestGetShortensCommit(t *testing.T) {
	GitCommit = "0123456789abcdef"
	defer func() { GitCommit = "" }()

	info := Get()
	if info.GitCommit != "0123456" {
		t.Errorf("GitCommit = %q, want 7-char prefix", info.GitCommit)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"bare version", Info{Version: "dev"}, "dev"},
		{"with commit", Info{Version: "1.4.0", GitCommit: "ab12cd3"}, "1.4.0 (ab12cd3)"},
		{"dirty build", Info{Version: "1.4.0", GitCommit: "ab12cd3", Modified: true}, "1.4.0 (ab12cd3-dirty)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}
