package config

import "testing"

func TestLogLevel(t *testing.T) {
	t.Setenv("OTK_LOG_LEVEL", "")
	if got := LogLevel(); got != DefaultLogLevel {
		t.Errorf("LogLevel() = %q, want %q", got, DefaultLogLevel)
	}

	t.Setenv("OTK_LOG_LEVEL", "DEBUG")
	if got := LogLevel(); got != "DEBUG" {
		t.Errorf("LogLevel() = %q, want DEBUG", got)
	}
}

func TestIndent(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"", "  "},
		{"4", "    "},
		{"tab", "\t"},
		{"TAB", "\t"},
		{"0", "  "},
		{"bogus", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("OTK_INDENT", tt.env)
			if got := Indent(); got != tt.want {
				t.Errorf("Indent() = %q, want %q", got, tt.want)
			}
		})
	}
}
