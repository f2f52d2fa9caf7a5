package main

import (
	"testing"
)

func TestClassesCommand(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		wantJSON    bool
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "balanced",
			config:      "balanced",
			wantContain: []string{"Size Classes: Balanced", "(8 bytes)", "(16384 bytes)", "classes, largest 16 KiB"},
		},
		{
			name:        "fine grained",
			config:      "fine",
			wantContain: []string{"Size Classes: FineGrained", "(8 bytes)", "(16384 bytes)"},
		},
		{
			name:        "coarse",
			config:      "coarse",
			wantContain: []string{"Size Classes: Coarse", "(16384 bytes)"},
		},
		{
			name:        "json output",
			config:      "balanced",
			wantJSON:    true,
			wantContain: []string{`"Config": "Balanced"`, `"Classes"`},
		},
		{
			name:    "unknown config",
			config:  "jumbo",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			classesConfig = tt.config
			jsonOut = tt.wantJSON

			output, err := captureOutput(t, runClasses)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got output: %s", output)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantJSON {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}
