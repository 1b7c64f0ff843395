// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import (
	"testing"
)

func TestValidateContestID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"all contests", "ALL", false},
		{"single digit", "3", false},
		{"large id", "1234567890", false},

		{"empty", "", true},
		{"zero", "0", true},
		{"leading zero", "07", true},
		{"negative", "-1", true},
		{"lowercase all", "all", true}, // Sanitize handles case
		{"shell injection", "3; rm -rf ~", true},
		{"newline", "3\n4", true},
		{"too long", "12345678901", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContestID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateContestID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeContestID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{"empty means all", "", "ALL", false},
		{"lowercase all", "all", "ALL", false},
		{"spaces trimmed", "  12 ", "12", false},
		{"passthrough", "5", "5", false},
		{"invalid rejected", "five", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeContestID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizeContestID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("SanitizeContestID(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidateRemotePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"default location", "/usr/local/etc/cms.toml", false},
		{"cms dir", "/opt/cms/etc/cms.conf", false},

		{"empty", "", true},
		{"relative", "etc/cms.toml", true},
		{"directory", "/usr/local/etc/", true},
		{"root", "/", true},
		{"newline", "/etc/cms.toml\nrm", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRemotePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRemotePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
