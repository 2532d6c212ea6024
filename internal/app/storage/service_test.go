package storage

import (
	"strings"
	"testing"

	"partyrelay/internal/pkg/errs"
)

func TestValidateSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		wantCode int
	}{
		{"zero", 0, errs.ErrInvalidParams},
		{"negative", -1, errs.ErrInvalidParams},
		{"one byte", 1, 0},
		{"at limit", MaxTransferSize, 0},
		{"over limit", MaxTransferSize + 1, errs.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customErr := ValidateSize(tt.size)
			if tt.wantCode == 0 {
				if customErr != nil {
					t.Errorf("ValidateSize(%d) = %v, want nil", tt.size, customErr)
				}
				return
			}
			if customErr == nil || customErr.Code != tt.wantCode {
				t.Errorf("ValidateSize(%d) = %v, want code %d", tt.size, customErr, tt.wantCode)
			}
		})
	}
}

func TestBuildKeyScopesToRoom(t *testing.T) {
	key := BuildKey("movie-night", "trailer.mp4")

	if !strings.HasPrefix(key, "movie-night/") {
		t.Errorf("key %q not prefixed with room", key)
	}
	if !strings.HasSuffix(key, "_trailer.mp4") {
		t.Errorf("key %q does not end with the file name", key)
	}
	if key == BuildKey("movie-night", "trailer.mp4") {
		t.Error("two keys for the same file collided")
	}
}

func TestBuildKeyStripsPathComponents(t *testing.T) {
	key := BuildKey("lobby", "../../etc/passwd")

	if !strings.HasPrefix(key, "lobby/") {
		t.Fatalf("key %q not prefixed with room", key)
	}
	if strings.Contains(key, "..") {
		t.Errorf("key %q carries path traversal components", key)
	}
	if !strings.HasSuffix(key, "_passwd") {
		t.Errorf("key %q does not end with the base name", key)
	}
}

func TestBuildKeyEmptyFileName(t *testing.T) {
	key := BuildKey("lobby", "   ")
	if !strings.HasSuffix(key, "_file") {
		t.Errorf("key %q missing placeholder base name", key)
	}
}

func TestKeyInRoom(t *testing.T) {
	if !KeyInRoom("lobby/abc_file.txt", "lobby") {
		t.Error("key in room reported as foreign")
	}
	if KeyInRoom("other/abc_file.txt", "lobby") {
		t.Error("foreign key reported as in room")
	}
	if KeyInRoom("lobbyx/abc_file.txt", "lobby") {
		t.Error("prefix check matched without the separator")
	}
}
