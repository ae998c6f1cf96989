package metadata

import (
	"errors"
	"testing"
	"time"
)

func TestNewRecord(t *testing.T) {
	fields := map[string]string{"title": "Test Video", "channel": "Test Channel"}
	rec := NewRecord(KindVideo, "dQw4w9WgXcQ", fields)

	if rec.ID != "dQw4w9WgXcQ" {
		t.Errorf("ID = %q, want %q", rec.ID, "dQw4w9WgXcQ")
	}
	if rec.Kind != KindVideo {
		t.Errorf("Kind = %q, want %q", rec.Kind, KindVideo)
	}
	if rec.Status != StatusOK {
		t.Errorf("Status = %q, want %q", rec.Status, StatusOK)
	}
	if !rec.OK() {
		t.Error("OK() = false, want true")
	}
	if rec.Field("title") != "Test Video" {
		t.Errorf("Field(title) = %q, want %q", rec.Field("title"), "Test Video")
	}
	if rec.FetchedAt.IsZero() {
		t.Error("FetchedAt should be set")
	}
	if time.Since(rec.FetchedAt) > time.Minute {
		t.Errorf("FetchedAt too old: %v", rec.FetchedAt)
	}
}

func TestNotFound(t *testing.T) {
	rec := NotFound(KindVideo, "missing12_-")

	if rec.Status != StatusNotFound {
		t.Errorf("Status = %q, want %q", rec.Status, StatusNotFound)
	}
	if rec.OK() {
		t.Error("OK() = true for not_found record")
	}
	if len(rec.Fields) != 0 {
		t.Errorf("Fields = %v, want empty", rec.Fields)
	}
}

func TestFailed(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr string
	}{
		{
			name:    "with error",
			err:     errors.New("connection reset"),
			wantErr: "connection reset",
		},
		{
			name:    "nil error",
			err:     nil,
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Failed(KindVideo, "someVideoID", tt.err)
			if rec.Status != StatusError {
				t.Errorf("Status = %q, want %q", rec.Status, StatusError)
			}
			if rec.Err != tt.wantErr {
				t.Errorf("Err = %q, want %q", rec.Err, tt.wantErr)
			}
		})
	}
}

func TestRecord_Field_Missing(t *testing.T) {
	rec := NotFound(KindVideo, "abc")
	if got := rec.Field("title"); got != "" {
		t.Errorf("Field(title) on empty record = %q, want empty", got)
	}
}

func TestRecord_Clone(t *testing.T) {
	rec := NewRecord(KindVideo, "dQw4w9WgXcQ", map[string]string{"title": "Original"})

	clone := rec.Clone()
	clone.Fields["title"] = "Mutated"

	if rec.Field("title") != "Original" {
		t.Errorf("mutating clone changed original: %q", rec.Field("title"))
	}
}

func TestRecord_Clone_NilFields(t *testing.T) {
	rec := NotFound(KindChannel, "UCabc")
	clone := rec.Clone()
	if clone.Fields != nil {
		t.Errorf("Clone of nil Fields = %v, want nil", clone.Fields)
	}
}
