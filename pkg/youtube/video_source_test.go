package youtube

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/plexutils/youtube-hydrator/internal/testutil"
	"github.com/plexutils/youtube-hydrator/pkg/metadata"
)

func TestVideoSourceFetchBatch(t *testing.T) {
	mock := testutil.NewMockTube()
	defer mock.Close()

	mock.AddVideo(testutil.VideoSeed{
		ID:          "dQw4w9WgXcQ",
		Title:       "Never Gonna Give You Up",
		Channel:     "Rick Astley",
		ChannelID:   "UCuAXFkgsw1L7xaCfnd5JJOw",
		Description: "The official video",
		Duration:    "PT3M33S",
		PublishedAt: "2009-10-25T06:57:33Z",
		Tags:        []string{"rick", "astley"},
		ViewCount:   1400000000,
		LikeCount:   16000000,
	})

	src := NewVideoSource(testutil.NewTestService(t, mock))

	records, err := src.FetchBatch(context.Background(), []string{"dQw4w9WgXcQ", "aaaaaaaaaaa"})
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if _, ok := records["aaaaaaaaaaa"]; ok {
		t.Error("unknown id should be absent from the result map")
	}

	rec, ok := records["dQw4w9WgXcQ"]
	if !ok {
		t.Fatal("record for dQw4w9WgXcQ missing")
	}
	if rec.Status != metadata.StatusOK {
		t.Errorf("Status = %q, want %q", rec.Status, metadata.StatusOK)
	}
	if rec.Kind != metadata.KindVideo {
		t.Errorf("Kind = %q, want %q", rec.Kind, metadata.KindVideo)
	}

	wantFields := map[string]string{
		"title":            "Never Gonna Give You Up",
		"channel":          "Rick Astley",
		"channel_id":       "UCuAXFkgsw1L7xaCfnd5JJOw",
		"description":      "The official video",
		"duration":         "PT3M33S",
		"duration_seconds": "213",
		"published_at":     "2009-10-25T06:57:33Z",
		"view_count":       "1400000000",
		"like_count":       "16000000",
		"tag_count":        "2",
	}
	for name, want := range wantFields {
		if got := rec.Field(name); got != want {
			t.Errorf("Field(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestVideoSourceFetchBatchEmpty(t *testing.T) {
	mock := testutil.NewMockTube()
	defer mock.Close()

	src := NewVideoSource(testutil.NewTestService(t, mock))

	records, err := src.FetchBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
	if got := mock.Requests(); got != 0 {
		t.Errorf("empty batch made %d requests, want 0", got)
	}
}

func TestVideoSourceFetchBatchTooLarge(t *testing.T) {
	mock := testutil.NewMockTube()
	defer mock.Close()

	src := NewVideoSource(testutil.NewTestService(t, mock))

	ids := make([]string, maxVideosPerCall+1)
	for i := range ids {
		ids[i] = "dQw4w9WgXcQ"
	}

	if _, err := src.FetchBatch(context.Background(), ids); err == nil {
		t.Fatal("expected error for oversized batch")
	}
	if got := mock.Requests(); got != 0 {
		t.Errorf("oversized batch made %d requests, want 0", got)
	}
}

func TestVideoSourceFetchBatchAPIError(t *testing.T) {
	mock := testutil.NewMockTube()
	defer mock.Close()
	mock.FailNext(http.StatusForbidden, "quotaExceeded")

	src := NewVideoSource(testutil.NewTestService(t, mock))

	_, err := src.FetchBatch(context.Background(), []string{"dQw4w9WgXcQ"})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not a *googleapi.Error", err)
	}
	if apiErr.Code != http.StatusForbidden {
		t.Errorf("Code = %d, want %d", apiErr.Code, http.StatusForbidden)
	}
	if len(apiErr.Errors) == 0 || apiErr.Errors[0].Reason != "quotaExceeded" {
		t.Errorf("Errors = %+v, want reason quotaExceeded", apiErr.Errors)
	}
}

func TestVideoSourceValidate(t *testing.T) {
	src := &VideoSource{}

	if err := src.Validate("dQw4w9WgXcQ"); err != nil {
		t.Errorf("Validate(valid) error = %v", err)
	}
	if err := src.Validate("nope"); err == nil {
		t.Error("Validate(invalid) expected error")
	}
}

func TestVideoSourceDescriptors(t *testing.T) {
	src := &VideoSource{}

	if got := src.Name(); got != "youtube_videos" {
		t.Errorf("Name() = %q", got)
	}
	if got := src.Kind(); got != metadata.KindVideo {
		t.Errorf("Kind() = %q", got)
	}
	if got := src.MaxBatchSize(); got != 50 {
		t.Errorf("MaxBatchSize() = %d, want 50", got)
	}
	if got := src.BatchCost(50); got != 1 {
		t.Errorf("BatchCost(50) = %d, want 1", got)
	}
}

func TestNewVideoSourceNilService(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil service")
		}
	}()
	NewVideoSource(nil)
}
