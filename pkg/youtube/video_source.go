package youtube

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/youtube/v3"

	"github.com/plexutils/youtube-hydrator/pkg/fetch"
	"github.com/plexutils/youtube-hydrator/pkg/metadata"
)

// maxVideosPerCall is the Data API limit on ids per videos.list request.
const maxVideosPerCall = 50

var _ fetch.Source = (*VideoSource)(nil)

// VideoSource fetches video metadata through the Data API videos.list
// endpoint. One call resolves up to 50 ids and costs 1 quota unit
// regardless of how many ids it carries.
type VideoSource struct {
	svc   *youtube.Service
	parts []string
}

// NewVideoSource wraps an authenticated Data API service.
func NewVideoSource(svc *youtube.Service) *VideoSource {
	if svc == nil {
		panic("youtube: service cannot be nil")
	}
	return &VideoSource{
		svc:   svc,
		parts: []string{"snippet", "contentDetails", "statistics"},
	}
}

func (s *VideoSource) Name() string { return "youtube_videos" }

func (s *VideoSource) Kind() string { return metadata.KindVideo }

func (s *VideoSource) MaxBatchSize() int { return maxVideosPerCall }

// BatchCost reports the quota units one videos.list call consumes.
func (s *VideoSource) BatchCost(n int) int64 { return 1 }

func (s *VideoSource) Validate(id string) error {
	if !IsValidVideoID(id) {
		return fmt.Errorf("invalid video id %q", id)
	}
	return nil
}

// FetchBatch resolves ids in a single videos.list call. Ids the API does
// not return are absent from the result map.
func (s *VideoSource) FetchBatch(ctx context.Context, ids []string) (map[string]metadata.Record, error) {
	if len(ids) == 0 {
		return map[string]metadata.Record{}, nil
	}
	if len(ids) > maxVideosPerCall {
		return nil, fmt.Errorf("batch of %d exceeds videos.list limit of %d", len(ids), maxVideosPerCall)
	}

	resp, err := s.svc.Videos.List(s.parts).
		Id(strings.Join(ids, ",")).
		MaxResults(int64(len(ids))).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list: %w", err)
	}

	records := make(map[string]metadata.Record, len(resp.Items))
	for _, item := range resp.Items {
		records[item.Id] = videoRecord(item)
	}
	return records, nil
}

func videoRecord(v *youtube.Video) metadata.Record {
	fields := make(map[string]string, 10)
	if v.Snippet != nil {
		fields["title"] = v.Snippet.Title
		fields["channel"] = v.Snippet.ChannelTitle
		fields["channel_id"] = v.Snippet.ChannelId
		fields["description"] = v.Snippet.Description
		fields["published_at"] = v.Snippet.PublishedAt
		fields["tag_count"] = strconv.Itoa(len(v.Snippet.Tags))
	}
	if v.ContentDetails != nil {
		fields["duration"] = v.ContentDetails.Duration
		if d, err := ParseISODuration(v.ContentDetails.Duration); err == nil {
			fields["duration_seconds"] = strconv.FormatInt(int64(d.Seconds()), 10)
		}
	}
	if v.Statistics != nil {
		fields["view_count"] = strconv.FormatUint(v.Statistics.ViewCount, 10)
		fields["like_count"] = strconv.FormatUint(v.Statistics.LikeCount, 10)
	}
	return metadata.NewRecord(metadata.KindVideo, v.Id, fields)
}
