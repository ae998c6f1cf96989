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

// maxChannelsPerCall is the Data API limit on ids per channels.list request.
const maxChannelsPerCall = 50

var _ fetch.Source = (*ChannelSource)(nil)

// ChannelSource fetches channel metadata through the Data API
// channels.list endpoint.
type ChannelSource struct {
	svc   *youtube.Service
	parts []string
}

// NewChannelSource wraps an authenticated Data API service.
func NewChannelSource(svc *youtube.Service) *ChannelSource {
	if svc == nil {
		panic("youtube: service cannot be nil")
	}
	return &ChannelSource{
		svc:   svc,
		parts: []string{"snippet", "statistics"},
	}
}

func (s *ChannelSource) Name() string { return "youtube_channels" }

func (s *ChannelSource) Kind() string { return metadata.KindChannel }

func (s *ChannelSource) MaxBatchSize() int { return maxChannelsPerCall }

// BatchCost reports the quota units one channels.list call consumes.
func (s *ChannelSource) BatchCost(n int) int64 { return 1 }

func (s *ChannelSource) Validate(id string) error {
	if !IsValidChannelID(id) {
		return fmt.Errorf("invalid channel id %q", id)
	}
	return nil
}

// FetchBatch resolves ids in a single channels.list call. Ids the API does
// not return are absent from the result map.
func (s *ChannelSource) FetchBatch(ctx context.Context, ids []string) (map[string]metadata.Record, error) {
	if len(ids) == 0 {
		return map[string]metadata.Record{}, nil
	}
	if len(ids) > maxChannelsPerCall {
		return nil, fmt.Errorf("batch of %d exceeds channels.list limit of %d", len(ids), maxChannelsPerCall)
	}

	resp, err := s.svc.Channels.List(s.parts).
		Id(strings.Join(ids, ",")).
		MaxResults(int64(len(ids))).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("channels.list: %w", err)
	}

	records := make(map[string]metadata.Record, len(resp.Items))
	for _, item := range resp.Items {
		records[item.Id] = channelRecord(item)
	}
	return records, nil
}

func channelRecord(c *youtube.Channel) metadata.Record {
	fields := make(map[string]string, 8)
	if c.Snippet != nil {
		fields["title"] = c.Snippet.Title
		fields["description"] = c.Snippet.Description
		fields["custom_url"] = c.Snippet.CustomUrl
		fields["published_at"] = c.Snippet.PublishedAt
		fields["country"] = c.Snippet.Country
	}
	if c.Statistics != nil {
		fields["view_count"] = strconv.FormatUint(c.Statistics.ViewCount, 10)
		fields["subscriber_count"] = strconv.FormatUint(c.Statistics.SubscriberCount, 10)
		fields["video_count"] = strconv.FormatUint(c.Statistics.VideoCount, 10)
	}
	return metadata.NewRecord(metadata.KindChannel, c.Id, fields)
}
