// Package watchhist folds YouTube Takeout watch-history records into channel
// and video rankings plus a monthly trend. Takeout does not record watch
// durations, so a configurable per-video estimate stands in whenever a record
// carries none; totals are best-effort by design and flagged as estimates to
// the end user.
package watchhist

import (
	"sort"
	"time"

	"herd-tracker-go/internal/normalize"
	"herd-tracker-go/internal/ranking"
	"herd-tracker-go/internal/types"
)

// DefaultEstimateMinutes is the fallback effective duration per watched
// video. A policy constant, not a measured truth; callers may override.
const DefaultEstimateMinutes = 8

const rankingSize = 10

// record is one watch event after field-fallback normalization.
type record struct {
	title       string
	titleURL    string
	channelName string
	channelURL  string
	minutes     float64
	ts          time.Time
	hasTS       bool
}

// normalizeRecord resolves the alternate field spellings Takeout and older
// exports use. ok=false means the record has no identity at all (neither
// title nor URL) and is dropped entirely.
func normalizeRecord(m map[string]any, estimate float64) (record, bool) {
	r := record{
		title:       normalize.Str(m, "title", "name"),
		titleURL:    normalize.Str(m, "titleUrl", "url", "title_url"),
		channelName: normalize.Str(m, "channelTitle", "channel"),
		channelURL:  normalize.Str(m, "channelUrl", "channel_url"),
	}

	// Takeout nests the channel under subtitles[0].
	if subs, ok := m["subtitles"].([]any); ok && len(subs) > 0 {
		if sub, ok := subs[0].(map[string]any); ok {
			if name := normalize.Str(sub, "name"); name != "" {
				r.channelName = name
			}
			if u := normalize.Str(sub, "url"); u != "" {
				r.channelURL = u
			}
		}
	}

	if r.title == "" && r.titleURL == "" {
		return record{}, false
	}

	if d, ok := normalize.Num(m, "durationMinutes", "duration_minutes"); ok {
		r.minutes = d
	} else {
		r.minutes = estimate
	}

	r.ts, r.hasTS = normalize.Timestamp(m, "time", "timestamp")
	return r, true
}

type accumulator struct {
	title   string
	channel string
	minutes float64
	watches int
}

// Aggregator folds normalized watch events into a WatchSummary. The zero
// value uses DefaultEstimateMinutes and exact channel-name matching.
type Aggregator struct {
	// EstimateMinutes is the effective duration for records without one.
	// Zero or negative falls back to DefaultEstimateMinutes.
	EstimateMinutes float64

	// KeyFunc maps a channel name to its matching key; nil is identity.
	KeyFunc func(string) string
}

func (g Aggregator) estimate() float64 {
	if g.EstimateMinutes > 0 {
		return g.EstimateMinutes
	}
	return DefaultEstimateMinutes
}

func (g Aggregator) key(name string) string {
	if g.KeyFunc == nil {
		return name
	}
	return g.KeyFunc(name)
}

// Aggregate folds raw records into one summary. Records excluded from the
// monthly trend for lack of a parseable timestamp still count toward the
// video count and minute totals, so the trend may sum to less than the grand
// total.
func (g Aggregator) Aggregate(raw []any) types.WatchSummary {
	estimate := g.estimate()

	channels := map[string]*accumulator{}
	channelOrder := []string{}
	videos := map[string]*accumulator{}
	videoOrder := []string{}
	months := map[string]float64{}

	videoCount := 0
	var totalMinutes float64
	var firstSeen, lastSeen time.Time

	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r, ok := normalizeRecord(m, estimate)
		if !ok {
			continue
		}

		videoCount++
		totalMinutes += r.minutes

		chKey := r.channelName
		if chKey == "" {
			chKey = r.channelURL
		}
		if chKey == "" {
			chKey = "Unknown"
		}
		chKey = g.key(chKey)
		ch, ok := channels[chKey]
		if !ok {
			ch = &accumulator{channel: chKey}
			channels[chKey] = ch
			channelOrder = append(channelOrder, chKey)
		}
		ch.minutes += r.minutes
		ch.watches++

		vKey := r.titleURL
		if vKey == "" {
			vKey = r.title + "|" + r.channelName
		}
		v, ok := videos[vKey]
		if !ok {
			v = &accumulator{title: r.title, channel: r.channelName}
			videos[vKey] = v
			videoOrder = append(videoOrder, vKey)
		}
		v.minutes += r.minutes
		v.watches++

		if r.hasTS {
			months[r.ts.Format("2006-01")] += r.minutes
			if firstSeen.IsZero() || r.ts.Before(firstSeen) {
				firstSeen = r.ts
			}
			if lastSeen.IsZero() || r.ts.After(lastSeen) {
				lastSeen = r.ts
			}
		}
	}

	channelRanks := make([]types.ChannelRank, 0, len(channelOrder))
	for _, k := range channelOrder {
		c := channels[k]
		channelRanks = append(channelRanks, types.ChannelRank{
			Channel: c.channel,
			Minutes: c.minutes,
			Watches: c.watches,
		})
	}
	sort.SliceStable(channelRanks, func(i, j int) bool {
		return channelRanks[i].Minutes > channelRanks[j].Minutes
	})
	channelRanks = ranking.TopN(channelRanks, rankingSize)
	for i := range channelRanks {
		channelRanks[i].Minutes = normalize.Round1(channelRanks[i].Minutes)
	}

	videoRanks := make([]types.VideoRank, 0, len(videoOrder))
	for _, k := range videoOrder {
		v := videos[k]
		videoRanks = append(videoRanks, types.VideoRank{
			Title:   v.title,
			Channel: v.channel,
			Minutes: v.minutes,
			Watches: v.watches,
		})
	}
	sort.SliceStable(videoRanks, func(i, j int) bool {
		return videoRanks[i].Minutes > videoRanks[j].Minutes
	})
	videoRanks = ranking.TopN(videoRanks, rankingSize)
	for i := range videoRanks {
		videoRanks[i].Minutes = normalize.Round1(videoRanks[i].Minutes)
	}

	trend := make([]types.MonthlyMinutes, 0, len(months))
	for month, mins := range months {
		trend = append(trend, types.MonthlyMinutes{Month: month, Minutes: normalize.Round1(mins)})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Month < trend[j].Month })

	s := types.WatchSummary{
		VideoCount:        videoCount,
		TotalWatchMinutes: normalize.Round1(totalMinutes),
		ChannelRankings:   channelRanks,
		VideoRankings:     videoRanks,
		MonthlyTrend:      trend,
	}
	if !firstSeen.IsZero() {
		s.StartDate = firstSeen.Format("2006-01-02")
		s.EndDate = lastSeen.Format("2006-01-02")
	}
	return s
}
