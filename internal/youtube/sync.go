package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Library is the snapshot produced by one sync run.
type Library struct {
	ChannelID         string         `json:"channel_id,omitempty"`
	ChannelTitle      string         `json:"channel_title,omitempty"`
	Subscriptions     []Subscription `json:"subscriptions"`
	Playlists         []Playlist     `json:"playlists"`
	LikedVideos       []LikedVideo   `json:"liked_videos"`
	SubscriptionCount int            `json:"subscription_count"`
	PlaylistCount     int            `json:"playlist_count"`
	LikedCount        int            `json:"liked_count"`
	// Subscriptions ordered by how many of the user's likes land on each
	// channel; a cheap interest signal for the profile page.
	RankedByLikes []Subscription `json:"subscriptions_ranked_by_likes"`
}

type Subscription struct {
	ChannelID  string `json:"channel_id"`
	Title      string `json:"title"`
	LikedCount int    `json:"liked_count,omitempty"`
}

type Playlist struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ItemCount int    `json:"item_count"`
}

type LikedVideo struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ChannelID    string `json:"channel_id"`
	ChannelTitle string `json:"channel_title"`
}

// Sync reads the connected account's channel, subscriptions, playlists and
// liked videos. Only the channel fetch is required; the rest degrade to empty
// lists on error so one flaky list call doesn't fail the run.
func (s *Service) Sync(ctx context.Context, accessToken string) (Library, error) {
	var channel struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
			ContentDetails struct {
				RelatedPlaylists struct {
					Likes string `json:"likes"`
				} `json:"relatedPlaylists"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := s.apiGet(ctx, accessToken, "/channels?part=snippet,contentDetails&mine=true", &channel); err != nil {
		return Library{}, fmt.Errorf("channel fetch: %w", err)
	}

	lib := Library{
		Subscriptions: []Subscription{},
		Playlists:     []Playlist{},
		LikedVideos:   []LikedVideo{},
	}
	likesPlaylist := ""
	if len(channel.Items) > 0 {
		lib.ChannelID = channel.Items[0].ID
		lib.ChannelTitle = channel.Items[0].Snippet.Title
		likesPlaylist = channel.Items[0].ContentDetails.RelatedPlaylists.Likes
	}

	var subs struct {
		Items []struct {
			Snippet struct {
				Title      string `json:"title"`
				ResourceID struct {
					ChannelID string `json:"channelId"`
				} `json:"resourceId"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := s.apiGet(ctx, accessToken, "/subscriptions?part=snippet&mine=true&maxResults=50", &subs); err == nil {
		for _, it := range subs.Items {
			lib.Subscriptions = append(lib.Subscriptions, Subscription{
				ChannelID: it.Snippet.ResourceID.ChannelID,
				Title:     it.Snippet.Title,
			})
		}
	}

	var playlists struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
			ContentDetails struct {
				ItemCount int `json:"itemCount"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := s.apiGet(ctx, accessToken, "/playlists?part=snippet,contentDetails&mine=true&maxResults=50", &playlists); err == nil {
		for _, it := range playlists.Items {
			lib.Playlists = append(lib.Playlists, Playlist{
				ID:        it.ID,
				Title:     it.Snippet.Title,
				ItemCount: it.ContentDetails.ItemCount,
			})
		}
	}

	if likesPlaylist != "" {
		var likes struct {
			Items []struct {
				Snippet struct {
					Title        string `json:"title"`
					ChannelID    string `json:"channelId"`
					ChannelTitle string `json:"channelTitle"`
				} `json:"snippet"`
				ContentDetails struct {
					VideoID string `json:"videoId"`
				} `json:"contentDetails"`
			} `json:"items"`
		}
		path := "/playlistItems?part=snippet,contentDetails&playlistId=" + likesPlaylist + "&maxResults=50"
		if err := s.apiGet(ctx, accessToken, path, &likes); err == nil {
			for _, it := range likes.Items {
				lib.LikedVideos = append(lib.LikedVideos, LikedVideo{
					VideoID:      it.ContentDetails.VideoID,
					Title:        it.Snippet.Title,
					ChannelID:    it.Snippet.ChannelID,
					ChannelTitle: it.Snippet.ChannelTitle,
				})
			}
		}
	}

	lib.SubscriptionCount = len(lib.Subscriptions)
	lib.PlaylistCount = len(lib.Playlists)
	lib.LikedCount = len(lib.LikedVideos)
	lib.RankedByLikes = rankByLikes(lib.Subscriptions, lib.LikedVideos)
	return lib, nil
}

// rankByLikes orders subscriptions by liked-video count per channel,
// descending; subscription order breaks ties.
func rankByLikes(subs []Subscription, likes []LikedVideo) []Subscription {
	byChannel := map[string]int{}
	for _, v := range likes {
		k := v.ChannelID
		if k == "" {
			k = v.ChannelTitle
		}
		byChannel[k]++
	}
	ranked := make([]Subscription, len(subs))
	copy(ranked, subs)
	for i := range ranked {
		ranked[i].LikedCount = byChannel[ranked[i].ChannelID]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LikedCount > ranked[j].LikedCount
	})
	return ranked
}

func (s *Service) apiGet(ctx context.Context, accessToken, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("youtube api %s: %s", path, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, target)
}
