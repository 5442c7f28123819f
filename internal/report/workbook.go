// Package report renders stored summaries as a downloadable spreadsheet:
// one overview sheet plus a sheet per ranking, so users can slice their own
// stats outside the app.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"herd-tracker-go/internal/ranking"
	"herd-tracker-go/internal/types"
)

// Write renders a workbook for whichever summaries exist; nil summaries skip
// their sheets. At least one summary must be present.
func Write(w io.Writer, music *types.MusicSummary, watch *types.WatchSummary) error {
	if music == nil && watch == nil {
		return fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Overview")
	if err := writeOverview(f, music, watch); err != nil {
		return err
	}

	if music != nil {
		if err := writeArtists(f, music.TopArtists, music.TotalHours); err != nil {
			return err
		}
		if err := writeTracks(f, music.TopTracks); err != nil {
			return err
		}
	}
	if watch != nil {
		if err := writeChannels(f, watch); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeOverview(f *excelize.File, music *types.MusicSummary, watch *types.WatchSummary) error {
	rows := [][]any{}
	if music != nil {
		rows = append(rows,
			[]any{"Total listening hours", music.TotalHours},
			[]any{"Streaming records", music.TotalRecords},
			[]any{"Unique artists", music.UniqueArtists},
			[]any{"Unique tracks", music.UniqueTracks},
		)
		if music.StartDate != "" {
			rows = append(rows, []any{"Listening period", music.StartDate + " to " + music.EndDate})
		}
	}
	if watch != nil {
		rows = append(rows,
			[]any{"Videos watched", watch.VideoCount},
			[]any{"Watch minutes (est.)", watch.TotalWatchMinutes},
		)
	}
	return writeRows(f, "Overview", append([][]any{{"Metric", "Value"}}, rows...))
}

func writeArtists(f *excelize.File, artists []types.ArtistRank, totalHours float64) error {
	if _, err := f.NewSheet("Top Artists"); err != nil {
		return err
	}
	rows := [][]any{{"Rank", "Artist", "Hours", "Plays", "Share %"}}
	for i, a := range artists {
		rows = append(rows, []any{i + 1, a.Name, a.Hours, a.Plays, ranking.Share(a.Hours, totalHours)})
	}
	return writeRows(f, "Top Artists", rows)
}

func writeTracks(f *excelize.File, tracks []types.TrackRank) error {
	if _, err := f.NewSheet("Top Tracks"); err != nil {
		return err
	}
	rows := [][]any{{"Rank", "Track", "Artist", "Album", "Hours", "Plays"}}
	for i, t := range tracks {
		rows = append(rows, []any{i + 1, t.Name, t.Artist, t.Album, t.Hours, t.Plays})
	}
	return writeRows(f, "Top Tracks", rows)
}

func writeChannels(f *excelize.File, watch *types.WatchSummary) error {
	if _, err := f.NewSheet("Channels"); err != nil {
		return err
	}
	rows := [][]any{{"Rank", "Channel", "Minutes", "Watches", "Share %"}}
	for i, c := range watch.ChannelRankings {
		rows = append(rows, []any{i + 1, c.Channel, c.Minutes, c.Watches,
			ranking.Share(c.Minutes, watch.TotalWatchMinutes)})
	}
	if err := writeRows(f, "Channels", rows); err != nil {
		return err
	}

	if len(watch.MonthlyTrend) == 0 {
		return nil
	}
	if _, err := f.NewSheet("Monthly Trend"); err != nil {
		return err
	}
	trend := [][]any{{"Month", "Minutes"}}
	for _, b := range watch.MonthlyTrend {
		trend = append(trend, []any{b.Month, b.Minutes})
	}
	return writeRows(f, "Monthly Trend", trend)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
