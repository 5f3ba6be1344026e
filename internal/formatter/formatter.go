// package formatter provides functions to export playlist data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alsdbtjd0103/norae/internal/models"
	"github.com/alsdbtjd0103/norae/internal/shared"
)

// ExportToCSV converts a PlaylistDetail to CSV format with columns: Order, Title, Artist, Rating, Duration, RecordedAt, File
func ExportToCSV(detail *models.PlaylistDetail) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Order", "Title", "Artist", "Rating", "Duration", "RecordedAt", "File"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range detail.Items {
		record := []string{
			strconv.Itoa(item.Order),
			item.Song.Title,
			item.Song.Artist,
			strconv.Itoa(item.Version.Rating),
			shared.FormatClock(secondsToDuration(item.Version.Duration)),
			item.Version.RecordedAt.Format(time.RFC3339),
			item.Version.FileName,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistDetail to Markdown format
func ExportToMarkdown(detail *models.PlaylistDetail) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", detail.Name))
	buf.WriteString(fmt.Sprintf("**Takes**: %d\n\n", len(detail.Items)))

	buf.WriteString("## Takes\n\n")
	for i, item := range detail.Items {
		artistPart := ""
		if item.Song.Artist != "" {
			artistPart = fmt.Sprintf("%s - ", item.Song.Artist)
		}
		stars := strings.Repeat("★", item.Version.Rating)
		buf.WriteString(fmt.Sprintf("%d. %s%s %s [%s]\n",
			i+1, artistPart, item.Song.Title, stars,
			shared.FormatClock(secondsToDuration(item.Version.Duration))))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistDetail to plain text format
func ExportToText(detail *models.PlaylistDetail) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", detail.Name))
	buf.WriteString(fmt.Sprintf("Takes: %d\n\n", len(detail.Items)))

	for i, item := range detail.Items {
		if item.Song.Artist != "" {
			buf.WriteString(fmt.Sprintf("%d. %s - %s (%d/5)\n", i+1, item.Song.Artist, item.Song.Title, item.Version.Rating))
		} else {
			buf.WriteString(fmt.Sprintf("%d. %s (%d/5)\n", i+1, item.Song.Title, item.Version.Rating))
		}
	}

	return buf.Bytes(), nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
