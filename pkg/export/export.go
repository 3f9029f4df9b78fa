// Package export writes corpus snapshots to downloadable files. JSON keeps
// the full record shape, CSV flattens it to a fixed column set.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// UnsupportedFormatError reports an export format the writer does not know.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q", e.Format)
}

// File describes a written export.
type File struct {
	Path        string
	Name        string
	ContentType string
}

// Writer produces export files under Dir. filenames embed the data type and a
// timestamp so repeated exports never collide within one second.
type Writer struct {
	Dir string
	now func() time.Time
}

// NewWriter returns a Writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}
	return &Writer{Dir: dir, now: time.Now}, nil
}

func (w *Writer) filename(dataType string, ext string) string {
	ts := w.now().Format("20060102_150405")
	return fmt.Sprintf("douyin_%s_%s.%s", dataType, ts, ext)
}

// Videos writes the video corpus in the requested format.
func (w *Writer) Videos(cards []browser.VideoCard, format Format) (*File, error) {
	switch format {
	case FormatJSON:
		return w.writeJSON("video", cards)
	case FormatCSV:
		header := []string{"video_url", "title", "author", "publish_time", "likes", "cover_image"}
		rows := make([][]string, 0, len(cards))
		for _, c := range cards {
			rows = append(rows, []string{c.VideoURL, c.Title, c.Author, c.PublishTime, c.Likes, c.CoverImage})
		}
		return w.writeCSV("video", header, rows)
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
}

// Users writes the user corpus in the requested format.
func (w *Writer) Users(cards []browser.UserCard, format Format) (*File, error) {
	switch format {
	case FormatJSON:
		return w.writeJSON("user", cards)
	case FormatCSV:
		header := []string{"title", "douyin_id", "likes", "followers", "description", "user_link"}
		rows := make([][]string, 0, len(cards))
		for _, c := range cards {
			rows = append(rows, []string{c.Title, c.DouyinID, c.Likes, c.Followers, c.Description, c.UserLink})
		}
		return w.writeCSV("user", header, rows)
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
}

// Comments writes harvested comment texts in the requested format.
func (w *Writer) Comments(comments []string, format Format) (*File, error) {
	switch format {
	case FormatJSON:
		return w.writeJSON("comments", comments)
	case FormatCSV:
		header := []string{"index", "comment"}
		rows := make([][]string, 0, len(comments))
		for i, c := range comments {
			rows = append(rows, []string{strconv.Itoa(i + 1), c})
		}
		return w.writeCSV("comments", header, rows)
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
}

func (w *Writer) writeJSON(dataType string, v any) (*File, error) {
	name := w.filename(dataType, "json")
	path := filepath.Join(w.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("writing %s: %w", name, err)
	}
	return &File{Path: path, Name: name, ContentType: "application/json"}, nil
}

func (w *Writer) writeCSV(dataType string, header []string, rows [][]string) (*File, error) {
	name := w.filename(dataType, "csv")
	path := filepath.Join(w.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	// Leading BOM so spreadsheet tools detect UTF-8 for Chinese text.
	if _, err := f.WriteString("\uFEFF"); err != nil {
		return nil, err
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("writing %s: %w", name, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("writing %s: %w", name, err)
	}
	return &File{Path: path, Name: name, ContentType: "text/csv; charset=utf-8"}, nil
}
