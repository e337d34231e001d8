// Package catalog provides the local track library.
package catalog

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/slumberfm/slumber/internal/domain/track"
	"github.com/slumberfm/slumber/internal/infra/config"
)

// Library is an in-memory catalog built from the config-declared categories
// plus, optionally, a scan of a media directory. It is read-only after
// construction.
type Library struct {
	categories []track.Category
	tracks     []track.Track
	byID       map[string]track.Track
}

// NewLibrary builds a library from configuration. When cfg.MediaDir is set,
// its first-level subdirectories are scanned as additional categories.
func NewLibrary(cfg config.LibraryConfig) (*Library, error) {
	l := &Library{byID: make(map[string]track.Track)}

	for _, cat := range cfg.Categories {
		l.categories = append(l.categories, track.Category{
			ID:          cat.ID,
			Name:        catName(cat),
			Description: cat.Description,
		})
		for _, tc := range cat.Tracks {
			l.add(track.Track{
				ID:           tc.ID,
				Title:        tc.Title,
				Description:  tc.Description,
				Duration:     time.Duration(tc.DurationSec) * time.Second,
				ThumbnailURL: tc.ThumbnailURL,
				IsPremium:    tc.Premium,
				Tags:         tc.Tags,
				CategoryID:   cat.ID,
				MediaLocator: tc.File,
			})
		}
	}

	if cfg.MediaDir != "" {
		if err := l.scanMediaDir(cfg.MediaDir); err != nil {
			return nil, err
		}
	}

	zlog.Info().Msgf("catalog: %d tracks in %d categories", len(l.tracks), len(l.categories))
	return l, nil
}

// Categories returns all known categories.
func (l *Library) Categories() []track.Category {
	out := make([]track.Category, len(l.categories))
	copy(out, l.categories)
	return out
}

// Tracks returns every track in the library.
func (l *Library) Tracks() []track.Track {
	out := make([]track.Track, len(l.tracks))
	copy(out, l.tracks)
	return out
}

// TracksInCategory returns the tracks belonging to a category.
func (l *Library) TracksInCategory(categoryID string) []track.Track {
	return lo.Filter(l.tracks, func(t track.Track, _ int) bool {
		return t.CategoryID == categoryID
	})
}

// TrackByID looks a track up by its identifier.
func (l *Library) TrackByID(id string) (track.Track, bool) {
	t, ok := l.byID[id]
	return t, ok
}

// SampleTrackIDs returns the IDs of tracks tagged "sample", the ones the
// entitlement oracle lets everyone play.
func (l *Library) SampleTrackIDs() []string {
	sampled := lo.Filter(l.tracks, func(t track.Track, _ int) bool {
		return t.HasTag("sample")
	})
	return lo.Map(sampled, func(t track.Track, _ int) string { return t.ID })
}

func (l *Library) add(t track.Track) {
	if _, dup := l.byID[t.ID]; dup {
		zlog.Warn().Msgf("catalog: duplicate track id %q skipped", t.ID)
		return
	}
	l.tracks = append(l.tracks, t)
	l.byID[t.ID] = t
}

// scanMediaDir walks mediaDir, treating each first-level subdirectory as a
// category and each audio file inside it as a track. MP3 titles come from
// ID3 tags when present; durations are left to the media element.
func (l *Library) scanMediaDir(mediaDir string) error {
	seen := make(map[string]bool, len(l.categories))
	for _, c := range l.categories {
		seen[c.ID] = true
	}

	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".mp3" && ext != ".wav" {
			return nil
		}

		rel, err := filepath.Rel(mediaDir, path)
		if err != nil {
			return err
		}
		categoryID := filepath.Dir(rel)
		if categoryID == "." {
			categoryID = "uncategorized"
		}
		if !seen[categoryID] {
			seen[categoryID] = true
			l.categories = append(l.categories, track.Category{
				ID:   categoryID,
				Name: strings.ReplaceAll(categoryID, "-", " "),
			})
		}

		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		var description string
		if ext == ".mp3" {
			if tag, tagErr := id3v2.Open(path, id3v2.Options{Parse: true}); tagErr == nil {
				if t := strings.TrimSpace(tag.Title()); t != "" {
					title = t
				}
				description = strings.TrimSpace(tag.Album())
				_ = tag.Close()
			} else {
				zlog.Debug().Msgf("catalog: no readable tags in %s: %v", rel, tagErr)
			}
		}

		l.add(track.Track{
			ID:           "file:" + filepath.ToSlash(rel),
			Title:        title,
			Description:  description,
			CategoryID:   categoryID,
			MediaLocator: path,
		})
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "scan media dir %q", mediaDir)
	}
	return nil
}

func catName(cat config.CategoryConfig) string {
	if cat.Name != "" {
		return cat.Name
	}
	return cat.ID
}
