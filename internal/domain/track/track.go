// Package track provides the Track domain entity.
package track

import "time"

// Track represents a playable audio item from the catalog.
// Values are immutable once obtained; everything else references them by ID.
type Track struct {
	ID           string        // Opaque unique identifier
	Title        string        // Display title
	Description  string        // Optional description
	Duration     time.Duration // Nominal duration (the media element reports the real one)
	ThumbnailURL string        // Optional artwork URL
	IsPremium    bool          // Informational; gating is decided by the entitlement oracle
	Tags         []string      // Free-form tags
	CategoryID   string        // Owning category
	MediaLocator string        // Opaque locator handed to the media element
}

// Category groups tracks in the catalog.
type Category struct {
	ID          string
	Name        string
	Description string
}

// Same reports whether two tracks refer to the same catalog item.
func (t Track) Same(other Track) bool {
	return t.ID == other.ID
}

// HasTag checks whether the track carries the given tag.
func (t *Track) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}
