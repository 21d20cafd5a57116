package lrclib

import (
	"math"
	"strings"
)

// maxDurationDiff is how far (seconds) a record may be from the player's
// duration and still count as the same recording.
const maxDurationDiff = 3.0

// FindBest picks the record that best matches title and artist. Records
// matching both are preferred over title-only matches, which are preferred
// over the rest. Within the chosen pool, a positive duration selects the
// closest recording. Records with synced lyrics win ties. Returns false for
// an empty slice.
func FindBest(tracks []Track, title, artist string, duration float64) (Track, bool) {
	if len(tracks) == 0 {
		return Track{}, false
	}

	var exact, titleOnly []Track
	for _, t := range tracks {
		switch {
		case containsIgnoreCase(t.TrackName, title) && containsIgnoreCase(t.ArtistName, artist):
			exact = append(exact, t)
		case containsIgnoreCase(t.TrackName, title):
			titleOnly = append(titleOnly, t)
		}
	}

	pool := exact
	if len(pool) == 0 {
		pool = titleOnly
	}
	if len(pool) == 0 {
		pool = tracks
	}

	if duration <= 0 {
		for _, t := range pool {
			if t.HasSynced() {
				return t, true
			}
		}
		return pool[0], true
	}

	best := pool[0]
	bestDiff := math.Abs(best.Duration - duration)
	for _, t := range pool[1:] {
		diff := math.Abs(t.Duration - duration)
		closer := diff < bestDiff
		sameButSynced := diff == bestDiff && t.HasSynced() && !best.HasSynced()
		withinBoth := diff <= maxDurationDiff && bestDiff <= maxDurationDiff
		switch {
		case withinBoth && t.HasSynced() != best.HasSynced():
			if t.HasSynced() {
				best, bestDiff = t, diff
			}
		case closer || sameButSynced:
			best, bestDiff = t, diff
		}
	}
	return best, true
}

// Lyrics returns the synced lyrics, falling back to the plain text.
func (t Track) Lyrics() string {
	if t.HasSynced() {
		return t.SyncedLyrics
	}
	return t.PlainLyrics
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
