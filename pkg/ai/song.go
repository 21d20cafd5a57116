package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// SongInfo is what the model extracts from a media title.
type SongInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	IsSong bool   `json:"is_song"`
}

func songPrompt(mediaTitle string) string {
	return fmt.Sprintf(`Extract song information from a media title and answer with JSON only, exactly in the form {"is_song": true, "title": "song title", "artist": "performer"}. `+
		`If the title does not describe a song, answer {"is_song": false}. Do not use markdown. Media title: %s`, mediaTitle)
}

// ExtractSong asks client to identify the song behind a player media title.
func ExtractSong(ctx context.Context, client Client, mediaTitle string) (SongInfo, error) {
	raw, err := client.HandleText(ctx, songPrompt(mediaTitle))
	if err != nil {
		return SongInfo{}, err
	}
	return parseSongInfo(raw)
}

func parseSongInfo(raw string) (SongInfo, error) {
	raw = strings.TrimSpace(raw)
	// models sometimes wrap the answer in a ```json fence anyway
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}

	var info SongInfo
	if err := sonic.UnmarshalString(strings.TrimSpace(raw), &info); err != nil {
		return SongInfo{}, fmt.Errorf("failed to parse model response: %w", err)
	}
	info.Title = strings.TrimSpace(info.Title)
	info.Artist = strings.TrimSpace(info.Artist)
	if info.IsSong && info.Title == "" {
		info.IsSong = false
	}
	return info, nil
}
