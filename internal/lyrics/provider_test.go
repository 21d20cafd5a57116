package lyrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lrcview/pkg/ai"
)

type fakeSource struct {
	text  string
	err   error
	calls int
	got   [2]string
}

func (f *fakeSource) LyricsByInfo(_ context.Context, title, artist string, _ float64) (string, error) {
	f.calls++
	f.got = [2]string{title, artist}
	return f.text, f.err
}

type scriptedAI struct {
	answers []string
	calls   int
}

func (s *scriptedAI) Name() string { return "scripted" }

func (s *scriptedAI) HandleText(context.Context, string) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.answers) {
		return "", errors.New("no more answers")
	}
	return s.answers[i], nil
}

func TestProviderCachesLyrics(t *testing.T) {
	dir := t.TempDir()
	source := &fakeSource{text: "[00:01.00]hi"}
	p := NewProvider(dir, source, nil)

	got, err := p.GetLyrics(context.Background(), "Adele - Hello", 295)
	require.NoError(t, err)
	assert.Equal(t, "[00:01.00]hi", got)
	assert.Equal(t, [2]string{"Hello", "Adele"}, source.got)

	cached, err := os.ReadFile(filepath.Join(dir, "Hello-Adele.lrc"))
	require.NoError(t, err)
	assert.Equal(t, "[00:01.00]hi", string(cached))

	got, err = p.GetLyrics(context.Background(), "Adele - Hello", 295)
	require.NoError(t, err)
	assert.Equal(t, "[00:01.00]hi", got)
	assert.Equal(t, 1, source.calls)
}

func TestProviderSourceError(t *testing.T) {
	p := NewProvider(t.TempDir(), &fakeSource{err: errors.New("offline")}, nil)
	_, err := p.GetLyrics(context.Background(), "Band - Song", 0)
	assert.ErrorContains(t, err, "offline")
}

func TestProviderUsesAI(t *testing.T) {
	source := &fakeSource{text: "lyrics"}
	model := &scriptedAI{answers: []string{
		"not json",
		`{"is_song": true, "title": "Hello", "artist": "Adele"}`,
	}}
	p := NewProvider(t.TempDir(), source, model)
	p.retryDelay = 0

	_, err := p.GetLyrics(context.Background(), "ADELE | Hello [Official Music Video]", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)
	assert.Equal(t, [2]string{"Hello", "Adele"}, source.got)
}

func TestProviderAINotASong(t *testing.T) {
	model := &scriptedAI{answers: []string{`{"is_song": false}`}}
	p := NewProvider(t.TempDir(), &fakeSource{}, model)

	_, err := p.GetLyrics(context.Background(), "Some Podcast Episode 12", 0)
	assert.ErrorIs(t, err, ErrNotASong)
}

func TestProviderAIFailureFallsBackToSplit(t *testing.T) {
	source := &fakeSource{text: "lyrics"}
	model := &scriptedAI{}
	p := NewProvider(t.TempDir(), source, model)
	p.retryDelay = 0

	_, err := p.GetLyrics(context.Background(), "Band - Song", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, model.calls)
	assert.Equal(t, [2]string{"Song", "Band"}, source.got)
}

func TestSplitMediaTitle(t *testing.T) {
	tests := []struct {
		in     string
		title  string
		artist string
	}{
		{"Adele - Hello", "Hello", "Adele"},
		{"Hello", "Hello", ""},
		{"  AC/DC -  Thunderstruck ", "Thunderstruck", "AC/DC"},
		{"A - B - C", "B - C", "A"},
	}
	for _, tt := range tests {
		got, err := splitMediaTitle(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, ai.SongInfo{Title: tt.title, Artist: tt.artist, IsSong: true}, got, tt.in)
	}

	_, err := splitMediaTitle("  ")
	assert.ErrorIs(t, err, ErrNotASong)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "AC-DC-Back in Black-", sanitizeFilename(`AC/DC-Back in Black?`))
}
