package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/pmmd05/intento-proyecto-1/internal/catalog"
	"github.com/pmmd05/intento-proyecto-1/internal/emotion"
	"github.com/pmmd05/intento-proyecto-1/internal/spotify"
)

// mockFetcher implements Fetcher for testing.
type mockFetcher struct {
	result    *catalog.Result
	err       error
	gotKey    emotion.Key
	gotToken  string
	callCount atomic.Int32
}

func (m *mockFetcher) Fetch(_ context.Context, token string, key emotion.Key) (*catalog.Result, error) {
	m.callCount.Add(1)
	m.gotKey = key
	m.gotToken = token
	return m.result, m.err
}

func TestRecommend(t *testing.T) {
	want := &catalog.Result{Emotion: emotion.Happy, SearchMethod: catalog.MethodPlaylist, TotalTracks: 3}

	tests := []struct {
		name      string
		raw       string
		fetchErr  error
		wantErr   error
		wantKey   emotion.Key
		wantCalls int32
	}{
		{name: "normalizes case", raw: "HaPpY", wantKey: emotion.Happy, wantCalls: 1},
		{name: "trims spaces", raw: " sad ", wantKey: emotion.Sad, wantCalls: 1},
		{name: "unknown emotion", raw: "bored", wantErr: emotion.ErrUnknownEmotion},
		{name: "fetch error propagates", raw: "angry", fetchErr: catalog.ErrFallbackExhausted, wantErr: catalog.ErrFallbackExhausted, wantKey: emotion.Angry, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &mockFetcher{result: want, err: tt.fetchErr}
			a, err := New(f)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			got, err := a.Recommend(context.Background(), "tok", tt.raw)
			if f.callCount.Load() != tt.wantCalls {
				t.Errorf("fetch calls = %d, want %d", f.callCount.Load(), tt.wantCalls)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Recommend() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if got != want {
				t.Error("Recommend() did not return the fetcher's result unchanged")
			}
			if f.gotKey != tt.wantKey || f.gotToken != "tok" {
				t.Errorf("fetch got key=%q token=%q", f.gotKey, f.gotToken)
			}
		})
	}
}

func TestMockup(t *testing.T) {
	a, err := New(&mockFetcher{}, WithShuffle(func([]spotify.Track) {}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, key := range emotion.All {
		t.Run(string(key), func(t *testing.T) {
			res, err := a.Mockup(string(key))
			if err != nil {
				t.Fatalf("Mockup() error = %v", err)
			}
			if res.SearchMethod != catalog.MethodMockup {
				t.Errorf("SearchMethod = %q", res.SearchMethod)
			}
			if len(res.Tracks) == 0 || len(res.Tracks) > catalog.MaxTracks {
				t.Errorf("len(Tracks) = %d", len(res.Tracks))
			}
			for _, tr := range res.Tracks {
				if !tr.Valid() {
					t.Errorf("invalid mockup track %+v", tr)
				}
			}
		})
	}

	if _, err := a.Mockup("meh"); !errors.Is(err, emotion.ErrUnknownEmotion) {
		t.Errorf("Mockup() error = %v, want ErrUnknownEmotion", err)
	}
}

func TestMockupDoesNotMutateCatalog(t *testing.T) {
	a, err := New(&mockFetcher{}, WithShuffle(func(ts []spotify.Track) { ts[0].Name = "changed" }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := a.Mockup("happy"); err != nil {
		t.Fatalf("Mockup() error = %v", err)
	}
	if a.mockup[emotion.Happy][0].Name == "changed" {
		t.Error("Mockup() mutated the bundled catalog")
	}
}
