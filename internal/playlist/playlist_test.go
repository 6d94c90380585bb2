package playlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pmmd05/intento-proyecto-1/internal/db"
	"github.com/pmmd05/intento-proyecto-1/internal/emotion"
	"github.com/pmmd05/intento-proyecto-1/internal/spotify"
)

// mockTarget implements Target with testify/mock.
type mockTarget struct {
	mock.Mock
}

func (m *mockTarget) CurrentUserID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockTarget) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*spotify.Playlist, error) {
	args := m.Called(ctx, userID, name, description, public)
	pl, _ := args.Get(0).(*spotify.Playlist)
	return pl, args.Error(1)
}

func (m *mockTarget) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	args := m.Called(ctx, playlistID, uris)
	return args.Error(0)
}

// mockRepo implements Repository with testify/mock.
type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, p *db.Playlist) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockRepo) ListForUser(ctx context.Context, userID string, limit int) ([]db.Playlist, error) {
	args := m.Called(ctx, userID, limit)
	ps, _ := args.Get(0).([]db.Playlist)
	return ps, args.Error(1)
}

// fakeAnalyses implements AnalysisLookup over a map.
type fakeAnalyses map[uuid.UUID]*db.Analysis

func (f fakeAnalyses) Get(_ context.Context, id uuid.UUID) (*db.Analysis, error) {
	a, ok := f[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return a, nil
}

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestPublisher(target *mockTarget, gotToken *string) *Publisher {
	return NewPublisher(func(token string) Target {
		if gotToken != nil {
			*gotToken = token
		}
		return target
	}, WithClock(func() time.Time { return fixedNow }), WithPublisherLogger(log.New(io.Discard)))
}

func expiredErr() error {
	return fmt.Errorf("creating playlist: %w", spotify.ErrTokenExpired)
}

func TestPublish_EmptyURIs(t *testing.T) {
	target := &mockTarget{}
	calls := 0
	p := NewPublisher(func(string) Target { calls++; return target })

	_, err := p.Publish(context.Background(), "tok", emotion.Happy, nil)

	assert.ErrorIs(t, err, ErrNoTracks)
	assert.Equal(t, 0, calls)
	target.AssertNotCalled(t, "CurrentUserID", mock.Anything)
}

func TestPublish_Success(t *testing.T) {
	target := &mockTarget{}
	uris := []string{"spotify:track:b", "spotify:track:a", "spotify:track:c"}
	name := "Moodtune · Happy · 2026-03-01"

	target.On("CurrentUserID", mock.Anything).Return("user-1", nil)
	target.On("CreatePlaylist", mock.Anything, "user-1", name, mock.AnythingOfType("string"), false).
		Return(&spotify.Playlist{ID: "pl9", URL: "https://open.spotify.com/playlist/pl9", Name: name}, nil)
	target.On("AddTracks", mock.Anything, "pl9", uris).Return(nil)

	var token string
	got, err := newTestPublisher(target, &token).Publish(context.Background(), "tok", emotion.Happy, uris)
	require.NoError(t, err)

	assert.Equal(t, "tok", token)
	assert.Equal(t, "pl9", got.ExternalID)
	assert.Equal(t, "https://open.spotify.com/playlist/pl9", got.ExternalURL)
	assert.Equal(t, 3, got.TrackCount)
	assert.Equal(t, name, got.Name)
	target.AssertExpectations(t)
}

func TestPublish_Failures(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*mockTarget)
		wantKind    Kind
		wantPartial string
	}{
		{
			name: "token expired resolving user",
			setup: func(m *mockTarget) {
				m.On("CurrentUserID", mock.Anything).Return("", expiredErr())
			},
			wantKind: KindTokenExpired,
		},
		{
			name: "create rejected",
			setup: func(m *mockTarget) {
				m.On("CurrentUserID", mock.Anything).Return("u", nil)
				m.On("CreatePlaylist", mock.Anything, "u", mock.Anything, mock.Anything, false).
					Return(nil, errors.New("403 forbidden"))
			},
			wantKind: KindRejected,
		},
		{
			name: "token expired while adding tracks",
			setup: func(m *mockTarget) {
				m.On("CurrentUserID", mock.Anything).Return("u", nil)
				m.On("CreatePlaylist", mock.Anything, "u", mock.Anything, mock.Anything, false).
					Return(&spotify.Playlist{ID: "half"}, nil)
				m.On("AddTracks", mock.Anything, "half", mock.Anything).Return(expiredErr())
			},
			wantKind:    KindTokenExpired,
			wantPartial: "half",
		},
		{
			name: "add rejected reports partial playlist",
			setup: func(m *mockTarget) {
				m.On("CurrentUserID", mock.Anything).Return("u", nil)
				m.On("CreatePlaylist", mock.Anything, "u", mock.Anything, mock.Anything, false).
					Return(&spotify.Playlist{ID: "half"}, nil)
				m.On("AddTracks", mock.Anything, "half", mock.Anything).Return(errors.New("400 invalid uri"))
			},
			wantKind:    KindRejected,
			wantPartial: "half",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &mockTarget{}
			tt.setup(target)

			_, err := newTestPublisher(target, nil).Publish(context.Background(), "tok", emotion.Sad, []string{"spotify:track:x"})

			var pe *PublishError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantKind, pe.Kind)
			assert.Equal(t, tt.wantPartial, pe.PartialID)
		})
	}
}

func TestPublish_BareUnauthorizedFromSpotify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewPublisherFromFactory(spotify.NewFactory(spotify.WithBaseURL(srv.URL+"/")), WithPublisherLogger(log.New(io.Discard)))

	_, err := p.Publish(context.Background(), "expired", emotion.Happy, []string{"spotify:track:x"})

	var pe *PublishError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindTokenExpired, pe.Kind)
	assert.Equal(t, http.StatusUnauthorized, pe.Status)
}

func TestService_CreateAndSave(t *testing.T) {
	target := &mockTarget{}
	repo := &mockRepo{}
	analysisID := uuid.New()
	uris := []string{"spotify:track:1"}

	target.On("CurrentUserID", mock.Anything).Return("u", nil)
	target.On("CreatePlaylist", mock.Anything, "u", mock.Anything, mock.Anything, false).
		Return(&spotify.Playlist{ID: "pl1", URL: "https://open.spotify.com/playlist/pl1"}, nil)
	target.On("AddTracks", mock.Anything, "pl1", uris).Return(nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *db.Playlist) bool {
		return p.UserID == "ana" && p.Emotion == "relaxed" && p.ExternalID == "pl1" &&
			p.Saved && p.TrackCount == 1 && p.AnalysisID != nil && *p.AnalysisID == analysisID
	})).Return(nil)

	analyses := fakeAnalyses{analysisID: {ID: analysisID, UserID: "ana"}}

	svc := NewService(newTestPublisher(target, nil), repo, analyses)
	rec, err := svc.CreateAndSave(context.Background(), "ana", "tok", Request{
		Emotion:    "Relaxed",
		TrackURIs:  uris,
		AnalysisID: analysisID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://open.spotify.com/playlist/pl1", rec.ExternalURL)
	repo.AssertExpectations(t)
	target.AssertExpectations(t)
}

func TestService_CreateAndSave_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{name: "bad emotion", req: Request{Emotion: "meh", TrackURIs: []string{"x"}}, wantErr: emotion.ErrUnknownEmotion},
		{name: "no tracks", req: Request{Emotion: "happy"}, wantErr: ErrNoTracks},
		{name: "bad analysis id", req: Request{Emotion: "happy", TrackURIs: []string{"x"}, AnalysisID: "nope"}, wantErr: ErrInvalidAnalysisID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &mockTarget{}
			repo := &mockRepo{}
			svc := NewService(newTestPublisher(target, nil), repo, fakeAnalyses{})

			_, err := svc.CreateAndSave(context.Background(), "ana", "tok", tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			target.AssertNotCalled(t, "CurrentUserID", mock.Anything)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestService_CreateAndSave_AnalysisNotLinkable(t *testing.T) {
	mine := uuid.New()
	theirs := uuid.New()
	analyses := fakeAnalyses{
		mine:   {ID: mine, UserID: "ana"},
		theirs: {ID: theirs, UserID: "bea"},
	}

	tests := []struct {
		name       string
		analysisID string
	}{
		{name: "unknown analysis", analysisID: uuid.NewString()},
		{name: "another user's analysis", analysisID: theirs.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &mockTarget{}
			repo := &mockRepo{}
			svc := NewService(newTestPublisher(target, nil), repo, analyses)

			_, err := svc.CreateAndSave(context.Background(), "ana", "tok", Request{
				Emotion:    "happy",
				TrackURIs:  []string{"spotify:track:1"},
				AnalysisID: tt.analysisID,
			})

			assert.ErrorIs(t, err, ErrInvalidAnalysisID)
			target.AssertNotCalled(t, "CurrentUserID", mock.Anything)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestService_CreateAndSave_AnalysisLookupFails(t *testing.T) {
	target := &mockTarget{}
	repo := &mockRepo{}
	svc := NewService(newTestPublisher(target, nil), repo, failingAnalyses{})

	_, err := svc.CreateAndSave(context.Background(), "ana", "tok", Request{
		Emotion:    "happy",
		TrackURIs:  []string{"spotify:track:1"},
		AnalysisID: uuid.NewString(),
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidAnalysisID)
	target.AssertNotCalled(t, "CurrentUserID", mock.Anything)
}

type failingAnalyses struct{}

func (failingAnalyses) Get(context.Context, uuid.UUID) (*db.Analysis, error) {
	return nil, errors.New("connection reset")
}

func TestService_PublishFailureNotSaved(t *testing.T) {
	target := &mockTarget{}
	repo := &mockRepo{}
	target.On("CurrentUserID", mock.Anything).Return("", expiredErr())

	svc := NewService(newTestPublisher(target, nil), repo, fakeAnalyses{})
	_, err := svc.CreateAndSave(context.Background(), "ana", "tok", Request{Emotion: "angry", TrackURIs: []string{"x"}})

	var pe *PublishError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindTokenExpired, pe.Kind)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_List(t *testing.T) {
	repo := &mockRepo{}
	repo.On("ListForUser", mock.Anything, "ana", 10).Return([]db.Playlist{{Name: "a"}, {Name: "b"}}, nil)

	svc := NewService(NewPublisher(nil), repo, fakeAnalyses{})
	got, err := svc.List(context.Background(), "ana", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestName(t *testing.T) {
	assert.Equal(t, "Moodtune · Energetic · 2026-03-01", Name(emotion.Energetic, fixedNow))
}
