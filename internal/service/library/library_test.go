package library

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"gameshelf/internal/entity"
)

type fakeScanner struct {
	entries []*entity.ContentEntry
	skipped int
	err     error
	calls   int
}

func (s *fakeScanner) Scan(_ context.Context) ([]*entity.ContentEntry, int, error) {
	s.calls++

	return s.entries, s.skipped, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceStartsEmpty(t *testing.T) {
	s := NewService(&fakeScanner{}, testLogger())

	require.Zero(t, s.Current().Len())
}

func TestRefresh(t *testing.T) {
	scanner := &fakeScanner{
		entries: []*entity.ContentEntry{
			{RelativePath: "a.nsp", Name: "a.nsp", ContentID: "0100000000010000", Kind: entity.KindBase},
		},
	}
	s := NewService(scanner, testLogger())

	require.NoError(t, s.Refresh(context.Background()))
	require.Equal(t, 1, s.Current().Len())
	require.Equal(t, 1, scanner.calls)
}

func TestRefreshKeepsSnapshotOnError(t *testing.T) {
	scanner := &fakeScanner{
		entries: []*entity.ContentEntry{
			{RelativePath: "a.nsp", Name: "a.nsp", ContentID: "0100000000010000", Kind: entity.KindBase},
		},
	}
	s := NewService(scanner, testLogger())
	require.NoError(t, s.Refresh(context.Background()))

	before := s.Current()
	scanner.err = errors.New("disk gone")

	require.Error(t, s.Refresh(context.Background()))
	require.Same(t, before, s.Current())
}

func TestRefreshOnceSwallowsFailures(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("disk gone")}
	s := NewService(scanner, testLogger())

	// Must not panic and must keep the empty snapshot.
	s.refreshOnce(context.Background())
	require.Zero(t, s.Current().Len())
}
