package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/noxical/noxical/internal/build"
)

type StoreSuite struct {
	suite.Suite
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	var err error
	s.store, err = NewStore(":memory:")
	s.Require().NoError(err)
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *StoreSuite) TestRecordAndRecent() {
	o := build.Outcome{
		ID:          "build-1",
		Reason:      build.ReasonInitial,
		Success:     true,
		Diagnostics: []string{"generated 3 endpoints in 2 groups -> output.ts"},
		StartedAt:   time.Now().Truncate(time.Second),
		Duration:    42 * time.Millisecond,
	}
	s.Require().NoError(s.store.Record(o))

	builds, err := s.store.Recent(10)
	s.NoError(err)
	s.Require().Len(builds, 1)
	s.Equal("build-1", builds[0].ID)
	s.Equal("initial", builds[0].Reason)
	s.True(builds[0].Success)
	s.Equal(int64(42), builds[0].DurationMs)
	s.Equal(o.Diagnostics, builds[0].Diagnostics)
}

func (s *StoreSuite) TestRecentNewestFirst() {
	base := time.Now().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		o := build.Outcome{
			ID:        fmt.Sprintf("build-%d", i),
			Reason:    build.ReasonFileChange,
			Success:   true,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		s.Require().NoError(s.store.Record(o))
	}

	builds, err := s.store.Recent(10)
	s.NoError(err)
	s.Require().Len(builds, 3)
	s.Equal("build-2", builds[0].ID)
	s.Equal("build-0", builds[2].ID)
}

func (s *StoreSuite) TestRecentHonorsLimit() {
	base := time.Now().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		o := build.Outcome{
			ID:        fmt.Sprintf("build-%d", i),
			Reason:    build.ReasonFileChange,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		s.Require().NoError(s.store.Record(o))
	}

	builds, err := s.store.Recent(2)
	s.NoError(err)
	s.Len(builds, 2)
}

func (s *StoreSuite) TestFailedBuildKeepsDiagnostics() {
	o := build.Outcome{
		ID:          "build-err",
		Reason:      build.ReasonFileChange,
		Success:     false,
		Diagnostics: []string{"duplicate method name", "- FileService", "- Other"},
		StartedAt:   time.Now(),
	}
	s.Require().NoError(s.store.Record(o))

	builds, err := s.store.Recent(1)
	s.NoError(err)
	s.Require().Len(builds, 1)
	s.False(builds[0].Success)
	s.Len(builds[0].Diagnostics, 3)
}

func (s *StoreSuite) TestEmptyDiagnostics() {
	o := build.Outcome{ID: "build-2", Reason: build.ReasonInitial, StartedAt: time.Now()}
	s.Require().NoError(s.store.Record(o))

	builds, err := s.store.Recent(1)
	s.NoError(err)
	s.Require().Len(builds, 1)
	s.Nil(builds[0].Diagnostics)
}
