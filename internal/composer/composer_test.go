package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camlsync/camlsync/internal/diffengine"
	"github.com/camlsync/camlsync/internal/serverstore"
	"github.com/camlsync/camlsync/internal/versiondiff"
)

func newStoreWithHistory(t *testing.T) *serverstore.Store {
	t.Helper()
	dir := t.TempDir()
	s := serverstore.New(dir)
	require.NoError(t, s.Init("t"))

	// v1: add a.ml = ["x"]
	_, err := s.Append(versiondiff.VersionDiff{EditedFiles: []versiondiff.FileDiff{
		{FileName: "a.ml", ContentDiff: diffengine.CalcDiff(nil, []string{"x"})},
	}})
	require.NoError(t, err)

	// v2: add b.ml = ["1","2"], edit a.ml -> ["y"]
	_, err = s.Append(versiondiff.VersionDiff{EditedFiles: []versiondiff.FileDiff{
		{FileName: "a.ml", ContentDiff: diffengine.CalcDiff([]string{"x"}, []string{"y"})},
		{FileName: "b.ml", ContentDiff: diffengine.CalcDiff(nil, []string{"1", "2"})},
	}})
	require.NoError(t, err)

	// v3: delete a.ml
	_, err = s.Append(versiondiff.VersionDiff{EditedFiles: []versiondiff.FileDiff{
		{FileName: "a.ml", IsDeleted: true, ContentDiff: diffengine.Empty},
	}})
	require.NoError(t, err)

	return s
}

func TestCompose_FromZeroToCurrent_MatchesFullReplay(t *testing.T) {
	s := newStoreWithHistory(t)

	vd, err := Compose(s, 0, 3)
	require.NoError(t, err)

	byName := map[string]versiondiff.FileDiff{}
	for _, fd := range vd.EditedFiles {
		byName[fd.FileName] = fd
	}

	// a.ml is created in v1 and deleted in v3: absent at both ends of 0..3,
	// so it does not differ between the two states and gets no entry.
	_, ok := byName["a.ml"]
	assert.False(t, ok)
	require.Len(t, vd.EditedFiles, 1)

	bFd, ok := byName["b.ml"]
	require.True(t, ok)
	assert.False(t, bFd.IsDeleted)
	got, err := diffengine.Apply(nil, bFd.ContentDiff)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestCompose_PartialRange(t *testing.T) {
	s := newStoreWithHistory(t)

	vd, err := Compose(s, 1, 2)
	require.NoError(t, err)
	require.Len(t, vd.EditedFiles, 2)

	byName := map[string]versiondiff.FileDiff{}
	for _, fd := range vd.EditedFiles {
		byName[fd.FileName] = fd
	}
	aFd := byName["a.ml"]
	got, err := diffengine.Apply([]string{"x"}, aFd.ContentDiff)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, got)
}

func TestCompose_NoChangeInRange_IsEmpty(t *testing.T) {
	s := newStoreWithHistory(t)
	vd, err := Compose(s, 3, 3)
	require.NoError(t, err)
	assert.Empty(t, vd.EditedFiles)
}

func TestCompose_InvalidRange(t *testing.T) {
	s := newStoreWithHistory(t)
	_, err := Compose(s, 3, 1)
	assert.Error(t, err)
}

func TestComposeThenApply_ReconstructsTargetVersion(t *testing.T) {
	// invariant 2: applying compose(a,b) to state at a reproduces state at b.
	s := newStoreWithHistory(t)

	stateAt1, err := Compose(s, 0, 1)
	require.NoError(t, err)
	fd, ok := stateAt1.Find("a.ml")
	require.True(t, ok)
	aAt1, err := diffengine.Apply(nil, fd.ContentDiff)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, aAt1)

	step, err := Compose(s, 1, 2)
	require.NoError(t, err)
	fd, ok = step.Find("a.ml")
	require.True(t, ok)
	aAt2, err := diffengine.Apply(aAt1, fd.ContentDiff)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, aAt2)
}
