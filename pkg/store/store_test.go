package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/herlein/ookclone/pkg/pulse"
)

func TestEncode(t *testing.T) {
	data, err := Encode(pulse.Sequence{500, 700, 700})
	require.NoError(t, err)
	assert.Equal(t, "[500,700,700]\n", string(data))

	data, err = Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestDecode(t *testing.T) {
	seq, err := Decode([]byte(" [ 500, 700 ,700 ]\n"))
	require.NoError(t, err)
	assert.Equal(t, pulse.Sequence{500, 700, 700}, seq)

	seq, err = Decode([]byte("[]"))
	require.NoError(t, err)
	assert.NotNil(t, seq)
	assert.Empty(t, seq)
}

func TestDecodeRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"null":         "null",
		"object":       `{"pulses":[1,2]}`,
		"negative":     "[500,-1]",
		"fraction":     "[500,1.5]",
		"exponent":     "[5e2]",
		"string":       `["500"]`,
		"null entry":   "[500,null]",
		"nested":       "[[500]]",
		"too large":    "[4294967296]",
		"truncated":    "[500,",
		"empty input":  "",
		"bare integer": "500",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seq := pulse.Sequence(rapid.SliceOf(rapid.Uint32()).Draw(t, "seq"))

		data, err := Encode(seq)
		require.NoError(t, err)
		got, err := Decode(data)
		require.NoError(t, err)

		assert.Equal(t, seq.Clone(), got)
	})
}

func TestSaveLoad(t *testing.T) {
	s, err := Open(t.TempDir(), "")
	require.NoError(t, err)

	path, err := s.Save("gate", pulse.Sequence{500, 700, 700})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "gate.json"), path)

	seq, err := s.Load("gate")
	require.NoError(t, err)
	assert.Equal(t, pulse.Sequence{500, 700, 700}, seq)

	seq, err = s.Load(path)
	require.NoError(t, err)
	assert.Len(t, seq, 3)
}

func TestSaveReplacesExisting(t *testing.T) {
	s, err := Open(t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.Save("gate", pulse.Sequence{1, 2, 3})
	require.NoError(t, err)
	_, err = s.Save("gate", pulse.Sequence{4})
	require.NoError(t, err)

	seq, err := s.Load("gate")
	require.NoError(t, err)
	assert.Equal(t, pulse.Sequence{4}, seq)

	files, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, files, 1, "temporary files must not be left behind")
}

func TestSaveFailureLeavesNoFile(t *testing.T) {
	s, err := Open(t.TempDir(), "")
	require.NoError(t, err)
	blocker := filepath.Join(s.Dir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err = s.Save(filepath.Join(blocker, "gate.json"), pulse.Sequence{1})

	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "write", storeErr.Op)
	assert.ErrorIs(t, err, ErrPersistence)

	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadErrors(t *testing.T) {
	s, err := Open(t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.Load("missing")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(s.Path("bad"), []byte("null"), 0644))
	_, err = s.Load("bad")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestList(t *testing.T) {
	s, err := Open(t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.Save("b", pulse.Sequence{1})
	require.NoError(t, err)
	_, err = s.Save("a", pulse.Sequence{1, 2})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(s.Path("b"), past, past))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Name)
	assert.Equal(t, "a", entries[1].Name)
	assert.Equal(t, int64(len("[1,2]\n")), entries[1].Size)
}

func TestSaveDottedNameIsListed(t *testing.T) {
	s, err := Open(t.TempDir(), "")
	require.NoError(t, err)

	path, err := s.Save("gate.v2", pulse.Sequence{1, 2})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "gate.v2.json"), path)

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "gate.v2", entries[0].Name)

	seq, err := s.Load(entries[0].Name)
	require.NoError(t, err)
	assert.Equal(t, pulse.Sequence{1, 2}, seq)
}

func TestNewName(t *testing.T) {
	s, err := Open(t.TempDir(), "gate-%Y%m%d-%H%M%S")
	require.NoError(t, err)

	at := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	assert.Equal(t, "gate-20240309-070501", s.NewName(at))

	d, err := Open(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, "capture-20240309-070501", d.NewName(at))
}

func TestPath(t *testing.T) {
	s := &Store{dir: "/var/lib/ookclone"}

	assert.Equal(t, "/var/lib/ookclone/gate.json", s.Path("gate"))
	assert.Equal(t, "/var/lib/ookclone/gate.json", s.Path("gate.json"))
	assert.Equal(t, "/var/lib/ookclone/gate.v2.json", s.Path("gate.v2"))
	assert.Equal(t, "/tmp/x.json", s.Path("/tmp/x"))
}
