package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadRecord struct {
	path        string
	token       string
	attachIndex string
	hasIndex    bool
	contentType string
	body        []byte
}

// uploadServer records every POST the uploader makes.
type uploadServer struct {
	mu       sync.Mutex
	received []uploadRecord
	srv      *httptest.Server
}

func newUploadServer(t *testing.T) *uploadServer {
	s := &uploadServer{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		idx, hasIdx := r.Header["Attach-Index"]
		rec := uploadRecord{
			path:        r.URL.Path,
			token:       r.Header.Get("Upload-Token"),
			hasIndex:    hasIdx,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		}
		if hasIdx {
			rec.attachIndex = idx[0]
		}
		s.mu.Lock()
		s.received = append(s.received, rec)
		s.mu.Unlock()
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *uploadServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func (s *uploadServer) records() []uploadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uploadRecord, len(s.received))
	copy(out, s.received)
	return out
}

func TestDispatchPostsEachAttachment(t *testing.T) {
	srv := newUploadServer(t)
	u := NewUploader(srv.srv.URL, zerolog.Nop())

	u.Add("a.png", "image/png", []byte("aaa"))
	u.Add("b.jpg", "image/jpeg", []byte("bbb"))

	u.Dispatch("tok-123")

	// Pending list is cleared at dispatch time, not on completion
	assert.Empty(t, u.Pending())

	require.Eventually(t, func() bool { return srv.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	recs := srv.records()
	byIndex := map[string]uploadRecord{}
	for _, r := range recs {
		assert.Equal(t, "/upload/imgs", r.path)
		assert.Equal(t, "tok-123", r.token)
		require.True(t, r.hasIndex)
		byIndex[r.attachIndex] = r
	}
	assert.Equal(t, []byte("aaa"), byIndex["0"].body)
	assert.Equal(t, "image/png", byIndex["0"].contentType)
	assert.Equal(t, []byte("bbb"), byIndex["1"].body)
	assert.Equal(t, "image/jpeg", byIndex["1"].contentType)
}

func TestDispatchWithNothingPendingIsNoop(t *testing.T) {
	srv := newUploadServer(t)
	u := NewUploader(srv.srv.URL, zerolog.Nop())

	u.Dispatch("tok")

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, srv.count())
}

func TestDispatchAvatar(t *testing.T) {
	srv := newUploadServer(t)
	u := NewUploader(srv.srv.URL, zerolog.Nop())

	path := filepath.Join(t.TempDir(), "face.png")
	require.NoError(t, os.WriteFile(path, []byte("pixels"), 0644))

	att, err := LoadAttachment(path)
	require.NoError(t, err)
	assert.Equal(t, "face.png", att.Name)
	u.StageAvatar(att)

	u.DispatchAvatar("tok-pfp")

	require.Eventually(t, func() bool { return srv.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	rec := srv.records()[0]
	assert.Equal(t, "/img/face.png", rec.path)
	assert.Equal(t, "tok-pfp", rec.token)
	// Avatars are single files, no index header
	assert.False(t, rec.hasIndex)
	assert.Equal(t, []byte("pixels"), rec.body)
}

func TestMetadataOmitsHashes(t *testing.T) {
	u := NewUploader("http://localhost:0", zerolog.Nop())

	u.Add("doc.pdf", "application/pdf", []byte("x"))
	meta := u.Metadata()

	require.Len(t, meta, 1)
	assert.Equal(t, "doc.pdf", meta[0].Name)
	assert.Equal(t, "application/pdf", meta[0].Type)
	assert.Empty(t, meta[0].Hash)
}

func TestAddFileGuessesMimeType(t *testing.T) {
	u := NewUploader("http://localhost:0", zerolog.Nop())

	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("png bytes"), 0644))

	att, err := u.AddFile(path)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", att.Name)
	assert.Equal(t, "image/png", att.Type)
	assert.NotEmpty(t, att.LocalID)

	// Unknown extension falls back to a generic type
	blob := filepath.Join(dir, "data.zzz9")
	require.NoError(t, os.WriteFile(blob, []byte("?"), 0644))
	att, err = u.AddFile(blob)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", att.Type)
}

func TestRemoveDropsStagedAttachment(t *testing.T) {
	u := NewUploader("http://localhost:0", zerolog.Nop())

	a := u.Add("a.png", "image/png", nil)
	b := u.Add("b.png", "image/png", nil)

	u.Remove(a.LocalID)

	require.Len(t, u.Pending(), 1)
	assert.Equal(t, b.LocalID, u.Pending()[0].LocalID)

	// Unknown id: no-op
	u.Remove("nope")
	assert.Len(t, u.Pending(), 1)
}
