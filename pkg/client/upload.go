package client

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wrenchat/wren/pkg/protocol"
)

// PendingAttachment is an attachment staged locally, waiting for an upload
// token. LocalID identifies it in the composer before the server assigns a
// content hash.
type PendingAttachment struct {
	LocalID string
	Name    string
	Type    string
	data    []byte
}

// Uploader runs the two-phase attachment flow: the content command carries
// metadata only, the server answers with a scoped upload token, and the raw
// bytes go out over the HTTP side channel. Clearing of the pending list is
// fire-and-forget: it happens when the requests are dispatched, not when
// their responses land.
type Uploader struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger

	pending       []PendingAttachment
	pendingAvatar *PendingAttachment
}

// NewUploader creates an uploader posting to the given base URL.
func NewUploader(baseURL string, logger zerolog.Logger) *Uploader {
	return &Uploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		log:     logger.With().Str("component", "uploader").Logger(),
	}
}

// LoadAttachment reads a file into an attachment record, guessing the mime
// type from its extension. It touches no uploader state, so the read can run
// on any goroutine and the result staged on the event loop afterwards.
func LoadAttachment(path string) (PendingAttachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PendingAttachment{}, fmt.Errorf("read attachment: %w", err)
	}
	name := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return PendingAttachment{
		LocalID: uuid.NewString(),
		Name:    name,
		Type:    mimeType,
		data:    data,
	}, nil
}

// Stage appends an already-loaded attachment to the pending list.
func (u *Uploader) Stage(att PendingAttachment) {
	u.pending = append(u.pending, att)
}

// Add stages raw bytes as a pending attachment and returns its record.
func (u *Uploader) Add(name, mimeType string, data []byte) PendingAttachment {
	att := PendingAttachment{
		LocalID: uuid.NewString(),
		Name:    name,
		Type:    mimeType,
		data:    data,
	}
	u.Stage(att)
	return att
}

// AddFile stages a file from disk, guessing the mime type from its extension.
func (u *Uploader) AddFile(path string) (PendingAttachment, error) {
	att, err := LoadAttachment(path)
	if err != nil {
		return PendingAttachment{}, err
	}
	u.Stage(att)
	return att, nil
}

// Remove drops a staged attachment by local id.
func (u *Uploader) Remove(localID string) {
	for i := range u.pending {
		if u.pending[i].LocalID == localID {
			u.pending = append(u.pending[:i], u.pending[i+1:]...)
			return
		}
	}
}

// Pending returns the staged attachments.
func (u *Uploader) Pending() []PendingAttachment {
	return u.pending
}

// Metadata returns the attachment metadata for the content command. Hashes
// are absent; the server fills them in once storage is confirmed.
func (u *Uploader) Metadata() []protocol.Attachment {
	if len(u.pending) == 0 {
		return nil
	}
	meta := make([]protocol.Attachment, len(u.pending))
	for i, att := range u.pending {
		meta[i] = protocol.Attachment{Type: att.Type, Name: att.Name}
	}
	return meta
}

// StageAvatar holds an already-loaded profile picture for the edit-account
// flow.
func (u *Uploader) StageAvatar(att PendingAttachment) {
	u.pendingAvatar = &att
}

// Dispatch sends every pending attachment to the upload endpoint, one POST
// per attachment, carrying the token and the attachment index in headers.
// The pending list is cleared immediately; responses are only logged.
func (u *Uploader) Dispatch(token string) {
	batch := u.pending
	u.pending = nil
	if len(batch) == 0 {
		return
	}

	go func() {
		for i, att := range batch {
			if err := u.post(u.baseURL+"/upload/imgs", token, i, att); err != nil {
				u.log.Error().Err(err).Str("name", att.Name).Msg("attachment upload failed")
				continue
			}
			u.log.Debug().Str("name", att.Name).Int("index", i).Msg("attachment uploaded")
		}
	}()
}

// DispatchAvatar sends the staged avatar using an edit-account upload token.
func (u *Uploader) DispatchAvatar(token string) {
	avatar := u.pendingAvatar
	u.pendingAvatar = nil
	if avatar == nil {
		u.log.Warn().Msg("upload token for avatar but none staged")
		return
	}

	go func() {
		if err := u.post(u.baseURL+"/img/"+avatar.Name, token, -1, *avatar); err != nil {
			u.log.Error().Err(err).Str("name", avatar.Name).Msg("avatar upload failed")
		}
	}()
}

func (u *Uploader) post(url, token string, index int, att PendingAttachment) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(att.data))
	if err != nil {
		return err
	}
	req.Header.Set("Upload-Token", token)
	if index >= 0 {
		req.Header.Set("Attach-Index", strconv.Itoa(index))
	}
	if att.Type != "" {
		req.Header.Set("Content-Type", att.Type)
	}

	resp, err := u.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload rejected: %s", resp.Status)
	}
	return nil
}
