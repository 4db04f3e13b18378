package service

import (
	"bytes"
	"context"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/store"
)

const defaultMimeType = "application/octet-stream"

// upload buffers in and writes it to the blob store under a fresh key.
func (s *Service) upload(ctx context.Context, repositoryID string, in *ContentInput) (*cmis.ContentStream, error) {
	if in == nil {
		return nil, nil
	}
	if in.Reader == nil {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "content stream without data")
	}
	reader := in.Reader
	if s.maxContentSize > 0 {
		reader = io.LimitReader(in.Reader, s.maxContentSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if s.maxContentSize > 0 && int64(len(data)) > s.maxContentSize {
		return nil, cmis.Errorf(cmis.ErrConstraint, "content stream exceeds %d bytes", s.maxContentSize)
	}

	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	stream := &cmis.ContentStream{
		StreamID: path.Join(repositoryID, uuid.NewString()),
		Length:   int64(len(data)),
		MimeType: mimeType,
		FileName: in.FileName,
	}
	if err := s.blobs.Upload(ctx, stream.StreamID, bytes.NewReader(data), mimeType); err != nil {
		return nil, &cmis.ObjectError{ObjectID: stream.StreamID, Op: "upload", Err: err}
	}
	return stream, nil
}

// discard deletes the blob of a stream whose store operation failed.
func (s *Service) discard(ctx context.Context, stream *cmis.ContentStream) {
	if stream == nil {
		return
	}
	if err := s.blobs.Delete(ctx, stream.StreamID); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete orphaned content stream", "stream_id", stream.StreamID, "error", err)
	}
}

// release deletes the blobs of streams no object references any more.
func (s *Service) release(ctx context.Context, st *store.Store, streams ...*cmis.ContentStream) {
	seen := make(map[string]bool, len(streams))
	for _, stream := range streams {
		if stream == nil || seen[stream.StreamID] {
			continue
		}
		seen[stream.StreamID] = true
		if st.ContentReferenced(stream.StreamID) {
			continue
		}
		if err := s.blobs.Delete(ctx, stream.StreamID); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete content stream",
				"repository_id", st.RepositoryID(), "stream_id", stream.StreamID, "error", err)
		}
	}
}

// GetContentStream opens the content of a document.
func (s *Service) GetContentStream(ctx context.Context, repositoryID, id string) (_ *ContentStream, err error) {
	defer s.track(repositoryID, "getContentStream", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, id, acl.PermissionRead); err != nil {
		return nil, err
	}
	obj, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	if obj.Content == nil {
		return nil, cmis.Errorf(cmis.ErrConstraint, "object %q has no content stream", id)
	}
	body, err := s.blobs.Download(ctx, obj.Content.StreamID)
	if err != nil {
		return nil, &cmis.ObjectError{ObjectID: id, Op: "download", Err: err}
	}
	return &ContentStream{Stream: obj.Content, Body: body}, nil
}

// SetContentStream sets or, with overwrite, replaces the content of a
// document. Versioned documents only accept content on their PWC.
func (s *Service) SetContentStream(ctx context.Context, repositoryID, id, changeToken string, in *ContentInput, overwrite bool) (_ *store.Object, err error) {
	defer s.track(repositoryID, "setContentStream", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "content stream is required")
	}
	if err := authorize(ctx, st, id, acl.PermissionWrite); err != nil {
		return nil, err
	}
	stream, err := s.upload(ctx, repositoryID, in)
	if err != nil {
		return nil, err
	}
	obj, replaced, err := st.SetContent(id, changeToken, stream, overwrite, Principal(ctx))
	if err != nil {
		s.discard(ctx, stream)
		return nil, err
	}
	s.release(ctx, st, replaced)
	s.notify(ctx, eventUpdated, repositoryID, obj.ID)
	return obj, nil
}

// DeleteContentStream removes the content of a document.
func (s *Service) DeleteContentStream(ctx context.Context, repositoryID, id, changeToken string) (_ *store.Object, err error) {
	defer s.track(repositoryID, "deleteContentStream", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, id, acl.PermissionWrite); err != nil {
		return nil, err
	}
	obj, removed, err := st.DeleteContent(id, changeToken, Principal(ctx))
	if err != nil {
		return nil, err
	}
	s.release(ctx, st, removed)
	s.notify(ctx, eventUpdated, repositoryID, obj.ID)
	return obj, nil
}
