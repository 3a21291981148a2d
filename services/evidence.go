package services

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"greened-backend/logger"
	"greened-backend/models"
	"greened-backend/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxEvidenceBytes caps a single evidence upload.
const MaxEvidenceBytes = 10 << 20

var evidenceExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type EvidenceUpload struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// EvidenceService stores photo evidence for challenge submissions.
type EvidenceService struct {
	DB    *gorm.DB
	Store utils.MediaStore
	Log   *logger.Logger
}

func NewEvidenceService(db *gorm.DB, store utils.MediaStore, log *logger.Logger) *EvidenceService {
	return &EvidenceService{DB: db, Store: store, Log: log.With("service", "EvidenceService")}
}

// Upload validates an image against the challenge and stores it under
// evidence/<challenge>/<user>/. The returned URL goes into a submission's image_url.
func (s *EvidenceService) Upload(ctx context.Context, sess *Session, challengeID string, body io.Reader) (*EvidenceUpload, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	challenge, err := findByID[models.Challenge](s.DB.WithContext(ctx), challengeID, "challenge")
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxEvidenceBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, invalid("file is empty")
	}
	if len(data) > MaxEvidenceBytes {
		return nil, invalid("file exceeds %d MB", MaxEvidenceBytes>>20)
	}
	contentType := mimetype.Detect(data).String()
	ext, ok := evidenceExtensions[strings.Split(contentType, ";")[0]]
	if !ok {
		return nil, invalid("unsupported file type %s", contentType)
	}

	key := path.Join("evidence", challenge.ID, user.ID, uuid.NewString()+ext)
	url, err := s.Store.Put(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	s.Log.Info("evidence uploaded", "user_id", user.ID, "challenge_id", challenge.ID, "key", key, "bytes", len(data))
	return &EvidenceUpload{URL: url, Key: key, ContentType: contentType, Size: len(data)}, nil
}
