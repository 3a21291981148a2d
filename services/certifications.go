package services

import (
	"context"
	"errors"
	"strings"

	"greened-backend/models"

	"gorm.io/gorm"
)

type CertificationService struct {
	DB *gorm.DB
}

func NewCertificationService(db *gorm.DB) *CertificationService {
	return &CertificationService{DB: db}
}

// ListForUser returns the caller's certifications, newest first.
func (s *CertificationService) ListForUser(ctx context.Context, sess *Session) ([]models.Certification, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	var certs []models.Certification
	err = s.DB.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("issue_date DESC").
		Find(&certs).Error
	return certs, err
}

// VerifiedCertification is what anyone holding a code may see.
type VerifiedCertification struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	HolderName       string `json:"holder_name"`
	IssueDate        string `json:"issue_date"`
	VerificationCode string `json:"verification_code"`
}

func (s *CertificationService) Verify(ctx context.Context, code string) (*VerifiedCertification, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, notFound("certification")
	}
	db := s.DB.WithContext(ctx)

	var cert models.Certification
	if err := db.Where("verification_code = ?", code).First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("certification")
		}
		return nil, err
	}
	var holder models.User
	if err := db.Select("id", "name").Where("id = ?", cert.UserID).First(&holder).Error; err != nil &&
		!errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &VerifiedCertification{
		Title:            cert.Title,
		Description:      cert.Description,
		HolderName:       holder.DisplayName(),
		IssueDate:        cert.IssueDate.UTC().Format(dateLayout),
		VerificationCode: cert.VerificationCode,
	}, nil
}
