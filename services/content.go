package services

import (
	"context"
	"errors"

	"greened-backend/models"

	"gorm.io/gorm"
)

// Lang is a negotiated content language.
type Lang string

const (
	LangEnglish Lang = "en"
	LangPunjabi Lang = "pa"
)

// pick prefers the Punjabi text when asked for it and it exists.
func pick(lang Lang, en, pa string) string {
	if lang == LangPunjabi && pa != "" {
		return pa
	}
	return en
}

func pickList(lang Lang, en, pa []string) []string {
	if lang == LangPunjabi && len(pa) > 0 {
		return pa
	}
	return en
}

type ModuleView struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Content       string `json:"content,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Difficulty    string `json:"difficulty"`
	EstimatedTime int    `json:"estimated_time"`
	Points        int64  `json:"points"`
	Category      string `json:"category"`
	Order         int    `json:"order"`
	Language      Lang   `json:"language"`
}

func newModuleView(m *models.Module, lang Lang, withContent bool) ModuleView {
	v := ModuleView{
		ID:            m.ID,
		Title:         pick(lang, m.Title, m.TitlePunjabi),
		Description:   pick(lang, m.Description, m.DescriptionPunjabi),
		ImageURL:      m.ImageURL,
		Difficulty:    m.Difficulty,
		EstimatedTime: m.EstimatedTime,
		Points:        m.Points,
		Category:      m.Category,
		Order:         m.Order,
		Language:      lang,
	}
	if withContent {
		v.Content = pick(lang, m.Content, m.ContentPunjabi)
	}
	return v
}

// QuestionView is a quiz question as shown to a learner; the answer key stays server side.
type QuestionView struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type QuizView struct {
	ID           string         `json:"id"`
	ModuleID     string         `json:"module_id"`
	Title        string         `json:"title"`
	Questions    []QuestionView `json:"questions"`
	TimeLimit    int            `json:"time_limit,omitempty"`
	PassingScore int            `json:"passing_score"`
	Points       int64          `json:"points"`
	Language     Lang           `json:"language"`
}

type ChallengeView struct {
	ID                   string               `json:"id"`
	Title                string               `json:"title"`
	Description          string               `json:"description"`
	Type                 models.ChallengeType `json:"type"`
	Category             string               `json:"category"`
	Difficulty           string               `json:"difficulty"`
	Points               int64                `json:"points"`
	ImageURL             string               `json:"image_url,omitempty"`
	Instructions         []string             `json:"instructions"`
	IsActive             bool                 `json:"is_active"`
	StartDate            string               `json:"start_date,omitempty"`
	EndDate              string               `json:"end_date,omitempty"`
	MaxParticipants      int                  `json:"max_participants,omitempty"`
	RequiresVerification bool                 `json:"requires_verification"`
	Language             Lang                 `json:"language"`
}

func newChallengeView(c *models.Challenge, lang Lang) ChallengeView {
	return ChallengeView{
		ID:                   c.ID,
		Title:                pick(lang, c.Title, c.TitlePunjabi),
		Description:          pick(lang, c.Description, c.DescriptionPunjabi),
		Type:                 c.Type,
		Category:             c.Category,
		Difficulty:           c.Difficulty,
		Points:               c.Points,
		ImageURL:             c.ImageURL,
		Instructions:         pickList(lang, c.Instructions, c.InstructionsPunjabi),
		IsActive:             c.IsActive,
		StartDate:            c.StartDate,
		EndDate:              c.EndDate,
		MaxParticipants:      c.MaxParticipants,
		RequiresVerification: c.RequiresVerification,
		Language:             lang,
	}
}

// ContentService serves the read side of modules, quizzes and challenges.
type ContentService struct {
	DB *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{DB: db}
}

// Modules lists published modules in their configured order.
func (s *ContentService) Modules(ctx context.Context, lang Lang) ([]ModuleView, error) {
	var rows []models.Module
	err := s.DB.WithContext(ctx).
		Where("is_published = ?", true).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ModuleView, len(rows))
	for i := range rows {
		out[i] = newModuleView(&rows[i], lang, false)
	}
	return out, nil
}

func (s *ContentService) Module(ctx context.Context, id string, lang Lang) (*ModuleView, error) {
	m, err := findByID[models.Module](s.DB.WithContext(ctx), id, "module")
	if err != nil {
		return nil, err
	}
	v := newModuleView(m, lang, true)
	return &v, nil
}

// QuizForModule returns the module's quiz without correct answers or explanations.
func (s *ContentService) QuizForModule(ctx context.Context, moduleID string, lang Lang) (*QuizView, error) {
	db := s.DB.WithContext(ctx)
	if _, err := findByID[models.Module](db, moduleID, "module"); err != nil {
		return nil, err
	}
	var quiz models.Quiz
	if err := db.Where("module_id = ?", moduleID).Order("created_at ASC").First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("quiz")
		}
		return nil, err
	}

	questions := make([]QuestionView, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = QuestionView{
			Index:    i,
			Question: pick(lang, q.Question, q.QuestionPunjabi),
			Options:  pickList(lang, q.Options, q.OptionsPunjabi),
		}
	}
	return &QuizView{
		ID:           quiz.ID,
		ModuleID:     quiz.ModuleID,
		Title:        pick(lang, quiz.Title, quiz.TitlePunjabi),
		Questions:    questions,
		TimeLimit:    quiz.TimeLimit,
		PassingScore: quiz.PassingScore,
		Points:       quiz.Points,
		Language:     lang,
	}, nil
}

// Challenges lists active challenges, optionally narrowed to one category.
func (s *ContentService) Challenges(ctx context.Context, category string, lang Lang) ([]ChallengeView, error) {
	q := s.DB.WithContext(ctx).Where("is_active = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var rows []models.Challenge
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ChallengeView, len(rows))
	for i := range rows {
		out[i] = newChallengeView(&rows[i], lang)
	}
	return out, nil
}

func (s *ContentService) Challenge(ctx context.Context, id string, lang Lang) (*ChallengeView, error) {
	c, err := findByID[models.Challenge](s.DB.WithContext(ctx), id, "challenge")
	if err != nil {
		return nil, err
	}
	v := newChallengeView(c, lang)
	return &v, nil
}

// ExpireChallenges deactivates active challenges whose end date is before now.
// End dates are stored as YYYY-MM-DD or RFC 3339 strings, so both compare lexically.
func (s *ContentService) ExpireChallenges(ctx context.Context, now string) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Challenge{}).
		Where("is_active = ? AND end_date <> '' AND end_date < ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
