package services

import (
	"context"
	"encoding/json"
	"testing"

	"greened-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModulesListsPublishedInOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewContentService(db)

	second := models.Module{Title: "Water", TitlePunjabi: "ਪਾਣੀ", Content: "body", IsPublished: true, Order: 2}
	first := models.Module{Title: "Air", IsPublished: true, Order: 1}
	draft := models.Module{Title: "Draft", IsPublished: false, Order: 0}
	require.NoError(t, db.Create(&second).Error)
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&draft).Error)

	views, err := svc.Modules(context.Background(), LangEnglish)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Air", views[0].Title)
	assert.Equal(t, "Water", views[1].Title)
	assert.Empty(t, views[1].Content, "list view omits content")

	pa, err := svc.Module(context.Background(), second.ID, LangPunjabi)
	require.NoError(t, err)
	assert.Equal(t, "ਪਾਣੀ", pa.Title)
	assert.Equal(t, "body", pa.Content, "falls back to English when no translation exists")

	fallback, err := svc.Module(context.Background(), first.ID, LangPunjabi)
	require.NoError(t, err)
	assert.Equal(t, "Air", fallback.Title)
}

func TestQuizForModuleHidesAnswers(t *testing.T) {
	db := newTestDB(t)
	svc := NewContentService(db)
	m := createModule(t, db, "Intro", 10)
	q := createQuiz(t, db, m.ID, 25, 70)

	view, err := svc.QuizForModule(context.Background(), m.ID, LangEnglish)
	require.NoError(t, err)
	assert.Equal(t, q.ID, view.ID)
	require.Len(t, view.Questions, 2)
	assert.Equal(t, 1, view.Questions[1].Index)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct_answer")
	assert.NotContains(t, string(raw), "explanation")

	other := createModule(t, db, "No quiz", 10)
	_, err = svc.QuizForModule(context.Background(), other.ID, LangEnglish)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "quiz not found", err.Error())

	_, err = svc.QuizForModule(context.Background(), "3f0e4a9c-2b7d-4d8e-9a51-6c2f0b1d7e44", LangEnglish)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "module not found", err.Error())
}

func TestChallengesAndExpiry(t *testing.T) {
	db := newTestDB(t)
	svc := NewContentService(db)

	open := models.Challenge{Title: "Open", Type: models.ChallengeTypeEcoTask, Category: "water", IsActive: true, EndDate: "2026-12-31",
		Instructions: []string{"step"}, InstructionsPunjabi: []string{"ਕਦਮ"}}
	ended := models.Challenge{Title: "Ended", Type: models.ChallengeTypeProject, Category: "waste", IsActive: true, EndDate: "2026-03-01"}
	undated := models.Challenge{Title: "Undated", Type: models.ChallengeTypeQuiz, Category: "water", IsActive: true}
	for _, c := range []*models.Challenge{&open, &ended, &undated} {
		require.NoError(t, db.Create(c).Error)
	}

	all, err := svc.Challenges(context.Background(), "", LangEnglish)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	water, err := svc.Challenges(context.Background(), "water", LangPunjabi)
	require.NoError(t, err)
	require.Len(t, water, 2)
	assert.Equal(t, []string{"ਕਦਮ"}, water[0].Instructions)

	n, err := svc.ExpireChallenges(context.Background(), "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err = svc.Challenges(context.Background(), "", LangEnglish)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Expired challenges stay readable by id.
	c, err := svc.Challenge(context.Background(), ended.ID, LangEnglish)
	require.NoError(t, err)
	assert.False(t, c.IsActive)
}
