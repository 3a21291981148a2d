package services

import "greened-backend/models"

// QuizResult is the outcome of one scoring pass.
type QuizResult struct {
	Score          int                    `json:"score"`
	CorrectAnswers int                    `json:"correct_answers"`
	TotalQuestions int                    `json:"total_questions"`
	Passed         bool                   `json:"passed"`
	PointsEarned   int64                  `json:"points_earned"`
	Answers        []models.AttemptAnswer `json:"answers"`
}

// ScoreQuiz grades answers against the quiz's questions. Only the first
// answer for a question index counts; repeats and out-of-range indexes are
// recorded as incorrect so the score stays within 0..100.
func ScoreQuiz(questions []models.QuizQuestion, answers []models.QuizAnswer, passingScore int, points int64) QuizResult {
	res := QuizResult{
		TotalQuestions: len(questions),
		Answers:        make([]models.AttemptAnswer, 0, len(answers)),
	}

	seen := make(map[int]bool, len(answers))
	for _, a := range answers {
		correct := false
		if a.QuestionIndex >= 0 && a.QuestionIndex < len(questions) && !seen[a.QuestionIndex] {
			seen[a.QuestionIndex] = true
			correct = questions[a.QuestionIndex].CorrectAnswer == a.SelectedAnswer
		}
		if correct {
			res.CorrectAnswers++
		}
		res.Answers = append(res.Answers, models.AttemptAnswer{
			QuestionIndex:  a.QuestionIndex,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      correct,
		})
	}

	res.Score = PercentScore(res.CorrectAnswers, res.TotalQuestions)
	res.Passed = res.Score >= passingScore
	res.PointsEarned = QuizPoints(res.Score, passingScore, points)
	return res
}

// PercentScore is round(correct / total * 100) with halves rounded up; an
// empty quiz scores 0. Integer arithmetic keeps exact halves exact.
func PercentScore(correct, total int) int {
	if total <= 0 || correct <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// QuizPoints grants full points on a pass and half, rounded half up, otherwise.
func QuizPoints(score, passingScore int, points int64) int64 {
	if score >= passingScore {
		return points
	}
	if points <= 0 {
		return 0
	}
	return (points + 1) / 2
}

// QuizPointsPolicy decides how repeated attempts on one quiz are credited.
type QuizPointsPolicy string

const (
	// QuizPointsEvery credits every attempt in full.
	QuizPointsEvery QuizPointsPolicy = "every"
	// QuizPointsFirst credits only the user's first attempt.
	QuizPointsFirst QuizPointsPolicy = "first"
	// QuizPointsBest credits only improvements over what was already awarded.
	QuizPointsBest QuizPointsPolicy = "best"
)

// Award returns the points to credit for an attempt worth earned, given how
// many attempts came before and how much they were credited in total.
func (p QuizPointsPolicy) Award(earned int64, priorAttempts int64, priorAwarded int64) int64 {
	switch p {
	case QuizPointsFirst:
		if priorAttempts > 0 {
			return 0
		}
		return earned
	case QuizPointsBest:
		if earned > priorAwarded {
			return earned - priorAwarded
		}
		return 0
	default:
		return earned
	}
}
