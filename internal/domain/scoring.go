package domain

import "github.com/google/uuid"

// SessionScore is the percentage of correct answers among the answers
// recorded for a session. A session without answers scores 0.
func SessionScore(answers []Answer) float64 {
	if len(answers) == 0 {
		return 0
	}
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(answers))
}

// FinalScore is the unweighted mean of session scores.
func FinalScore(sessionScores []float64) float64 {
	if len(sessionScores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range sessionScores {
		sum += s
	}
	return sum / float64(len(sessionScores))
}

// Summarize builds statistics over final scores; every field is 0 when scores is empty.
func Summarize(quizID uuid.UUID, scores []float64) Statistics {
	stats := Statistics{QuizID: quizID, Count: len(scores)}
	if len(scores) == 0 {
		return stats
	}
	stats.Max = scores[0]
	stats.Min = scores[0]
	sum := 0.0
	for _, s := range scores {
		sum += s
		if s > stats.Max {
			stats.Max = s
		}
		if s < stats.Min {
			stats.Min = s
		}
	}
	stats.Average = sum / float64(len(scores))
	return stats
}
