package domain

// AssessmentInfo is one quiz instance
type AssessmentInfo struct {
	Word            string
	CorrectAnswer   string
	AcceptedAnswers []string
	IsReverse       bool
	PartOfSpeech    PartOfSpeech
}

// Verdict is the outcome of grading a submitted answer
type Verdict struct {
	Accepted      bool
	BestMatch     string
	CorrectAnswer string
	Submitted     string
}
