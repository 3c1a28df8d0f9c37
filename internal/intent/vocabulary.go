package intent

// Vocabulary lists are matched by substring containment against the
// normalized query, in the order given here.
var (
	timeKeywords = []string{
		"today", "tomorrow", "this week", "next week", "weekend",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"morning", "afternoon", "evening", "night",
	}

	foodKeywords = []string{
		"food", "eat", "lunch", "dinner", "breakfast", "snack", "pizza",
		"coffee", "drinks", "refreshments", "free",
	}

	foodTypes = []string{
		"pizza", "burger", "sandwich", "coffee", "tea", "breakfast",
		"lunch", "dinner", "snack", "vegetarian", "vegan", "gluten-free",
	}

	academicKeywords = []string{
		"class", "study", "tutor", "lecture", "academic", "professor",
		"course", "lab", "assignment", "exam", "test", "midterm", "final",
		"research", "library", "workshop",
	}

	careerKeywords = []string{
		"career", "job", "internship", "resume", "interview", "networking",
		"professional", "employer", "company", "industry", "hiring", "opportunity",
	}

	socialKeywords = []string{
		"social", "club", "organization", "group", "community", "meet",
		"event", "party", "game", "movie", "fun", "hang out", "friend",
	}

	locationKeywords = []string{
		"where", "location", "building", "room", "hall", "center", "campus",
	}

	campusLocations = []string{
		"campus center", "gitc", "tiernan hall", "kupfrian hall", "central king building",
		"weston hall", "fenster hall", "faculty dining room", "warren street village",
		"honors college", "wellness center", "athletic center", "library",
	}

	stopWords = map[string]struct{}{
		"the": {}, "and": {}, "or": {}, "a": {}, "an": {}, "in": {}, "on": {}, "at": {},
		"for": {}, "to": {}, "with": {}, "about": {}, "from": {}, "by": {}, "after": {},
		"before": {}, "is": {}, "are": {}, "am": {}, "was": {}, "were": {}, "be": {},
		"been": {}, "being": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
		"did": {}, "will": {}, "would": {}, "can": {}, "could": {}, "should": {},
		"may": {}, "might": {}, "must": {},
	}

	// questionPrefixes is checked in order; the first prefix match wins.
	questionPrefixes = []QuestionType{
		QuestionWhat, QuestionWhere, QuestionWhen, QuestionHow, QuestionWhy, QuestionWho,
	}
)

// IsStopWord reports whether w is dropped from extracted keywords.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}
