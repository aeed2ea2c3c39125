package model

// MatchFilters narrows candidate instructors beyond distance.
type MatchFilters struct {
	LessonType string  `json:"lesson_type,omitempty"`
	MinRating  float64 `json:"min_rating,omitempty"`
}

// CandidateInstructor is one ranked entry in a matching result. The list is
// a snapshot: candidates may change between query and booking, and the
// booking coordinator is what enforces correctness downstream.
type CandidateInstructor struct {
	InstructorID   string  `json:"instructor_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DistanceMeters float64 `json:"distance_meters"`
	Rating         float64 `json:"rating"`
}
