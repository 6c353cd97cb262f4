package models

// ResultMode selects which course set a computation covers.
type ResultMode string

const (
	// ResultModeSemester1 covers first-semester courses for a level.
	ResultModeSemester1 ResultMode = "semester1"
	// ResultModeSemester2 covers second-semester courses for a level.
	ResultModeSemester2 ResultMode = "semester2"
	// ResultModeCGPA covers both semesters for a level.
	ResultModeCGPA ResultMode = "cgpa"
)

// ValidResultMode reports whether m is a supported computation mode.
func ValidResultMode(m ResultMode) bool {
	switch m {
	case ResultModeSemester1, ResultModeSemester2, ResultModeCGPA:
		return true
	}
	return false
}

// GradeBand maps an inclusive score range to a letter grade and point value.
type GradeBand struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Grade string `json:"grade"`
	Point int    `json:"point"`
}

// GradingTable lists the six bands partitioning [0,100]. Order is highest
// band first, matching how the scale is published.
var GradingTable = []GradeBand{
	{Min: 70, Max: 100, Grade: "A", Point: 5},
	{Min: 60, Max: 69, Grade: "B", Point: 4},
	{Min: 50, Max: 59, Grade: "C", Point: 3},
	{Min: 45, Max: 49, Grade: "D", Point: 2},
	{Min: 40, Max: 44, Grade: "E", Point: 1},
	{Min: 0, Max: 39, Grade: "F", Point: 0},
}

// BandForScore returns the grade band covering score. The second return is
// false when score falls outside [0,100]; callers must reject such scores
// rather than clamp them.
func BandForScore(score int) (GradeBand, bool) {
	for _, band := range GradingTable {
		if score >= band.Min && score <= band.Max {
			return band, true
		}
	}
	return GradeBand{}, false
}

// ScoreSheet maps course keys ("level-code") to manually entered scores.
type ScoreSheet map[string]int

// CourseResult is the per-course breakdown of a GPA computation.
type CourseResult struct {
	CourseCode    string `json:"course_code"`
	CourseTitle   string `json:"course_title"`
	Credits       int    `json:"credits"`
	Score         int    `json:"score"`
	Grade         string `json:"grade"`
	GradePoint    int    `json:"grade_point"`
	QualityPoints int    `json:"quality_points"`
}

// ResultSummary aggregates a GPA or CGPA computation.
type ResultSummary struct {
	Level              int            `json:"level"`
	Mode               ResultMode     `json:"mode"`
	TotalCredits       int            `json:"total_credits"`
	TotalQualityPoints int            `json:"total_quality_points"`
	FinalResult        float64        `json:"final_result"`
	Courses            []CourseResult `json:"courses"`
}
