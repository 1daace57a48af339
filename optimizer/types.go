package optimizer

// Request carries one optimization job. HTMLCode and FocusKeyword are
// validated by the HTTP layer before they reach the transformer.
type Request struct {
	HTMLCode     string   `json:"html_code"`
	FocusKeyword string   `json:"focus_keyword"`
	SEOScore     int      `json:"seo_score"`
	Categories   []string `json:"categories"`
	Tags         []string `json:"tags"`
	Image        string   `json:"image"`
	Schema       string   `json:"schema"`
}

// Result is the immutable outcome of a single optimization pass.
type Result struct {
	SEOScoreBefore         int      `json:"seo_score_before"`
	SEOScoreAfter          int      `json:"seo_score_after"`
	Improvement            int      `json:"improvement"`
	OptimizedHTMLWordPress string   `json:"optimized_html_wordpress"`
	KeywordDensity         float64  `json:"keyword_density"`
	TitleLength            int      `json:"title_length"`
	MetaLength             int      `json:"meta_length"`
	Optimizations          []string `json:"optimizations"`
}

// Length windows and density band the transformer targets.
const (
	titleMinLen = 55
	titleMaxLen = 60
	metaMinLen  = 140
	metaMaxLen  = 160

	densityMin = 1.5
	densityMax = 2.5
)

// Insertion policy.
const (
	minH2Count        = 3
	internalLinkCount = 3
	maxKeywordInserts = 8
)

// Point table for score recomputation. The score is rebuilt from zero
// against the final document and capped at maxScore.
const (
	pointsTitle         = 5
	pointsMeta          = 5
	pointsH1            = 5
	pointsPerH2         = 5
	maxScoredH2         = 3
	pointsDensity       = 10
	pointsInternalLinks = 10
	pointsAltText       = 10
	pointsExternalLink  = 5
	pointsSchema        = 10
	pointsCanonical     = 5

	maxScore = 100
)
