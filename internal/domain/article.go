package domain

// ArticleExtraction is the outcome of reducing one URL to readable content.
// It is a tagged variant: either Title/BodyText are set (success) or
// FailureReason is set (failure), never both. Extractions are consumed by
// the synthesis stage and are not persisted on their own.
type ArticleExtraction struct {
	SourceURL     string `json:"source_url"`
	Title         string `json:"title,omitempty"`
	BodyText      string `json:"body_text,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// OK reports whether the extraction succeeded.
func (e ArticleExtraction) OK() bool {
	return e.FailureReason == ""
}

// ExtractionSuccess builds the success variant.
func ExtractionSuccess(url, title, body string) ArticleExtraction {
	return ArticleExtraction{SourceURL: url, Title: title, BodyText: body}
}

// ExtractionFailure builds the failure variant with a short diagnostic.
func ExtractionFailure(url, reason string) ArticleExtraction {
	return ArticleExtraction{SourceURL: url, FailureReason: reason}
}
