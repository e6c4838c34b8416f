package pixiv

import (
	"net/url"
	"strconv"
	"time"
)

// Sort orders for search endpoints.
const (
	SortDateDesc    = "date_desc"
	SortDateAsc     = "date_asc"
	SortPopularDesc = "popular_desc"
)

// Search targets.
const (
	TargetPartialMatchForTags = "partial_match_for_tags"
	TargetExactMatchForTags   = "exact_match_for_tags"
	TargetTitleAndCaption     = "title_and_caption"
	TargetKeyword             = "keyword"
	TargetText                = "text"
)

// Search durations.
const (
	DurationWithinLastDay   = "within_last_day"
	DurationWithinLastWeek  = "within_last_week"
	DurationWithinLastMonth = "within_last_month"
)

// QueryParams represents query parameters recognized by AppAPI list and
// search endpoints. The zero value omits everything; build incrementally
// with the With* methods.
type QueryParams struct {
	Word         string
	Sort         string
	Target       string
	Duration     string
	Offset       int
	Restrict     Restrict
	MinBookmarks int
	MaxBookmarks int
	StartDate    *time.Time
	EndDate      *time.Time

	// Extra holds endpoint-specific parameters not covered above.
	Extra map[string]string
}

// NewQueryParams creates an empty QueryParams.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Extra: make(map[string]string),
	}
}

// WithWord sets the search word.
func (p *QueryParams) WithWord(word string) *QueryParams {
	p.Word = word
	return p
}

// WithSort sets the sort order.
func (p *QueryParams) WithSort(sort string) *QueryParams {
	p.Sort = sort
	return p
}

// WithTarget sets the search target.
func (p *QueryParams) WithTarget(target string) *QueryParams {
	p.Target = target
	return p
}

// WithDuration restricts results to a recent window.
func (p *QueryParams) WithDuration(duration string) *QueryParams {
	p.Duration = duration
	return p
}

// WithOffset sets the result offset.
func (p *QueryParams) WithOffset(offset int) *QueryParams {
	p.Offset = offset
	return p
}

// WithRestrict sets the visibility scope.
func (p *QueryParams) WithRestrict(restrict Restrict) *QueryParams {
	p.Restrict = restrict
	return p
}

// WithBookmarkRange bounds results by bookmark count. Zero means
// unbounded on that side.
func (p *QueryParams) WithBookmarkRange(minBookmarks, maxBookmarks int) *QueryParams {
	p.MinBookmarks = minBookmarks
	p.MaxBookmarks = maxBookmarks

	return p
}

// WithDateRange bounds results by creation date.
func (p *QueryParams) WithDateRange(start, end time.Time) *QueryParams {
	p.StartDate = &start
	p.EndDate = &end

	return p
}

// WithExtra sets an endpoint-specific parameter verbatim.
func (p *QueryParams) WithExtra(key, value string) *QueryParams {
	if p.Extra == nil {
		p.Extra = make(map[string]string)
	}

	p.Extra[key] = value

	return p
}

// ToValues converts the parameters to url.Values.
func (p *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if p == nil {
		return values
	}

	if p.Word != "" {
		values.Set("word", p.Word)
	}

	if p.Sort != "" {
		values.Set("sort", p.Sort)
	}

	if p.Target != "" {
		values.Set("search_target", p.Target)
	}

	if p.Duration != "" {
		values.Set("duration", p.Duration)
	}

	if p.Offset > 0 {
		values.Set("offset", strconv.Itoa(p.Offset))
	}

	if p.Restrict != "" {
		values.Set("restrict", string(p.Restrict))
	}

	if p.MinBookmarks > 0 {
		values.Set("bookmark_num_min", strconv.Itoa(p.MinBookmarks))
	}

	if p.MaxBookmarks > 0 {
		values.Set("bookmark_num_max", strconv.Itoa(p.MaxBookmarks))
	}

	if p.StartDate != nil {
		values.Set("start_date", p.StartDate.Format("2006-01-02"))
	}

	if p.EndDate != nil {
		values.Set("end_date", p.EndDate.Format("2006-01-02"))
	}

	for key, value := range p.Extra {
		values.Set(key, value)
	}

	return values
}
