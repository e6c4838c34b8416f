package pixiv

import (
	"net/mail"
	"time"
)

// IllustType enumerates the kinds of artwork the AppAPI returns.
type IllustType string

// Illust types.
const (
	IllustTypeIllust IllustType = "illust"
	IllustTypeManga  IllustType = "manga"
	IllustTypeUgoira IllustType = "ugoira"
)

// Restrict enumerates visibility scopes for follows and bookmarks.
type Restrict string

// Restrict values.
const (
	RestrictPublic  Restrict = "public"
	RestrictPrivate Restrict = "private"
)

// ImageURLs holds the size variants of an image. Original is only present
// on single-page works.
type ImageURLs struct {
	SquareMedium string `json:"square_medium"`
	Medium       string `json:"medium"`
	Large        string `json:"large"`
	Original     string `json:"original,omitempty"`
}

// ProfileImageURLs holds a user's avatar variants.
type ProfileImageURLs struct {
	Medium string `json:"medium"`
}

// Tag is a work tag with an optional translation.
type Tag struct {
	Name           string `json:"name"`
	TranslatedName string `json:"translated_name,omitempty"`
}

// User is the compact user record embedded in works and comments.
type User struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Account          string           `json:"account"`
	ProfileImageURLs ProfileImageURLs `json:"profile_image_urls"`
	IsFollowed       bool             `json:"is_followed,omitempty"`
	IsPremium        bool             `json:"is_premium,omitempty"`
	MailAddress      string           `json:"mail_address,omitempty"`
}

// Validate reports whether the record satisfies its schema.
func (u *User) Validate() error {
	if u.ID == 0 {
		return &DecodeError{Field: "user.id", Expected: "non-zero integer", Actual: "absent or zero"}
	}

	if u.Name == "" && u.Account == "" {
		return &DecodeError{Field: "user.name", Expected: "non-empty string", Actual: "empty"}
	}

	if u.MailAddress != "" {
		if _, err := mail.ParseAddress(u.MailAddress); err != nil {
			return &DecodeError{Field: "user.mail_address", Expected: "email address", Actual: u.MailAddress, Err: err}
		}
	}

	return nil
}

// Profile is the extended profile block on a user detail response.
type Profile struct {
	Webpage                    string `json:"webpage,omitempty"`
	Gender                     string `json:"gender,omitempty"`
	Birth                      string `json:"birth,omitempty"`
	Region                     string `json:"region,omitempty"`
	Job                        string `json:"job,omitempty"`
	TotalFollowUsers           int    `json:"total_follow_users"`
	TotalIllusts               int    `json:"total_illusts"`
	TotalManga                 int    `json:"total_manga"`
	TotalNovels                int    `json:"total_novels"`
	TotalIllustBookmarksPublic int    `json:"total_illust_bookmarks_public"`
	BackgroundImageURL         string `json:"background_image_url,omitempty"`
	TwitterAccount             string `json:"twitter_account,omitempty"`
	IsPremium                  bool   `json:"is_premium"`
}

// Workspace describes the tools a user reports working with.
type Workspace struct {
	PC      string `json:"pc,omitempty"`
	Monitor string `json:"monitor,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Desk    string `json:"desk,omitempty"`
	Music   string `json:"music,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// UserDetail is the full user record returned by the user detail endpoint.
type UserDetail struct {
	User      User      `json:"user"`
	Profile   Profile   `json:"profile"`
	Workspace Workspace `json:"workspace"`
}

// Validate reports whether the record satisfies its schema.
func (d *UserDetail) Validate() error {
	return d.User.Validate()
}

// UserPreview is a user search hit: the user plus a sample of recent works.
type UserPreview struct {
	User    User     `json:"user"`
	Illusts []Illust `json:"illusts"`
	Novels  []Novel  `json:"novels"`
	IsMuted bool     `json:"is_muted"`
}

// Validate reports whether the record satisfies its schema.
func (p *UserPreview) Validate() error {
	return p.User.Validate()
}

// Series is the series a work belongs to, when any.
type Series struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// MetaSinglePage carries the original image URL for single-page works.
type MetaSinglePage struct {
	OriginalImageURL string `json:"original_image_url,omitempty"`
}

// MetaPage is one page of a multi-page work.
type MetaPage struct {
	ImageURLs ImageURLs `json:"image_urls"`
}

// Illust is an illustration, manga, or ugoira work.
type Illust struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Type           IllustType     `json:"type"`
	ImageURLs      ImageURLs      `json:"image_urls"`
	Caption        string         `json:"caption"`
	Restrict       int            `json:"restrict"`
	User           User           `json:"user"`
	Tags           []Tag          `json:"tags"`
	Tools          []string       `json:"tools"`
	CreateDate     time.Time      `json:"create_date"`
	PageCount      int            `json:"page_count"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	SanityLevel    int            `json:"sanity_level"`
	XRestrict      int            `json:"x_restrict"`
	Series         *Series        `json:"series,omitempty"`
	MetaSinglePage MetaSinglePage `json:"meta_single_page"`
	MetaPages      []MetaPage     `json:"meta_pages"`
	TotalView      int            `json:"total_view"`
	TotalBookmarks int            `json:"total_bookmarks"`
	IsBookmarked   bool           `json:"is_bookmarked"`
	Visible        bool           `json:"visible"`
	IsMuted        bool           `json:"is_muted"`
	TotalComments  int            `json:"total_comments,omitempty"`
}

// Validate reports whether the record satisfies its schema.
func (i *Illust) Validate() error {
	if i.ID == 0 {
		return &DecodeError{Field: "illust.id", Expected: "non-zero integer", Actual: "absent or zero"}
	}

	if i.Title == "" {
		return &DecodeError{Field: "illust.title", Expected: "non-empty string", Actual: "empty"}
	}

	switch i.Type {
	case IllustTypeIllust, IllustTypeManga, IllustTypeUgoira:
	default:
		return &DecodeError{Field: "illust.type", Expected: "illust|manga|ugoira", Actual: string(i.Type)}
	}

	return i.User.Validate()
}

// IsNSFW reports whether the work is flagged above the all-ages sanity
// level.
func (i *Illust) IsNSFW() bool {
	return i.SanityLevel > 5
}

// AllImageURLs returns the best available URL for every page of the work,
// in page order.
func (i *Illust) AllImageURLs() []string {
	if len(i.MetaPages) == 0 {
		url := i.MetaSinglePage.OriginalImageURL
		if url == "" {
			url = i.ImageURLs.Large
		}

		if url == "" {
			return nil
		}

		return []string{url}
	}

	urls := make([]string, 0, len(i.MetaPages))

	for _, page := range i.MetaPages {
		url := page.ImageURLs.Original
		if url == "" {
			url = page.ImageURLs.Large
		}

		urls = append(urls, url)
	}

	return urls
}

// Comment is a comment on a work. ParentComment is set on replies and may
// itself carry a parent.
type Comment struct {
	ID            int64     `json:"id"`
	Comment       string    `json:"comment"`
	Date          time.Time `json:"date"`
	User          User      `json:"user"`
	ParentComment *Comment  `json:"parent_comment,omitempty"`
}

// Validate reports whether the record satisfies its schema.
func (c *Comment) Validate() error {
	if c.ID == 0 {
		return &DecodeError{Field: "comment.id", Expected: "non-zero integer", Actual: "absent or zero"}
	}

	if err := c.User.Validate(); err != nil {
		return err
	}

	// The service sometimes nests an empty object instead of omitting the
	// parent; treat a zero-ID parent as absent rather than invalid.
	if c.ParentComment != nil && c.ParentComment.ID != 0 {
		return c.ParentComment.Validate()
	}

	return nil
}

// Novel is a prose work.
type Novel struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Caption        string    `json:"caption"`
	Restrict       int       `json:"restrict"`
	XRestrict      int       `json:"x_restrict"`
	IsOriginal     bool      `json:"is_original"`
	ImageURLs      ImageURLs `json:"image_urls"`
	CreateDate     time.Time `json:"create_date"`
	Tags           []Tag     `json:"tags"`
	PageCount      int       `json:"page_count"`
	TextLength     int       `json:"text_length"`
	User           User      `json:"user"`
	Series         *Series   `json:"series,omitempty"`
	IsBookmarked   bool      `json:"is_bookmarked"`
	TotalBookmarks int       `json:"total_bookmarks"`
	TotalView      int       `json:"total_view"`
	TotalComments  int       `json:"total_comments"`
	Visible        bool      `json:"visible"`
	IsMuted        bool      `json:"is_muted"`
}

// Validate reports whether the record satisfies its schema.
func (n *Novel) Validate() error {
	if n.ID == 0 {
		return &DecodeError{Field: "novel.id", Expected: "non-zero integer", Actual: "absent or zero"}
	}

	if n.Title == "" {
		return &DecodeError{Field: "novel.title", Expected: "non-empty string", Actual: "empty"}
	}

	return n.User.Validate()
}

// UgoiraFrame is a single frame of an animated work.
type UgoiraFrame struct {
	File  string `json:"file"`
	Delay int    `json:"delay"` // milliseconds
}

// UgoiraZipURLs locates the frame archive.
type UgoiraZipURLs struct {
	Medium string `json:"medium"`
}

// UgoiraMetadata describes how to assemble an animated work from its
// frame archive.
type UgoiraMetadata struct {
	ZipURLs UgoiraZipURLs `json:"zip_urls"`
	Frames  []UgoiraFrame `json:"frames"`
}

// Validate reports whether the record satisfies its schema.
func (m *UgoiraMetadata) Validate() error {
	if m.ZipURLs.Medium == "" {
		return &DecodeError{Field: "ugoira_metadata.zip_urls.medium", Expected: "non-empty URL", Actual: "empty"}
	}

	if len(m.Frames) == 0 {
		return &DecodeError{Field: "ugoira_metadata.frames", Expected: "non-empty array", Actual: "empty"}
	}

	return nil
}
