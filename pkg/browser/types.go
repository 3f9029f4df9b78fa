package browser

import (
	"net/url"
	"strconv"
	"strings"
)

// VideoCard is one video result card as rendered on a search page or a user's
// profile grid. Counts stay in their raw display form ("1.2万") until a
// consumer needs the numeric value.
type VideoCard struct {
	VideoURL    string `json:"video_url"`
	CoverImage  string `json:"cover_image,omitempty"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	PublishTime string `json:"publish_time,omitempty"`
	Likes       string `json:"likes"`
}

// UserCard is one user result card from a user search page.
type UserCard struct {
	Title       string `json:"title"`
	DouyinID    string `json:"douyin_id"`
	Likes       string `json:"likes"`
	Followers   string `json:"followers"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	UserLink    string `json:"user_link"`
}

// LikeCount parses the card's like counter, handling the 万 suffix.
func (v VideoCard) LikeCount() int64 {
	return ParseCount(v.Likes)
}

// ParseCount parses a Douyin display counter such as "356", "1.2万" or
// "3456.0". Unparseable input yields 0.
func ParseCount(s string) int64 {
	n, _ := ParseCountOK(s)
	return n
}

// ParseCountOK is ParseCount with an explicit ok flag, for callers that must
// distinguish zero from unparseable (e.g. interaction statistics).
func ParseCountOK(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, "万") {
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, "万", "")), 64)
		if err != nil {
			return 0, false
		}
		return int64(f * 10000), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

const siteBase = "https://www.douyin.com"

// NormalizeURL completes relative links harvested from card markup.
func NormalizeURL(raw string) string {
	switch {
	case raw == "":
		return raw
	case strings.HasPrefix(raw, "http"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return siteBase + raw
	default:
		return siteBase + "/" + raw
	}
}

// IsVideoURL reports whether url already points at a video detail page.
func IsVideoURL(u string) bool {
	return strings.Contains(u, "/video/")
}

// SearchURL builds the search page URL for a keyword. searchType is "video"
// or "user".
func SearchURL(keyword, searchType string) string {
	return siteBase + "/search/" + url.PathEscape(keyword) + "?source=normal_search&type=" + searchType
}

// ProfileURL builds a user profile URL from whatever the caller supplied:
// a full URL, an @handle, or a bare username / Douyin ID.
func ProfileURL(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "http") {
		return input
	}
	return siteBase + "/user/" + strings.TrimPrefix(input, "@")
}
