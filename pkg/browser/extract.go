package browser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// cleanText flattens newlines and trims the result, matching how card text is
// displayed on the page.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(s)
}

func textOr(sel *goquery.Selection, fallback string) string {
	if sel.Length() == 0 {
		return fallback
	}
	return cleanText(sel.First().Text())
}

// ExtractVideoCards parses video result cards out of a search page or user
// profile grid. Cards without a link are skipped.
func ExtractVideoCards(html string) []VideoCard {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var cards []VideoCard
	doc.Find("li.SwZLHMKk").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a.hY8lWHgA").First()
		if link.Length() == 0 {
			return
		}
		card := VideoCard{
			VideoURL:    cleanText(link.AttrOr("href", "")),
			CoverImage:  cleanText(item.Find("img").First().AttrOr("src", "")),
			Title:       textOr(item.Find("div.VDYK8Xd7"), "无标题"),
			Author:      textOr(item.Find("span.MZNczJmS"), "未知作者"),
			PublishTime: textOr(item.Find("span.faDtinfi"), ""),
			Likes:       textOr(item.Find("span.cIiU4Muu"), "0"),
		}
		if card.VideoURL != "" {
			cards = append(cards, card)
		}
	})
	return cards
}

// ExtractVideoCardsInList narrows extraction to the search result list
// container when present, so unrelated sidebar cards are not picked up.
func ExtractVideoCardsInList(html string) []VideoCard {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	container := doc.Find(`[data-e2e="scroll-list"]`).First()
	if container.Length() == 0 {
		return nil
	}
	inner, err := container.Html()
	if err != nil {
		return nil
	}
	return ExtractVideoCards("<ul>" + inner + "</ul>")
}

// ExtractUserCards parses user result cards out of a user search page.
func ExtractUserCards(html string) []UserCard {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var cards []UserCard
	doc.Find("div.search-result-card > a.hY8lWHgA.poLTDMYS").Each(func(_ int, item *goquery.Selection) {
		card := UserCard{
			UserLink:    cleanText(item.AttrOr("href", "")),
			Title:       textOr(item.Find("div.XQwChAbX p.v9LWb7QE span span span span span"), ""),
			AvatarURL:   cleanText(item.Find("img.RlLOO79h").First().AttrOr("src", "")),
			Description: textOr(item.Find("p.Kdb5Km3i span span span span span"), ""),
			Likes:       "0",
			Followers:   "0",
		}

		item.Find("div.jjebLXt0 span").Each(func(_ int, span *goquery.Selection) {
			text := cleanText(span.Text())
			switch {
			case strings.Contains(text, "抖音号:") || strings.Contains(text, "抖音号："):
				card.DouyinID = cleanText(span.Find("span").First().Text())
			case strings.Contains(text, "获赞"):
				card.Likes = cleanText(strings.ReplaceAll(text, "获赞", ""))
			case strings.Contains(text, "粉丝"):
				card.Followers = cleanText(strings.ReplaceAll(text, "粉丝", ""))
			}
		})

		if card.Title != "" {
			cards = append(cards, card)
		}
	})
	return cards
}

// commentSelectors is the cascade of known comment-text selectors, most
// precise first. Extraction stops at the first selector that matches.
var commentSelectors = []string{
	`span[data-e2e="comment-level-1"]`,
	`div[data-e2e="comment-level-1"] span`,
	`p[data-e2e="comment-detail"]`,
	`div[data-e2e="comment-item"] span`,
	`li[data-e2e="comment-item"] span`,
	`div[class*="CommentItem"] span`,
	`div[class*="comment-item"] span`,
}

// uiChrome marks texts that are interface furniture rather than a comment.
var uiChrome = []string{"点赞", "回复", "条评论", "评论"}

// ExtractComments pulls viewer comment texts out of a video page, dropping
// counters, UI chrome and duplicates. Order follows document order.
func ExtractComments(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var comments []string

	for _, selector := range commentSelectors {
		doc.Find(selector).Each(func(_ int, ele *goquery.Selection) {
			text := cleanText(ele.Text())
			if !plausibleComment(text) {
				return
			}
			if _, dup := seen[text]; dup {
				return
			}
			seen[text] = struct{}{}
			comments = append(comments, text)
		})
		if len(comments) > 0 {
			return comments
		}
	}

	// Fallback: broad class match with stricter filtering.
	doc.Find(`div[class*="comment"], li[class*="comment"], span[class*="comment"]`).Each(func(_ int, ele *goquery.Selection) {
		text := cleanText(ele.Text())
		if len([]rune(text)) <= 5 || !plausibleComment(text) {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		comments = append(comments, text)
	})
	return comments
}

// plausibleComment filters out mis-extracted counters: too-short strings,
// pure numbers and interface labels.
func plausibleComment(text string) bool {
	if len([]rune(text)) < 2 {
		return false
	}
	for _, kw := range uiChrome {
		if strings.Contains(text, kw) {
			return false
		}
	}
	return !isNumeric(text)
}

func isNumeric(s string) bool {
	stripped := strings.ReplaceAll(s, ".", "")
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
