package blog

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// rssItemLimit はフィードに含める記事数。
const rssItemLimit = 20

// FeedInfo はRSSチャンネルの情報。
type FeedInfo struct {
	Title       string
	Description string
	// SiteURL は記事URLの基底（例: https://darave.example）。
	SiteURL string
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Description string  `xml:"description"`
	Author      string  `xml:"author,omitempty"`
	Category    string  `xml:"category,omitempty"`
	PubDate     string  `xml:"pubDate"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// RSS は最新の公開記事からRSS 2.0フィードを生成する。
func (s *Service) RSS(ctx context.Context, info FeedInfo) ([]byte, error) {
	posts, err := s.posts.List(ctx, false, rssItemLimit)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(info.SiteURL, "/")
	ch := rssChannel{
		Title:       info.Title,
		Link:        base + "/blog",
		Description: info.Description,
		Items:       make([]rssItem, 0, len(posts)),
	}
	if len(posts) > 0 {
		ch.LastBuildDate = posts[0].UpdatedAt.UTC().Format(time.RFC1123Z)
	}

	for _, p := range posts {
		link := fmt.Sprintf("%s/blog/%s", base, p.Slug)
		ch.Items = append(ch.Items, rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			Description: p.Excerpt,
			Author:      p.Author,
			Category:    p.Category,
			PubDate:     p.CreatedAt.UTC().Format(time.RFC1123Z),
		})
	}

	out, err := xml.MarshalIndent(rssDocument{Version: "2.0", Channel: ch}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode rss: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
