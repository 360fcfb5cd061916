package utils

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithXHTML(), gmhtml.WithUnsafe()),
	)

	// 原始 HTML 交给 bodyPolicy 过滤；UGC 基础上放开图片和视频
	bodyPolicy = newBodyPolicy()
	// 标题、评论、Wave 名称等只保留纯文本
	textPolicy = bluemonday.StrictPolicy()
)

func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowImages()
	p.AllowElements("video", "source")
	p.AllowAttrs("src", "poster").Matching(regexp.MustCompile(`^https?://`)).OnElements("video", "source")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^video/[a-z0-9.+-]+$`)).OnElements("source")
	p.AllowAttrs("controls", "preload", "playsinline").OnElements("video")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return p
}

// RenderMarkdown 把帖子正文渲染为可直接输出的 HTML
func RenderMarkdown(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return textPolicy.Sanitize(source)
	}
	return decorateMedia(bodyPolicy.Sanitize(buf.String()))
}

// SanitizeText 去掉所有标签并裁剪空白，结果按纯文本保存（不做实体转义）
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
