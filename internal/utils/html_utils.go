package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// decorateMedia 给渲染后的正文中的媒体元素补属性：
// 图片懒加载且不带 Referer，视频只预取元数据并显示控制条
func decorateMedia(fragment string) string {
	if !strings.Contains(fragment, "<img") && !strings.Contains(fragment, "<video") {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		s.SetAttr("loading", "lazy")
		s.SetAttr("referrerpolicy", "no-referrer")
	})
	doc.Find("video").Each(func(_ int, s *goquery.Selection) {
		s.SetAttr("controls", "")
		s.SetAttr("preload", "metadata")
		s.SetAttr("playsinline", "")
	})

	// 解析器会补全 html/body，只取 body 内部
	out, err := doc.Find("body").Html()
	if err != nil || out == "" {
		return fragment
	}
	return out
}
