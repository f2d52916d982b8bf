package news

import "strings"

const podcastIntro = "Here are today's top headlines. "

// Headlines builds a single narratable passage from article titles.
func Headlines(articles []Article) string {
	var b strings.Builder
	b.WriteString(podcastIntro)
	for _, a := range articles {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		b.WriteString(strings.TrimSpace(a.Title))
		b.WriteString(". ")
	}
	return strings.TrimSpace(b.String())
}
