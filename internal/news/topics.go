package news

import "strings"

// MaxInterests caps how many catalog topics a listener may follow.
const MaxInterests = 5

type Topic struct {
	Name        string
	Icon        string
	Description string
}

// Catalog lists the selectable interest topics in display order.
var Catalog = []Topic{
	{Name: "Technology", Icon: "💻", Description: "Latest in tech, AI, and innovation"},
	{Name: "Business", Icon: "💼", Description: "Market trends and business news"},
	{Name: "Science", Icon: "🔬", Description: "Scientific discoveries and research"},
	{Name: "Health", Icon: "🏥", Description: "Medical breakthroughs and wellness"},
	{Name: "Sports", Icon: "⚽", Description: "Sports events and athletic achievements"},
	{Name: "Entertainment", Icon: "🎬", Description: "Movies, music, and celebrity news"},
	{Name: "Politics", Icon: "🏛️", Description: "Political developments and policies"},
	{Name: "Environment", Icon: "🌍", Description: "Climate change and environmental news"},
	{Name: "Education", Icon: "📚", Description: "Learning and academic developments"},
	{Name: "Space", Icon: "🚀", Description: "Space exploration and astronomy"},
}

// LookupTopic resolves a case-insensitive catalog name.
func LookupTopic(name string) (Topic, bool) {
	name = strings.TrimSpace(name)
	for _, t := range Catalog {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Topic{}, false
}
