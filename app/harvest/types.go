package harvest

// FeedEntry is one candidate article taken from a feed, validated at the
// harvest boundary.
type FeedEntry struct {
	Title   string
	Link    string
	Summary string
}
