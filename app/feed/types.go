package feed

// Channel describes the published RSS channel.
type Channel struct {
	Title       string
	Link        string
	Description string
	// SelfLink is the public URL of the feed document itself.
	SelfLink string
	Language string
}
