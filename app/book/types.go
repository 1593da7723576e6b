package book

// Chapter is one article rendered into a self-contained document section.
// Image, when present, is an optimized JPEG ready for embedding.
type Chapter struct {
	Index int
	URL   string
	Title string
	Body  string // escaped XHTML fragment, paragraph breaks as <br/>
	Image []byte
}
