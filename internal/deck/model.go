package deck

// Kind distinguishes how a slide is rendered.
type Kind string

const (
	KindTitle      Kind = "title"
	KindContent    Kind = "content"
	KindConclusion Kind = "conclusion"
)

// OutlineEntry is one planned slide before content expansion. Index values
// within an outline are contiguous and start at 1.
type OutlineEntry struct {
	Index     int
	Title     string
	Subtitle  string
	Kind      Kind
	KeyPoints []string
}

// Slide is the expanded content for a single slide. Bullets are ordered;
// an empty bullet list is valid and renders as a title-only slide.
type Slide struct {
	Index    int
	Title    string
	Subtitle string
	Kind     Kind
	Bullets  []string
}

// Presentation is the finished, fitted slide deck handed to the writer.
type Presentation struct {
	Topic  string
	Title  string
	Theme  string
	Slides []Slide
}

// Capacity describes the display limits of the output medium.
type Capacity struct {
	MaxBullets        int
	MaxCharsPerBullet int
}
