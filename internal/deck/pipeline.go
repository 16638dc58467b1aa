package deck

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"slidesmith/app/internal/search"
)

// State names the stage a pipeline run is currently in.
type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateOutlining State = "outlining"
	StateExpanding State = "expanding"
	StateFitting   State = "fitting"
	StateWriting   State = "writing"
	StateDone      State = "done"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// OutlineGenerator plans a deck: exactly numSlides entries with contiguous
// indices 1..numSlides, whatever the model returned.
type OutlineGenerator interface {
	Generate(ctx context.Context, topic string, numSlides int, searchContext []search.Result) ([]OutlineEntry, error)
}

// Expander turns one outline entry into raw, unfitted slide content.
type Expander interface {
	Expand(ctx context.Context, entry OutlineEntry, searchContext []search.Result) (Slide, error)
}

// Writer renders a finished presentation to a file. Implementations must not
// leave a partial file at the destination path on failure.
type Writer interface {
	Write(p Presentation, path string) error
}

// PipelineOptions carries the collaborators and tuning for a Pipeline.
type PipelineOptions struct {
	Search      search.Client
	Outline     OutlineGenerator
	Expander    Expander
	Writer      Writer
	Logger      *logrus.Logger
	Capacity    Capacity
	Concurrency int
	Theme       string
}

// Pipeline drives one topic through search, outline, expansion, fitting and
// writing. A Pipeline is built fresh per invocation and holds no state shared
// across runs.
type Pipeline struct {
	search      search.Client
	outline     OutlineGenerator
	expander    Expander
	writer      Writer
	logger      *logrus.Logger
	capacity    Capacity
	concurrency int
	theme       string
	state       State
}

// Request describes a single generation run.
type Request struct {
	Topic         string
	NumSlides     int
	SearchResults int
	OutputPath    string
}

// NewPipeline wires the pipeline with its collaborators.
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.Search == nil {
		return nil, eris.New("search client is required")
	}
	if opts.Outline == nil {
		return nil, eris.New("outline generator is required")
	}
	if opts.Expander == nil {
		return nil, eris.New("expander is required")
	}
	if opts.Writer == nil {
		return nil, eris.New("writer is required")
	}
	if opts.Capacity.MaxBullets <= 0 || opts.Capacity.MaxCharsPerBullet <= 0 {
		return nil, eris.New("capacity limits must be positive")
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Pipeline{
		search:      opts.Search,
		outline:     opts.Outline,
		expander:    opts.Expander,
		writer:      opts.Writer,
		logger:      opts.Logger,
		capacity:    opts.Capacity,
		concurrency: concurrency,
		theme:       opts.Theme,
		state:       StateIdle,
	}, nil
}

// State reports the stage the last Run reached.
func (p *Pipeline) State() State {
	return p.state
}

// Run executes the full pipeline for the request and returns the fitted
// presentation after the output file has been written.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Presentation, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, eris.New("topic is required")
	}
	if req.NumSlides < 1 || req.NumSlides > 50 {
		return nil, eris.Errorf("slide count must be within [1, 50], got %d", req.NumSlides)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return nil, eris.New("output path is required")
	}

	maxResults := req.SearchResults
	if maxResults <= 0 {
		maxResults = 10
	}

	p.state = StateSearching
	results, err := p.search.Search(ctx, topic, maxResults)
	if err != nil {
		return nil, p.fail(StateSearching, err)
	}
	p.info(logrus.Fields{"topic": topic, "results": len(results)}, "search stage complete")

	p.state = StateOutlining
	entries, err := p.outline.Generate(ctx, topic, req.NumSlides, results)
	if err != nil {
		return nil, p.fail(StateOutlining, err)
	}
	p.info(logrus.Fields{"topic": topic, "slides": len(entries)}, "outline stage complete")

	p.state = StateExpanding
	slides, err := p.expand(ctx, entries, results)
	if err != nil {
		// expand only errors on cancellation; slide-level failures degrade
		// to outline key points instead.
		p.state = StateCancelled
		p.warn(logrus.Fields{"topic": topic, "error": err.Error()}, "run cancelled during expansion")
		return nil, eris.Wrap(err, "expansion cancelled")
	}

	p.state = StateFitting
	for i := range slides {
		slides[i] = Fit(slides[i], p.capacity)
	}

	presentation := &Presentation{
		Topic:  topic,
		Title:  deckTitle(topic, entries),
		Theme:  p.theme,
		Slides: slides,
	}

	p.state = StateWriting
	if err := p.writer.Write(*presentation, req.OutputPath); err != nil {
		return nil, p.fail(StateWriting, err)
	}
	p.info(logrus.Fields{"topic": topic, "path": req.OutputPath, "slides": len(slides)}, "presentation written")

	p.state = StateDone
	return presentation, nil
}

// expand fans the per-entry expansion calls out across a bounded worker group
// and reassembles results by outline index. A failed or refused expansion
// falls back to the entry's key points; only cancellation aborts the stage.
func (p *Pipeline) expand(ctx context.Context, entries []OutlineEntry, results []search.Result) ([]Slide, error) {
	slides := make([]Slide, len(entries))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.concurrency)

	for i, entry := range entries {
		if entry.Kind == KindTitle {
			// Title slides carry the outline's subtitle directly.
			slides[i] = Slide{
				Index:    entry.Index,
				Title:    entry.Title,
				Subtitle: entry.Subtitle,
				Kind:     entry.Kind,
			}
			continue
		}

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			slide, err := p.expander.Expand(groupCtx, entry, results)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				p.warn(logrus.Fields{
					"slide": entry.Index,
					"title": entry.Title,
					"error": err.Error(),
				}, "slide expansion failed, falling back to outline key points")
				slides[i] = fallbackSlide(entry)
				return nil
			}

			slides[i] = slide
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return slides, nil
}

func fallbackSlide(entry OutlineEntry) Slide {
	bullets := make([]string, len(entry.KeyPoints))
	copy(bullets, entry.KeyPoints)

	return Slide{
		Index:    entry.Index,
		Title:    entry.Title,
		Subtitle: entry.Subtitle,
		Kind:     entry.Kind,
		Bullets:  bullets,
	}
}

func deckTitle(topic string, entries []OutlineEntry) string {
	if len(entries) > 0 && entries[0].Kind == KindTitle {
		if title := strings.TrimSpace(entries[0].Title); title != "" {
			return title
		}
	}
	return topic
}

func (p *Pipeline) fail(stage State, err error) error {
	p.state = StateFailed
	wrapped := &PipelineError{Stage: stage, Err: err}
	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{"stage": string(stage), "error": err.Error()}).Error("pipeline failed")
	}
	return wrapped
}

func (p *Pipeline) info(fields logrus.Fields, message string) {
	if p.logger == nil {
		return
	}
	p.logger.WithFields(fields).Info(message)
}

func (p *Pipeline) warn(fields logrus.Fields, message string) {
	if p.logger == nil {
		return
	}
	p.logger.WithFields(fields).Warn(message)
}
