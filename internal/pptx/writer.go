package pptx

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"slidesmith/app/internal/deck"
)

// WriterOptions configures the presentation writer.
type WriterOptions struct {
	Theme  Theme
	Logger *logrus.Logger
}

// Writer renders presentations as PowerPoint files. The OOXML package is
// assembled in a temporary file next to the destination and renamed into
// place on success, so a failed run never leaves a partial file at the
// output path.
type Writer struct {
	theme  Theme
	logger *logrus.Logger
}

var _ deck.Writer = (*Writer)(nil)

// NewWriter constructs a Writer using the given theme.
func NewWriter(opts WriterOptions) *Writer {
	theme := opts.Theme
	if theme.Name == "" {
		theme, _ = GetTheme("modern")
	}

	return &Writer{
		theme:  theme,
		logger: opts.Logger,
	}
}

// Write renders the presentation to path.
func (w *Writer) Write(p deck.Presentation, path string) error {
	if len(p.Slides) == 0 {
		return eris.Wrap(deck.ErrWriteFailed, "presentation has no slides")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(deck.ErrWriteFailed, "creating output directory: %v", err)
	}

	tempPath := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())

	if err := w.writePackage(p, tempPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) && w.logger != nil {
			w.logger.WithField("error", removeErr.Error()).Warn("removing temporary presentation file")
		}
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return eris.Wrapf(deck.ErrWriteFailed, "moving presentation into place: %v", err)
	}

	if w.logger != nil {
		w.logger.WithFields(logrus.Fields{"path": path, "slides": len(p.Slides), "theme": w.theme.Name}).Debug("presentation file written")
	}

	return nil
}

func (w *Writer) writePackage(p deck.Presentation, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(deck.ErrWriteFailed, "creating temporary file: %v", err)
	}

	archive := zip.NewWriter(file)

	if err := w.writeParts(archive, p); err != nil {
		_ = archive.Close()
		_ = file.Close()
		return err
	}

	if err := archive.Close(); err != nil {
		_ = file.Close()
		return eris.Wrapf(deck.ErrWriteFailed, "finalising archive: %v", err)
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		return eris.Wrapf(deck.ErrWriteFailed, "syncing presentation file: %v", err)
	}

	if err := file.Close(); err != nil {
		return eris.Wrapf(deck.ErrWriteFailed, "closing presentation file: %v", err)
	}

	return nil
}

type part struct {
	name    string
	content string
}

func (w *Writer) writeParts(archive *zip.Writer, p deck.Presentation) error {
	parts := []part{
		{"[Content_Types].xml", contentTypesXML(len(p.Slides))},
		{"_rels/.rels", rootRelsXML},
		{"docProps/core.xml", corePropsXML(p.Title)},
		{"docProps/app.xml", appPropsXML(len(p.Slides))},
		{"ppt/presentation.xml", presentationXML(len(p.Slides))},
		{"ppt/_rels/presentation.xml.rels", presentationRelsXML(len(p.Slides))},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML(w.theme)},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML(w.theme)},
	}

	for i, slide := range p.Slides {
		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slideXML(slide, w.theme)},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), slideRelsXML},
		)
	}

	for _, part := range parts {
		entry, err := archive.Create(part.name)
		if err != nil {
			return eris.Wrapf(deck.ErrWriteFailed, "creating part %s: %v", part.name, err)
		}
		if _, err := entry.Write([]byte(part.content)); err != nil {
			return eris.Wrapf(deck.ErrWriteFailed, "writing part %s: %v", part.name, err)
		}
	}

	return nil
}
