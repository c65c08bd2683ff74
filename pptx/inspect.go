package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/tsawler/slidefill/errs"
)

// Info summarizes a presentation without loading its slides.
type Info struct {
	Path        string `json:"path"`
	Slides      int    `json:"slides"`
	Width       int64  `json:"width_emu,omitempty"`
	Height      int64  `json:"height_emu,omitempty"`
	Title       string `json:"title,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Application string `json:"application,omitempty"`
}

// SlideCount returns the number of slides in the PPTX file at filename.
// Any failure is reported as an *errs.LoadError.
func SlideCount(filename string) (int, error) {
	info, err := Inspect(filename)
	if err != nil {
		return 0, err
	}
	return info.Slides, nil
}

// Inspect reads the presentation part and document properties of the
// PPTX file at filename. Failures are reported as *errs.LoadError.
func Inspect(filename string) (*Info, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, errs.Load("presentation", filename, fmt.Errorf("opening ZIP archive: %w", err))
	}
	defer zr.Close()

	info, err := inspect(&zr.Reader)
	if err != nil {
		return nil, errs.Load("presentation", filename, err)
	}
	info.Path = filename
	return info, nil
}

func inspect(zr *zip.Reader) (*Info, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	if files[contentTypesPart] == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, contentTypesPart)
	}

	main := "ppt/presentation.xml"
	var pkgRels relationshipsXML
	if err := decodeFile(files[packageRelsPart], &pkgRels); err == nil {
		for _, r := range pkgRels.Relationship {
			if r.Type == relOfficeDocument {
				main = resolveTarget("", r.Target)
			}
		}
	}
	if files[main] == nil {
		return nil, ErrNoPresentation
	}

	var pres presentationXML
	if err := decodeFile(files[main], &pres); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", main, err)
	}

	info := &Info{}
	if pres.SlideIdList != nil {
		if err := checkSlides(files, main, pres.SlideIdList.SlideId); err != nil {
			return nil, err
		}
		info.Slides = len(pres.SlideIdList.SlideId)
	}
	if pres.SlideSz != nil {
		info.Width = pres.SlideSz.Cx
		info.Height = pres.SlideSz.Cy
	}

	// Document properties are optional.
	var core corePropertiesXML
	if err := decodeFile(files["docProps/core.xml"], &core); err == nil {
		info.Title = core.Title
		info.Creator = core.Creator
	}
	var app appPropertiesXML
	if err := decodeFile(files["docProps/app.xml"], &app); err == nil {
		info.Application = app.Application
	}
	return info, nil
}

// checkSlides verifies that every slide id resolves to a slide part, the
// same way Open does.
func checkSlides(files map[string]*zip.File, main string, ids []slideIdXML) error {
	if len(ids) == 0 {
		return nil
	}
	targets := make(map[string]string)
	if f := files[relsName(main)]; f != nil {
		var rels relationshipsXML
		if err := decodeFile(f, &rels); err != nil {
			return fmt.Errorf("parsing %s: %w", relsName(main), err)
		}
		for _, r := range rels.Relationship {
			if r.TargetMode != "External" {
				targets[r.ID] = resolveTarget(main, r.Target)
			}
		}
	}
	for _, id := range ids {
		name, ok := targets[id.RID]
		if !ok {
			return fmt.Errorf("slide relationship %q not found", id.RID)
		}
		if files[name] == nil {
			return fmt.Errorf("%w: %s", ErrMissingPart, name)
		}
	}
	return nil
}

// decodeFile unmarshals a ZIP entry.
func decodeFile(f *zip.File, v any) error {
	if f == nil {
		return ErrMissingPart
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}
