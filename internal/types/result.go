package types

import (
	"bytes"
	"encoding/json"
)

// Section names one top-level part of a Result.
type Section string

// Result sections, in output order.
const (
	SectionMetadata Section = "metadata"
	SectionVideo    Section = "video"
	SectionAudio    Section = "audio"
	SectionSubtitle Section = "subtitle"
)

// Sections lists all sections in output order.
var Sections = []Section{SectionMetadata, SectionVideo, SectionAudio, SectionSubtitle}

// ParseSection validates a section name.
func ParseSection(name string) (Section, error) {
	for _, s := range Sections {
		if string(s) == name {
			return s, nil
		}
	}
	return "", &InvalidSectionError{Section: name}
}

// Result is the canonical inspection output.
type Result struct {
	Metadata *Fields
	Video    []*Fields
	Audio    []*Fields
	Subtitle []*Fields

	// Warnings encountered during parsing (non-fatal issues)
	Warnings []Warning

	// Format is the detected container format.
	Format Format

	// Only, when set, restricts JSON output to one section.
	Only Section
}

// NewResult creates an empty Result with no tracks.
func NewResult(format Format) *Result {
	return &Result{
		Metadata: NewFields(),
		Video:    []*Fields{},
		Audio:    []*Fields{},
		Subtitle: []*Fields{},
		Format:   format,
	}
}

// Warn records a non-fatal issue.
func (r *Result) Warn(stage, message string, offset int64) {
	r.Warnings = append(r.Warnings, Warning{Stage: stage, Message: message, Offset: offset})
}

// Section returns the value of one section: *Fields for metadata, []*Fields otherwise.
func (r *Result) Section(s Section) any {
	switch s {
	case SectionMetadata:
		return r.Metadata
	case SectionVideo:
		return r.Video
	case SectionAudio:
		return r.Audio
	case SectionSubtitle:
		return r.Subtitle
	}
	return nil
}

// MarshalJSON emits metadata, video, audio, subtitle in that order,
// or only the selected section.
func (r *Result) MarshalJSON() ([]byte, error) {
	sections := Sections
	if r.Only != "" {
		sections = []Section{r.Only}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"` + string(s) + `":`)
		b, err := json.Marshal(r.Section(s))
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
