package metaspector

import "github.com/simonhull/metaspector/internal/types"

// Result is the inspection output. It marshals to JSON with the keys
// metadata, video, audio and subtitle in that order.
type Result = types.Result

// Fields is an insertion-ordered map of output values.
type Fields = types.Fields

// Section names one top-level part of a Result.
type Section = types.Section

// Result sections.
const (
	SectionMetadata = types.SectionMetadata
	SectionVideo    = types.SectionVideo
	SectionAudio    = types.SectionAudio
	SectionSubtitle = types.SectionSubtitle
)

// ParseSection validates a section name, returning an *InvalidSectionError
// for anything else.
func ParseSection(name string) (Section, error) {
	return types.ParseSection(name)
}
