package mp4

// subtitleTags maps subtitle sample entry fourccs to codec_tag_string values.
var subtitleTags = map[string]string{
	"tx3g": "mov_text",
	"c608": "eia_608",
	"c708": "eia_708",
	"stpp": "ttml",
	"wvtt": "webvtt",
	"text": "text",
}

// textEntries are sample entries that may carry a name atom among their children.
var textEntries = map[string]bool{
	"tx3g": true, "mp4s": true, "subp": true, "clcp": true, "text": true, "c608": true,
}

// subtitleNameAtoms are searched, in box order, for a descriptive name.
var subtitleNameAtoms = map[string]bool{
	"\xa9nam": true, "name": true, "titl": true, "desc": true,
	"drmi": true, "text": true, "kind": true, "uri ": true,
}

// emitSubtitle appends a subtitle track record.
func (s *state) emitSubtitle(t *trackInfo) {
	var codec, tag any
	if entry, ok := s.firstEntry(t); ok {
		codec = entry.Type
		tag = lookupCodec(subtitleTags, entry.Type)

		if textEntries[entry.Type] {
			children(s.c, entry.DataOffset(), entry.End, func(b Box) bool {
				if !subtitleNameAtoms[b.Type] {
					return true
				}
				if name := s.qtString(b); name != "" {
					t.name = name
					return false
				}
				return true
			})
		}
	}

	f := t.common()
	f.Set("codec", codec)
	f.Set("codec_tag_string", tag)
	if secs := t.seconds(); secs > 0 {
		f.Set("duration_seconds", secs)
	}

	f.Set("main_program_content", t.chars.mainProgram)
	f.Set("original_content", t.chars.original)
	f.Set("auxiliary_content", t.chars.auxiliary)
	f.Set("forced_only", t.chars.forcedOnly)
	f.Set("language_translation", t.chars.translation)
	f.Set("easy_to_read", t.chars.easyToRead)
	f.Set("describes_music_and_sound", t.chars.describesMusic)
	f.Set("transcribes_spoken_dialog", t.chars.transcribesSpoken)

	s.res.Subtitle = append(s.res.Subtitle, f)
}
