package mp4

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/simonhull/metaspector/internal/imaging"
	"github.com/simonhull/metaspector/internal/lookup"
	"github.com/simonhull/metaspector/internal/tags"
	"github.com/simonhull/metaspector/internal/types"
)

// ilstKeys maps iTunes item atoms to output keys. Unknown atoms keep their
// fourcc as the key.
var ilstKeys = map[string]string{
	"\xa9nam": "title",
	"\xa9ART": "artist",
	"\xa9alb": "album",
	"\xa9cmt": "comment",
	"\xa9day": "release_date",
	"\xa9gen": "genre",
	"\xa9too": "encoder",
	"\xa9wrt": "composer",
	"trkn":    "track_number",
	"disk":    "disc_number",
	"gnre":    "genre_id",
	"covr":    "cover_art",
	"rtng":    "itunesadvisory",
	"cpil":    "compilation",
	"pgap":    "gapless_playback",
	"shwm":    "show_name",
	"eply":    "episode_id",
	"tvsn":    "tv_season",
	"tves":    "tv_episode_number",
	"tven":    "tv_episode_id",
	"desc":    "description",
	"ldes":    "long_description",
	"sdes":    "series_description",
	"pcst":    "podcast",
	"purl":    "podcast_url",
	"egid":    "episode_guid",
	"keyw":    "keywords",
	"catg":    "category",
	"hdvd":    "hd_video",
	"stik":    "media_type",
	"purd":    "purchase_date",
	"cprt":    "copyright",
	"akID":    "apple_store_id",
	"cnID":    "content_id",
	"geid":    "genre_id_2",
	"plID":    "playlist_id",
	"atID":    "artist_id",
	"alID":    "album_id",
	"cmID":    "composer_id",
	"xid ":    "external_id",
	"soal":    "sort_album",
	"soar":    "sort_artist",
	"soco":    "sort_composer",
	"sonm":    "sort_name",
	"sosn":    "sort_show",
	"sotp":    "sort_title",
	"soaa":    "sort_album_artist",
	"aART":    "album_artist",
	"\xa9grp": "grouping",
	"tmpo":    "tempo",
	"tvnn":    "tv_network",
	"tvsh":    "tv_show_name",
	"stvd":    "studio",
	"cast":    "cast",
	"dirc":    "directors",
	"codr":    "codirector",
	"prod":    "producers",
	"exec":    "executive_producer",
	"swnm":    "screenwriters",
	"\xa9lyr": "lyrics",
	"\xa9enc": "encoded_by",
	"apID":    "itunes_account",
	"sfID":    "itunes_country",
	"ardr":    "art_director",
	"arrn":    "arranger",
	"\xa9aut": "lyricist",
	"ackn":    "acknowledgement",
	"\xa9con": "conductor",
	"\xa9lin": "linear_notes",
	"\xa9mak": "record_company",
	"\xa9ope": "original_artist",
	"\xa9phg": "phonogram_rights",
	"\xa9prd": "song_producer",
	"perf":    "performer",
	"\xa9pub": "publisher",
	"seng":    "sound_engineer",
	"solo":    "soloist",
	"crdt":    "credits",
	"\xa9wrk": "work_name",
	"\xa9mvn": "movement_name",
	"\xa9mvi": "movement_number",
	"\xa9mvc": "movement_count",
	"shwv":    "show_work_and_movement",
	"ownr":    "owner",
	"----":    "content_rating",
}

// freeformKeys maps the name of a "----" item to an output key. Other names
// are lowercased.
var freeformKeys = map[string]string{
	"iTunEXTC":  "content_rating",
	"ISRC":      "isrc",
	"BARCODE":   "barcode",
	"UPC":       "upc",
	"LABEL":     "record_company",
	"PUBLISHER": "publisher",
}

// coverMIME maps covr data types to MIME types.
var coverMIME = map[uint32]string{
	13: "image/jpeg",
	14: "image/png",
	27: "image/bmp",
}

// hdDefinitions maps hdvd levels to a label; other levels are SD.
var hdDefinitions = map[int]string{3: "2160p UHD", 2: "1080p HD", 1: "720p HD"}

// ratingUnits maps the iTunEXTC unit to an hdvd-style label and level.
var ratingUnits = map[int]struct {
	definition string
	level      int
}{
	400: {"1080p HD", 2},
	300: {"720p HD", 1},
	200: {"SD", 0},
}

// peopleKeys are plist keys whose array of dicts is reduced to names.
var peopleKeys = map[string]bool{"cast": true, "directors": true, "producers": true, "screenwriters": true}

// parseIlst reads the item list. Each item holds one or more data atoms; the
// first data atom wins.
func (s *state) parseIlst(ilst Box, into *types.Fields) {
	s.walk("metadata", ilst.DataOffset(), ilst.End, func(item Box) bool {
		key, ok := ilstKeys[item.Type]
		if !ok {
			key = strings.TrimSpace(asciiKey(item.Type))
		}
		freeformName := ""

		s.walk("metadata", item.DataOffset(), item.End, func(child Box) bool {
			switch child.Type {
			case "name":
				if item.Type == "----" {
					freeformName = s.qtString(child)
				}
				return true
			case "data":
			default:
				return true
			}

			if item.Type == "----" && freeformName != "" {
				key = freeformKey(freeformName)
			}

			data, ok := payload(s.c, child, 0)
			if !ok || len(data) < 8 {
				s.warn("metadata", "truncated data atom in '"+key+"'", child.Start)
				return false
			}
			typ := be32(data)
			raw := data[8:]

			if item.Type == "covr" {
				s.setCover(typ, raw, into)
				return false
			}
			if v, ok := decodeData(item.Type, typ, raw); ok {
				s.applyItem(key, v, into)
			} else if len(raw) > 0 {
				s.log.Debug("unsupported data type", slog.String("key", key), slog.Int("type", int(typ)))
			}
			return false
		})
		return s.ctx.Err() == nil
	})
}

// freeformKey resolves a "----" item name.
func freeformKey(name string) string {
	if key, ok := freeformKeys[name]; ok {
		return key
	}
	if key, ok := freeformKeys[strings.ToUpper(name)]; ok {
		return key
	}
	return strings.ToLower(name)
}

// asciiKey renders a fourcc with non-ASCII bytes replaced.
func asciiKey(fourcc string) string {
	var b strings.Builder
	for i := 0; i < len(fourcc); i++ {
		if c := fourcc[i]; c < 0x80 {
			b.WriteByte(c)
		} else {
			b.WriteRune('�')
		}
	}
	return b.String()
}

// decodeData decodes a data atom value by its well-known type.
//
//	1       UTF-8 string
//	0, 65, 74-78  unsigned big-endian integer
//	21-24, 66, 67 signed big-endian integer
//
// trkn and disk carry [2] pad [2] number [2] total [2] pad regardless of type.
func decodeData(itemType string, typ uint32, raw []byte) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	if typ == 1 {
		return strings.TrimSpace(strings.Trim(toValidUTF8(raw), "\x00")), true
	}

	if itemType == "trkn" || itemType == "disk" {
		if len(raw) >= 4 && len(raw) <= 8 {
			num := be16(raw[2:4])
			if len(raw) >= 6 {
				if total := be16(raw[4:6]); total > 0 {
					return fmt.Sprintf("%d/%d", num, total), true
				}
			}
			return strconv.Itoa(int(num)), true
		}
		return signedInt(raw)
	}

	switch typ {
	case 0, 65, 74, 75, 76, 77, 78:
		return unsignedInt(raw)
	case 21, 22, 23, 24, 66, 67:
		return signedInt(raw)
	}
	return nil, false
}

func unsignedInt(raw []byte) (any, bool) {
	if len(raw) > 8 {
		return nil, false
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return int(v), true
}

func signedInt(raw []byte) (any, bool) {
	if len(raw) > 8 {
		return nil, false
	}
	var v int64
	if raw[0]&0x80 != 0 {
		v = -1
	}
	for _, b := range raw {
		v = v<<8 | int64(b)
	}
	return int(v), true
}

// setCover records cover art presence, MIME type and dimensions.
func (s *state) setCover(typ uint32, raw []byte, into *types.Fields) {
	mime, ok := coverMIME[typ]
	if !ok {
		mime = "application/octet-stream"
	}
	into.Set("has_cover_art", true)
	into.Set("cover_art_mime", mime)
	if ok && mime != "image/bmp" {
		if dims := imaging.FormatDimensions(raw); dims != "" {
			into.Set("cover_art_dimensions", dims)
		}
	}
}

// applyItem stores one decoded item, expanding the composite and flag values.
func (s *state) applyItem(key string, value any, into *types.Fields) {
	if str, ok := value.(string); ok && strings.HasPrefix(strings.TrimSpace(str), "<?xml") {
		dict, err := decodePlist([]byte(str))
		if err != nil {
			s.log.Debug("plist decode failed", slog.String("key", key), slog.Any("error", err))
			into.Set(key, str)
			return
		}
		flattenPlist(dict, into)
		return
	}

	switch key {
	case "track_number", "disc_number":
		if str, ok := value.(string); ok {
			tags.SetNumberPair(into, key, strings.Replace(key, "_number", "_total", 1), str)
			return
		}
	case "hd_video":
		if n, ok := value.(int); ok {
			setHDVideo(n, into)
			return
		}
	case "content_rating":
		if str, ok := value.(string); ok {
			if !setContentRating(str, into) {
				into.Set(key, str)
			}
			return
		}
	case "itunesadvisory":
		if n, ok := value.(int); ok {
			into.Set(key, tags.Advisory(n))
			return
		}
	case "compilation", "gapless_playback", "podcast":
		if n, ok := value.(int); ok {
			into.Set(key, n != 0)
			return
		}
	}
	into.Set(key, value)
}

func setHDVideo(level int, into *types.Fields) {
	def, ok := hdDefinitions[level]
	if !ok {
		def = "SD"
	}
	into.Set("hd_video", level != 0)
	into.Set("hd_video_definition", def)
	into.Set("hd_video_definition_level", level)
}

// setContentRating splits an iTunEXTC value "system|label|unit|".
func setContentRating(value string, into *types.Fields) bool {
	parts := strings.Split(value, "|")
	if len(parts) < 3 {
		return false
	}
	system, label := parts[0], parts[1]
	into.Set("rating_system", nilIfEmpty(system))
	into.Set("rating_label", nilIfEmpty(label))
	if system != "" && label != "" {
		if age, ok := lookup.AgeClassification(system, label); ok {
			into.Set("rating_age_classification", age)
		} else {
			into.Set("rating_age_classification", nil)
		}
	}

	unit, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		into.Set("rating_unit", nil)
		return true
	}
	into.Set("rating_unit", unit)
	if u, ok := ratingUnits[unit]; ok {
		into.Set("hd_video_definition", u.definition)
		into.Set("hd_video_definition_level", u.level)
	}
	return true
}

// flattenPlist copies plist entries, reducing people lists to names.
func flattenPlist(dict map[string]any, into *types.Fields) {
	for _, k := range slices.Sorted(maps.Keys(dict)) {
		v := dict[k]
		if list, ok := v.([]any); ok && peopleKeys[k] {
			if names := plistNames(list); len(names) > 0 {
				into.Set(k, names)
			}
			continue
		}
		into.Set(k, v)
	}
}

// plistNames collects the "name" of each dict, dropping truncated names.
func plistNames(list []any) []string {
	var names []string
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if name == "" || strings.HasSuffix(name, "...") || strings.HasSuffix(name, "…") {
			continue
		}
		names = append(names, name)
	}
	return names
}

// applySongRules drops video and rating fields from a song (stik 1).
func applySongRules(md *types.Fields) {
	if n, ok := md.Int("media_type"); !ok || n != 1 {
		return
	}
	md.Delete("hd_video", "hd_video_definition", "hd_video_definition_level",
		"content_rating", "rating_system", "rating_label",
		"rating_age_classification", "rating_unit")
	md.SetDefault("itunesadvisory", 0)
}
