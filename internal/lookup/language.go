package lookup

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageName returns the native name of a BCP 47, ISO 639-2 or ISO 639-1 code,
// with its region in English, e.g. "Deutsch (Germany)".
// Returns "" for "und", empty or unparseable codes.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "und") {
		return ""
	}

	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return ""
	}

	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	name := display.Self.Name(language.Make(base.String()))
	if name == "" {
		name = display.English.Languages().Name(base)
	}
	if name == "" {
		return ""
	}

	region, conf := tag.Region()
	if conf == language.No || region.String() == "ZZ" {
		return name
	}
	if regionName := display.English.Regions().Name(region); regionName != "" {
		return name + " (" + regionName + ")"
	}
	return name
}
