package parser

import (
	"regexp"
	"strings"
)

// whitespace matches space, tab, line feed, vertical tab, form feed and
// carriage return.
var whitespace = regexp.MustCompile(`[ \t\n\v\f\r]+`)

// BaseName turns a file reference into a lookup key: everything up to the
// last '\' and then the last '/' is dropped, the rest is lowercased and every
// run of whitespace becomes a single '_'. Both separator styles are handled
// whatever the host platform.
//
//	BaseName(`Some\Dir/My File.PNG`) == "my_file.png"
func BaseName(path string) string {
	return normalizeName(path)
}

// StemName is BaseName with the extension removed first: the text from the
// last '.' onwards is dropped before separators are stripped. A path
// without any '.' yields BaseName(path).
//
//	StemName(`Some\Dir/My File.PNG`) == "my_file"
func StemName(path string) string {
	if dot := strings.LastIndex(path, "."); dot > -1 {
		path = path[:dot]
	}
	return normalizeName(path)
}

func normalizeName(name string) string {
	if i := strings.LastIndex(name, "\\"); i > -1 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "/"); i > -1 {
		name = name[i+1:]
	}
	return whitespace.ReplaceAllString(strings.ToLower(name), "_")
}
