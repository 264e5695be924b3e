package service

import "strings"

// NextName derives the successor course name from the template's name. The
// text before the first '#' is kept and the suffix replaces whatever
// followed it; a name without '#' gains one. The suffix is the next course
// id, so successive clones read Course#12, Course#31, ...
func NextName(oldName, suffix string) string {
	if idx := strings.Index(oldName, "#"); idx >= 0 {
		return oldName[:idx] + "#" + suffix
	}
	return oldName + "#" + suffix
}
