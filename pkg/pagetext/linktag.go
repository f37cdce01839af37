package pagetext

import (
	"fmt"
	"regexp"
)

// An existing [[Page:File/N|Page no: N]] link anywhere in the text means
// the page was already converted.
var alreadyLinked = regexp.MustCompile(`(?i)\[\[Page:[^/|\]]+/[0-9]+\|Page(?:\s*no:)?\s*[0-9]+\]\]`)

// HasPageLinks reports whether text already contains Page:-namespace links
// in the converted form.
func HasPageLinks(text string) bool {
	return alreadyLinked.MatchString(text)
}

// TagPageLinks converts bare "Page no: N" references in mainspace text into
// [[Page:File/N|Page no: N]] links for the given index. Text that already
// carries converted links is returned unchanged, so the operation is safe to
// repeat. The boolean reports whether anything changed.
func TagPageLinks(text, indexTitle string) (string, bool) {
	if HasPageLinks(text) {
		return text, false
	}

	fileName := IndexBaseName(indexTitle)
	tagged := pageNumber.ReplaceAllStringFunc(text, func(ref string) string {
		num := pageNumber.FindStringSubmatch(ref)[1]
		return fmt.Sprintf("[[Page:%s/%s|Page no: %s]]", fileName, num, num)
	})
	return tagged, tagged != text
}
