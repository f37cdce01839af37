package pagetext

import (
	"fmt"
	"strings"
)

// WrapProofreadText wraps raw page text in the ProofreadPage quality markup
// expected by Wikisource page saves.
func WrapProofreadText(text, user string, qualityLevel int) string {
	tag := fmt.Sprintf(`<noinclude><pagequality level="%d" user="%s" /></noinclude>`, qualityLevel, user)
	return fmt.Sprintf("%s\n%s\n<noinclude></noinclude>", tag, text)
}

// IndexBaseName strips the "Index:" prefix from an index title, giving the
// file name that Page: titles are built from.
func IndexBaseName(indexTitle string) string {
	return strings.TrimPrefix(indexTitle, "Index:")
}

// MainTitleForIndex derives the mainspace title for an index: the base name
// without its file extension.
func MainTitleForIndex(indexTitle string) string {
	base := IndexBaseName(indexTitle)
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		return base[:idx]
	}
	return base
}

// MainpageBlocks builds one block per page for the mainspace page: a
// heading, a {{Page:...}} transclusion and the page text. Pages with no
// text are skipped.
func MainpageBlocks(pages map[string]string, indexTitle string) []string {
	fileName := IndexBaseName(indexTitle)

	var blocks []string
	for _, num := range SortedPageNumbers(pages) {
		text := strings.TrimSpace(pages[num])
		if text == "" {
			continue
		}
		annotation := fmt.Sprintf("== Page %s ==\n{{Page:%s/%s}}", num, fileName, num)
		blocks = append(blocks, fmt.Sprintf("%s\n%s\n", annotation, text))
	}
	return blocks
}

// PrepareMainpageContent combines per-page text into one mainspace page.
// See MainpageBlocks.
func PrepareMainpageContent(pages map[string]string, indexTitle string) string {
	return strings.TrimSpace(strings.Join(MainpageBlocks(pages, indexTitle), "\n"))
}

// PageTitle builds the Page:-namespace title for one page of an index.
func PageTitle(indexTitle, pageNum string) string {
	return fmt.Sprintf("Page:%s/%s", IndexBaseName(indexTitle), pageNum)
}
