package pagetext

import (
	"fmt"
	"regexp"
	"strconv"
)

// SafePageSize is the maximum byte size of one saved page: the 2 MB wiki
// limit with a 10% safety buffer.
const SafePageSize = 2 * 1024 * 1024 * 9 / 10

var (
	pageBlockMarker = regexp.MustCompile(`(?i)(\[\[Page:[^|\]]+\|Page(?:\s*no:)?\s*\d+\]\])`)
	pageNumber      = regexp.MustCompile(`(?i)Page(?:\s*no:)?\s*([0-9]+)`)
)

// SplitByPageBlocks splits mainpage wikitext into blocks, one per
// [[Page:...|Page no: N]] link. Text before the first marker is dropped;
// text with no markers at all is returned as a single block.
func SplitByPageBlocks(text string) []string {
	matches := pageBlockMarker.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	blocks := make([]string, 0, len(matches))
	for i, m := range matches {
		start := m[0]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		blocks = append(blocks, text[start:end])
	}
	return blocks
}

// ExtractPageNumbers extracts the numeric page numbers from blocks produced
// by SplitByPageBlocks. Blocks without a recognizable number are skipped.
func ExtractPageNumbers(blocks []string) []int {
	var nums []int
	for _, block := range blocks {
		if m := pageNumber.FindStringSubmatch(block); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				nums = append(nums, n)
			}
		}
	}
	return nums
}

// Subpage is one size-bounded slice of an oversized mainpage.
type Subpage struct {
	Title     string
	Text      string
	StartPage int // first page number in the slice, 0 if unknown
	EndPage   int // last page number in the slice, 0 if unknown
}

// SplitIntoSubpages groups page blocks into subpages whose rendered text
// stays under maxBytes each, and assigns them /1, /2, ... titles beneath
// the main title. A single block larger than maxBytes gets its own subpage.
func SplitIntoSubpages(mainTitle string, blocks []string, maxBytes int) []Subpage {
	if maxBytes <= 0 {
		maxBytes = SafePageSize
	}

	var parts [][]string
	var current []string
	currentSize := 0

	for _, block := range blocks {
		blockSize := len(block)
		if currentSize+blockSize > maxBytes && len(current) > 0 {
			parts = append(parts, current)
			current = nil
			currentSize = 0
		}
		current = append(current, block)
		currentSize += blockSize
	}
	if len(current) > 0 {
		parts = append(parts, current)
	}

	subpages := make([]Subpage, 0, len(parts))
	for i, part := range parts {
		text := ""
		for _, b := range part {
			text += b
		}

		sp := Subpage{
			Title: fmt.Sprintf("%s/%d", mainTitle, i+1),
			Text:  text,
		}
		if nums := ExtractPageNumbers(part); len(nums) > 0 {
			sp.StartPage = nums[0]
			sp.EndPage = nums[0]
			for _, n := range nums {
				if n < sp.StartPage {
					sp.StartPage = n
				}
				if n > sp.EndPage {
					sp.EndPage = n
				}
			}
		}
		subpages = append(subpages, sp)
	}
	return subpages
}
