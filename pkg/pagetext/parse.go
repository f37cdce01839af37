// Package pagetext manipulates proofread-page wikitext: parsing etext files
// into per-page text, building transcluding main pages, and splitting
// oversized pages.
package pagetext

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// pageMarker introduces a new page in an etext file ("Page no: N").
const pageMarker = "Page no:"

var parenthetical = regexp.MustCompile(`\([^)]*\)`)

// ParsePageFile reads an etext file into a page-number → text map.
// Expected format:
//
//	Page no: 1
//	<text>
//	Page no: 2
//	<text>
//
// Text within parentheses is stripped (editorial annotations in the source
// files, not part of the etext).
func ParsePageFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open etext file: %w", err)
	}
	defer f.Close()

	return ParsePages(f)
}

// ParsePages parses etext content from a reader. See ParsePageFile.
func ParsePages(r io.Reader) (map[string]string, error) {
	pages := make(map[string]string)
	var currentPage string
	var currentLines []string

	flush := func() {
		if currentPage != "" {
			pages[currentPage] = strings.TrimSpace(strings.Join(currentLines, "\n"))
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), pageMarker) {
			flush()
			_, num, _ := strings.Cut(line, ":")
			currentPage = strings.TrimSpace(num)
			currentLines = currentLines[:0]
			continue
		}
		currentLines = append(currentLines, parenthetical.ReplaceAllString(line, ""))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read etext file: %w", err)
	}
	flush()

	return pages, nil
}

// SortedPageNumbers returns the page keys in numeric order. Non-numeric
// keys sort after numeric ones, alphabetically.
func SortedPageNumbers(pages map[string]string) []string {
	nums := make([]string, 0, len(pages))
	for k := range pages {
		nums = append(nums, k)
	}
	sort.Slice(nums, func(i, j int) bool {
		a, errA := strconv.Atoi(nums[i])
		b, errB := strconv.Atoi(nums[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return nums[i] < nums[j]
		}
	})
	return nums
}
