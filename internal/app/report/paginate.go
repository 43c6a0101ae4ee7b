package report

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ghalamif/SensorStat/internal/domain"
)

// NoMembers is the single page produced for an empty set.
const NoMembers = "No sensors."

const lastSeenLayout = "2006-01-02 15:04"

type entry struct {
	name   string
	member domain.Member
}

// Paginate renders the members of set, sorted by display name, into pages of
// at most opts.MaxLines lines. A member never straddles two pages. The title
// is prepended to the first page and does not count against the budget.
func Paginate(title string, set *domain.SensorSet, opts Options) []string {
	opts = opts.withDefaults()
	if set.Len() == 0 {
		return []string{NoMembers}
	}

	members := set.Members()
	entries := make([]entry, len(members))
	for i, m := range members {
		entries[i] = entry{name: m.Name.Display(), member: m}
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := strings.Compare(a.name, b.name); c != 0 {
			return c
		}
		if c := strings.Compare(a.member.LastSeenRaw, b.member.LastSeenRaw); c != 0 {
			return c
		}
		return strings.Compare(a.member.AdapterID, b.member.AdapterID)
	})

	var (
		pages []string
		page  strings.Builder
		used  int
	)
	if title != "" {
		page.WriteString(title)
		page.WriteByte('\n')
	}
	for i := range entries {
		nameLine := fmt.Sprintf("%d. %s", i+1, entries[i].name)
		seenLine := "PVR: " + formatLastSeen(entries[i].member, opts)
		cost := wrappedLines(nameLine, opts.WrapWidth) + wrappedLines(seenLine, opts.WrapWidth)

		if used > 0 && used+cost > opts.MaxLines {
			pages = append(pages, page.String())
			page.Reset()
			used = 0
		}
		page.WriteString(nameLine)
		page.WriteByte('\n')
		page.WriteString(seenLine)
		page.WriteByte('\n')
		used += cost
	}
	pages = append(pages, page.String())
	return pages
}

func wrappedLines(s string, width int) int {
	n := utf8.RuneCountInString(s)
	if n <= width {
		return 1
	}
	return (n + width - 1) / width
}

func formatLastSeen(m domain.Member, opts Options) string {
	if m.LastSeenAt.IsZero() {
		if m.LastSeenRaw != "" {
			return m.LastSeenRaw
		}
		return "n/a"
	}
	return m.LastSeenAt.In(opts.Location).Format(lastSeenLayout)
}
