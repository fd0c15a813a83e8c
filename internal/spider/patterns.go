package spider

import "regexp"

const months = `January|February|March|April|May|June|July|August|September|October|November|December`

// Matcher classifies anchor text. A match must begin at the first character of
// the text; trailing text after the matched shape is allowed.
type Matcher struct {
	name string
	re   *regexp.Regexp
}

func newMatcher(name, pattern string) Matcher {
	return Matcher{name: name, re: regexp.MustCompile(`^(?:` + pattern + `)`)}
}

// Match reports whether text has the matcher's shape starting at position 0.
func (m Matcher) Match(text string) bool {
	return m.re.MatchString(text)
}

// String returns the matcher name.
func (m Matcher) String() string {
	return m.name
}

// Anchor-text matchers for index pages and data files.
var (
	MonthlyIndex = newMatcher("monthly-index", `\s*Monthly A&E Attendances and Emergency Admissions \d{4}-\d{2}\s*`)
	WeeklyIndex  = newMatcher("weekly-index", `\s*Weekly A&E Attendances and Emergency Admissions \d{4}-\d{2}\s*`)
	MonthlyData  = newMatcher("monthly-data", `\s*Monthly A&E (`+months+`).+(XLS.*)\s*`)
	WeeklyData   = newMatcher("weekly-data", `\s*A&E Week Ending .+(XLS.*)\s*`)
)

func indexMatcher(c Category) Matcher {
	if c == Weekly {
		return WeeklyIndex
	}
	return MonthlyIndex
}

func dataMatcher(c Category) Matcher {
	if c == Weekly {
		return WeeklyData
	}
	return MonthlyData
}
