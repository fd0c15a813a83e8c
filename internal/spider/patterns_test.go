package spider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		matcher Matcher
		text    string
		want    bool
	}{
		{"monthly index", MonthlyIndex, "Monthly A&E Attendances and Emergency Admissions 2021-04", true},
		{"monthly index padded", MonthlyIndex, "  Monthly A&E Attendances and Emergency Admissions 2017-18 ", true},
		{"monthly index missing month", MonthlyIndex, "Monthly A&E Attendances 2021", false},
		{"monthly index short year", MonthlyIndex, "Monthly A&E Attendances and Emergency Admissions 21-04", false},
		{"monthly index not at start", MonthlyIndex, "See Monthly A&E Attendances and Emergency Admissions 2021-04", false},
		{"monthly index lowercase", MonthlyIndex, "monthly A&E Attendances and Emergency Admissions 2021-04", false},
		{"monthly index trailing text", MonthlyIndex, "Monthly A&E Attendances and Emergency Admissions 2021-04 (revised)", true},
		{"weekly index", WeeklyIndex, "Weekly A&E Attendances and Emergency Admissions 2015-16", true},
		{"weekly index rejects monthly", WeeklyIndex, "Monthly A&E Attendances and Emergency Admissions 2015-16", false},
		{"monthly data", MonthlyData, "Monthly A&E April XLS Tables", true},
		{"monthly data with year", MonthlyData, "Monthly A&E December 2016 XLS (91K)", true},
		{"monthly data lowercase xls", MonthlyData, "Monthly A&E April xls Tables", false},
		{"monthly data bad month", MonthlyData, "Monthly A&E Apr XLS Tables", false},
		{"monthly data no xls", MonthlyData, "Monthly A&E April CSV", false},
		{"weekly data", WeeklyData, "A&E Week Ending 02.07.2017 XLS (73K)", true},
		{"weekly data no xls", WeeklyData, "A&E Week Ending 02.07.2017 (PDF)", false},
		{"weekly data needs text before xls", WeeklyData, "A&E Week Ending XLS", false},
		{"empty", MonthlyData, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.matcher.Match(tc.text), "%s.Match(%q)", tc.matcher, tc.text)
		})
	}
}

func TestCategoryMatchers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MonthlyIndex.String(), indexMatcher(Monthly).String())
	assert.Equal(t, WeeklyIndex.String(), indexMatcher(Weekly).String())
	assert.Equal(t, MonthlyData.String(), dataMatcher(Monthly).String())
	assert.Equal(t, WeeklyData.String(), dataMatcher(Weekly).String())
}
