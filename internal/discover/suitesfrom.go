package discover

import (
	"sort"
	"time"

	"github.com/pabotd/pabotd/internal/planitem"
	"github.com/pabotd/pabotd/internal/resultmerge"
)

const robotTimeLayout = "20060102 15:04:05.000"

// OutputXMLSuitesFromReader extracts SuiteItems from a prior run's
// output.xml, implementing planfile.SuitesFromReader. Grounded on
// _suites_from_outputxml/SuiteNotPassingsAndTimes: every suite with at least
// one test is ordered failed-first, then longer elapsed first.
type OutputXMLSuitesFromReader struct{}

func (OutputXMLSuitesFromReader) ReadSuites(path string) ([]planitem.Item, error) {
	res, err := resultmerge.Parse(path)
	if err != nil {
		return nil, err
	}

	var entries []suiteTiming
	collectSuiteTimings(res.Suite, &entries)

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.notPassed != b.notPassed {
			return a.notPassed && !b.notPassed
		}
		if a.elapsed != b.elapsed {
			return a.elapsed > b.elapsed
		}
		return a.longName > b.longName
	})

	items := make([]planitem.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, planitem.Item{Kind: planitem.KindSuite, Name: e.longName})
	}
	return items, nil
}

type suiteTiming struct {
	notPassed bool
	elapsed   time.Duration
	longName  string
}

func collectSuiteTimings(s *resultmerge.Suite, out *[]suiteTiming) {
	if len(s.Tests) > 0 {
		*out = append(*out, suiteTiming{
			notPassed: s.Status == nil || s.Status.Status != "PASS",
			elapsed:   elapsedOf(s.Status),
			longName:  longName(s),
		})
	}
	for _, child := range s.Suites {
		collectSuiteTimings(child, out)
	}
}

func elapsedOf(st *resultmerge.Status) time.Duration {
	if st == nil {
		return 0
	}
	start, err1 := time.Parse(robotTimeLayout, st.StartTime)
	end, err2 := time.Parse(robotTimeLayout, st.EndTime)
	if err1 != nil || err2 != nil {
		return 0
	}
	return end.Sub(start)
}
