package router

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spektr-org/ekta/dataset"
)

var topNPattern = regexp.MustCompile(`top\s*(\d+)`)

// Keyword routes by pattern and substring matching.
type Keyword struct{}

// Route never fails and makes no calls.
func (Keyword) Route(_ context.Context, query string) Decision {
	p := strings.ToLower(query)

	d := Decision{
		TopN:         DefaultTopN,
		Topic:        keywordTopic(p),
		Level:        keywordLevel(p),
		Dataset:      "default",
		AnalysisType: "enrolment",
		Source:       KindKeyword,
	}

	if m := topNPattern.FindStringSubmatch(p); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= MaxKeywordTopN {
			d.TopN = n
			d.TopNExplicit = true
		}
	}

	switch {
	case strings.Contains(p, "biometric"):
		d.Dataset = "biometric"
		d.AnalysisType = "biometric"
	case strings.Contains(p, "enrolment"), strings.Contains(p, "enrollment"):
		d.Dataset = "enrolment"
	}
	if strings.Contains(p, "saturation") {
		d.AnalysisType = "saturation"
	}

	d.Title = fmt.Sprintf("Top %d %s Aadhaar Enrollment", d.TopN, TopicLabel(d.Topic))
	return d
}

// "5-17" is the youth bracket, so it is checked before the bare "17" that
// marks the adult bracket.
func keywordTopic(p string) string {
	switch {
	case strings.Contains(p, "5-17"):
		return TopicYouth
	case containsAny(p, "adult", "17", "above"):
		return TopicAdult
	case containsAny(p, "youth", "child"):
		return TopicYouth
	default:
		return TopicTotal
	}
}

func keywordLevel(p string) string {
	switch {
	case containsAny(p, "pincode", "pin code"):
		return dataset.ColPincode
	case strings.Contains(p, "district"):
		return dataset.ColDistrict
	default:
		return dataset.ColState
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
