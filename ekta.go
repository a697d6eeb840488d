// Package ekta answers natural-language questions about Aadhaar demographic
// enrolment data.
//
// Usage:
//
//	import "github.com/spektr-org/ekta/dashboard"
//
//	svc := dashboard.NewService(dashboard.Options{Path: "data/input/aadhar_clean.csv"})
//	resp, err := svc.Ask(ctx, dashboard.Request{Query: "top 5 districts for youth"})
//
// A router (keyword or Gemini) turns the question into a decision, the engine
// aggregates the enrolment table into chart and table payloads, and the
// insight package writes a short recommendation per panel.
//
// The engine never calls any external service. All computation is local.
package ekta
