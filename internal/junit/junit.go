// Package junit models the JUnit-style XML report produced by the test
// runner and consumed by the results dashboard.
package junit

import (
	"encoding/xml"
	"fmt"
)

// TestSuites is the root element of a report holding multiple suites.
type TestSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []*TestSuite `xml:"testsuite"`
}

// TestSuite groups the cases of one suite run.
type TestSuite struct {
	XMLName    xml.Name    `xml:"testsuite"`
	Name       string      `xml:"name,attr"`
	NumTests   uint        `xml:"tests,attr"`
	NumSkipped uint        `xml:"skipped,attr"`
	NumFailed  uint        `xml:"failures,attr"`
	Duration   float64     `xml:"time,attr"`
	TestCases  []*TestCase `xml:"testcase"`
}

// TestCase is one executed test.
type TestCase struct {
	Name          string         `xml:"name,attr"`
	ClassName     string         `xml:"classname,attr,omitempty"`
	Duration      float64        `xml:"time,attr"`
	SkipMessage   *SkipMessage   `xml:"skipped,omitempty"`
	FailureOutput *FailureOutput `xml:"failure,omitempty"`
	SystemOut     string         `xml:"system-out,omitempty"`
}

// SkipMessage carries the reason a case was skipped.
type SkipMessage struct {
	Message string `xml:"message,attr"`
}

// FailureOutput carries a failed case's message and output.
type FailureOutput struct {
	Message string `xml:"message,attr"`
	Output  string `xml:",chardata"`
}

// Parse decodes a report. Reports whose root is a single <testsuite> are
// wrapped into a TestSuites for uniform handling.
func Parse(data []byte) (*TestSuites, error) {
	var suites TestSuites
	if err := xml.Unmarshal(data, &suites); err == nil {
		return &suites, nil
	}

	var suite TestSuite
	if err := xml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("malformed junit report: %w", err)
	}
	return &TestSuites{Suites: []*TestSuite{&suite}}, nil
}

// Marshal encodes a report with the XML header dashboards expect.
func Marshal(suites *TestSuites) ([]byte, error) {
	body, err := xml.MarshalIndent(suites, "", "\t")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Summary aggregates counts across suites for logging.
func (s *TestSuites) Summary() (tests, failures, skipped uint) {
	for _, suite := range s.Suites {
		tests += suite.NumTests
		failures += suite.NumFailed
		skipped += suite.NumSkipped
	}
	return tests, failures, skipped
}
