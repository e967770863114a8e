// Package cli implements the surveyreport command: offline exports and a
// plain-text view of the dashboard distributions.
package cli
