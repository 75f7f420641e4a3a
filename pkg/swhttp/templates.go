package swhttp

import (
	_ "embed"
	"html/template"
	"io"
)

//go:embed error.html
var errorHtml string

//go:embed results.html
var resultsHtml string

//go:embed walk.html
var walkHtml string

var errorTemplate = template.Must(template.New("error").Parse(errorHtml))
var resultsTemplate = template.Must(template.New("results").Parse(resultsHtml))
var walkTemplate = template.Must(template.New("walk").Parse(walkHtml))

// ErrorPage is rendered for failed requests.
type ErrorPage struct {
	StatusCode int
	Code       string
	Message    string
}

// ResultsPage lists the matches of one pattern.
type ResultsPage struct {
	Pattern   string
	Recursive bool
	Matches   []string
}

type WalkEntry struct {
	Dir   string
	Dirs  []string
	Files []string
}

type WalkPage struct {
	Root    string
	Entries []WalkEntry
}

func RenderError(w io.Writer, page ErrorPage) error {
	return errorTemplate.Execute(w, page)
}

func RenderResults(w io.Writer, page ResultsPage) error {
	return resultsTemplate.Execute(w, page)
}

func RenderWalk(w io.Writer, page WalkPage) error {
	return walkTemplate.Execute(w, page)
}
