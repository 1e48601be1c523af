package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	templates     *template.Template
	templatesOnce sync.Once
	errTemplates  error
)

var funcMap = template.FuncMap{
	"join": strings.Join,
}

func getTemplates() (*template.Template, error) {
	templatesOnce.Do(func() {
		var parseErr error

		templates, parseErr = template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
		if parseErr != nil {
			errTemplates = fmt.Errorf("parsing templates: %w", parseErr)
		}
	})

	return templates, errTemplates
}

func renderTemplate(name string, data any) (template.HTML, error) {
	tmpl, err := getTemplates()
	if err != nil {
		return "", fmt.Errorf("loading templates: %w", err)
	}

	var buf bytes.Buffer

	err = tmpl.ExecuteTemplate(&buf, name, data)
	if err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return template.HTML(buf.String()), nil //nolint:gosec // output of html/template.
}

type pageData struct {
	Title       string
	Description string
	Generated   string
	Lang        string
	Dir         string
	Theme       ThemeConfig
	ExtraCSS    template.CSS
	Content     template.HTML
}

type sectionData struct {
	ID       string
	Title    string
	Subtitle string
	Hint     []string
	Body     template.HTML
}

// statData is one headline counter card.
type statData struct {
	Label string
	Value string
	Note  string
}

type summaryData struct {
	Stats    []statData
	Sentence string
	Context  string
}

type calendarCell struct {
	Class string
	Style template.CSS
	Title string
}

type calendarRow struct {
	Day   int
	Cells []calendarCell
}

type calendarData struct {
	Months []string
	Totals []string
	Rows   []calendarRow
	Legend []statData
}

type peakCard struct {
	Date        string
	Value       string
	Week        string
	Sentence    string
	Annotations []string
}

type tableData struct {
	Headers []string
	Rows    [][]string
	Empty   string
}
