// Package report renders the derived views as a self-contained HTML page
// with echarts charts.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
)

const styleTagLen = len("</style>")

// Renderable is anything that writes an HTML fragment or a full echarts page.
type Renderable interface {
	Render(w io.Writer) error
}

// Section is one titled block of the page.
type Section struct {
	ID       string
	Title    string
	Subtitle string
	Hint     []string
	Chart    Renderable
}

// Page is a complete report.
type Page struct {
	Title       string
	Description string
	Generated   string
	Lang        string
	RTL         bool
	Theme       Theme
	Sections    []Section
}

// Add appends sections to the page.
func (p *Page) Add(sections ...Section) {
	p.Sections = append(p.Sections, sections...)
}

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	return HTMLRenderer{}.Render(w, p)
}

// HTMLRenderer renders pages as HTML.
type HTMLRenderer struct {
	ExtraCSS string
}

// Render writes page to w.
func (r HTMLRenderer) Render(w io.Writer, page *Page) error {
	var sectionsHTML bytes.Buffer

	for _, section := range page.Sections {
		sectionHTML, err := renderSection(section)
		if err != nil {
			return fmt.Errorf("render section %s: %w", section.ID, err)
		}

		sectionsHTML.WriteString(string(sectionHTML))
	}

	dir := "ltr"
	if page.RTL {
		dir = "rtl"
	}

	html, err := renderTemplate("page.html", pageData{
		Title:       page.Title,
		Description: page.Description,
		Generated:   page.Generated,
		Lang:        page.Lang,
		Dir:         dir,
		Theme:       GetThemeConfig(page.Theme),
		ExtraCSS:    template.CSS(r.ExtraCSS), //nolint:gosec // caller-supplied stylesheet.
		Content:     template.HTML(sectionsHTML.String()), //nolint:gosec // rendered from escaped templates.
	})
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	_, err = io.WriteString(w, string(html))
	if err != nil {
		return fmt.Errorf("writing page: %w", err)
	}

	return nil
}

func renderSection(section Section) (template.HTML, error) {
	body, err := renderChart(section.Chart)
	if err != nil {
		return "", err
	}

	return renderTemplate("section.html", sectionData{
		ID:       section.ID,
		Title:    section.Title,
		Subtitle: section.Subtitle,
		Hint:     section.Hint,
		Body:     template.HTML(body), //nolint:gosec // chart output or escaped fragment.
	})
}

func renderChart(chart Renderable) (string, error) {
	if chart == nil {
		return "", nil
	}

	var buf bytes.Buffer

	err := chart.Render(&buf)
	if err != nil {
		return "", fmt.Errorf("rendering chart: %w", err)
	}

	return extractChartContent(buf.String()), nil
}

// fragment renders one of the embedded component templates.
type fragment struct {
	name string
	data any
}

func (f fragment) Render(w io.Writer) error {
	html, err := renderTemplate(f.name, f.data)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, string(html))
	if err != nil {
		return fmt.Errorf("writing %s: %w", f.name, err)
	}

	return nil
}

// extractChartContent strips the document wrapper echarts emits around a
// chart so that many charts can share one page.
func extractChartContent(html string) string {
	trimmed := strings.TrimSpace(html)
	if !strings.HasPrefix(trimmed, "<!DOCTYPE") && !strings.HasPrefix(trimmed, "<html") {
		return html
	}

	start := strings.Index(html, `<div class="container">`)
	if start == -1 {
		return html
	}

	end := strings.Index(html, `</body>`)
	if end == -1 || end < start {
		return html
	}

	content := html[start:end]
	content = strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)

	return removeStyleTags(content)
}

func removeStyleTags(content string) string {
	for {
		i := strings.Index(content, `<style>`)
		if i == -1 {
			return content
		}

		j := strings.Index(content[i:], `</style>`)
		if j == -1 {
			return content
		}

		content = content[:i] + content[i+j+styleTagLen:]
	}
}
