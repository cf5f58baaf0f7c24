package analysis

import (
	"bytes"
	"fmt"
	"html/template"
)

// TableClasses are the CSS classes put on rendered summary tables.
const TableClasses = "table table-striped table-bordered"

var summaryTemplate = template.Must(template.New("summary").Parse(
	`<table border="0" class="dataframe {{.Classes}}">
  <thead>
    <tr style="text-align: right;">
      <th></th>{{range .Summary.Columns}}
      <th>{{.}}</th>{{end}}
    </tr>
  </thead>
  <tbody>{{range .Summary.Rows}}
    <tr>
      <th>{{.Stat}}</th>{{range .Cells}}
      <td>{{.Text}}</td>{{end}}
    </tr>{{end}}
  </tbody>
</table>
`))

// HTML renders the summary as an HTML table. Column names and values are
// escaped.
func (s *Summary) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	err := summaryTemplate.Execute(&buf, struct {
		Classes string
		Summary *Summary
	}{TableClasses, s})
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return template.HTML(buf.String()), nil
}
