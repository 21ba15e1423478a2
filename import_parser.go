package newsletter

import (
	"encoding/csv"
	"io"
	"strings"
)

// ImportParser turns an uploaded file into subscriber rows. Rows the parser
// cannot make sense of are dropped, not fatal; the bulk insert applies its
// own dedupe on top.
type ImportParser interface {
	Parse(r io.Reader) ([]*Subscriber, error)
}

// CSVImportParser reads files with an email column plus optional name and
// phone columns. The first row may be a header; it is detected by the
// absence of an @ in the email position.
type CSVImportParser struct {
	// Comma overrides the field delimiter. Zero value means ','.
	Comma rune
}

var _ ImportParser = (*CSVImportParser)(nil)

func (p *CSVImportParser) Parse(r io.Reader) ([]*Subscriber, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if p.Comma != 0 {
		reader.Comma = p.Comma
	}

	records := []*Subscriber{}
	cols := map[string]int{"email": 0, "name": 1, "phone": 2}
	first := true

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewBadRequest("failed to parse import file", map[string]any{
				"error": err.Error(),
			})
		}

		if len(row) == 0 {
			continue
		}

		if first {
			first = false
			if header, ok := detectHeader(row); ok {
				cols = header
				continue
			}
		}

		email := fieldAt(row, cols["email"])
		if !isEmail(email) {
			continue
		}

		records = append(records, &Subscriber{
			Email: strings.ToLower(email),
			Name:  fieldAt(row, cols["name"]),
			Phone: fieldAt(row, cols["phone"]),
		})
	}

	return records, nil
}

func detectHeader(row []string) (map[string]int, bool) {
	header := map[string]int{"email": -1, "name": -1, "phone": -1}
	found := false

	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		if _, ok := header[key]; ok {
			header[key] = i
			found = true
		}
	}

	if !found || header["email"] == -1 {
		return nil, false
	}

	return header, true
}

func fieldAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
