package fixtures

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// UniqueToken in any CSV cell is replaced with a fresh UniqueID suffix, so a
// checked-in file can describe sign-ups that never collide across runs.
const UniqueToken = "{{unique}}"

// Registration is one row of the shop sign-up data file.
type Registration struct {
	Line      int
	Name      string
	Email     string
	Password  string
	Day       string
	Month     string
	Year      string
	FirstName string
	LastName  string
	Company   string
	Address   string
	Country   string
	State     string
	City      string
	Zipcode   string
	Mobile    string
}

// RegistrationColumns lists the header names LoadRegistrations requires.
var RegistrationColumns = []string{
	"name", "email", "password", "day", "month", "year",
	"firstName", "lastName", "company", "address", "country",
	"state", "city", "zipcode", "mobile",
}

// LoadRegistrations reads the CSV file at path.
func LoadRegistrations(path string) ([]Registration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open test data: %w", err)
	}
	defer f.Close()

	records, err := ParseRegistrations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ParseRegistrations reads registration records from r. The first row names
// the columns; blank lines are skipped.
func ParseRegistrations(r io.Reader) ([]Registration, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("test data is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	var missing []string
	for _, col := range RegistrationColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header is missing columns: %s", strings.Join(missing, ", "))
	}

	var out []Registration
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blankRow(row) {
			continue
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, len(header), len(row))
		}

		suffix := strconv.FormatInt(nextMillis(), 10)
		cell := func(col string) string {
			return strings.ReplaceAll(strings.TrimSpace(row[index[col]]), UniqueToken, suffix)
		}
		rec := Registration{
			Line:      line,
			Name:      cell("name"),
			Email:     cell("email"),
			Password:  cell("password"),
			Day:       cell("day"),
			Month:     cell("month"),
			Year:      cell("year"),
			FirstName: cell("firstName"),
			LastName:  cell("lastName"),
			Company:   cell("company"),
			Address:   cell("address"),
			Country:   cell("country"),
			State:     cell("state"),
			City:      cell("city"),
			Zipcode:   cell("zipcode"),
			Mobile:    cell("mobile"),
		}
		if err := rec.validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, errors.New("test data has no records")
	}
	return out, nil
}

func (r Registration) validate() error {
	required := []struct{ col, v string }{
		{"name", r.Name},
		{"email", r.Email},
		{"password", r.Password},
	}
	for _, f := range required {
		if f.v == "" {
			return fmt.Errorf("column %q is empty", f.col)
		}
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("column %q: %q is not an email address", "email", r.Email)
	}
	return nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
