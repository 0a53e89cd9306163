package fixtures

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var (
	uniqueIDPattern  = regexp.MustCompile(`^([a-z_]+)_(\d+)$`)
	appNamePattern   = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	uniqueEmailShape = regexp.MustCompile(`^[a-z]+\.\d+\.[0-9a-f]{12}@example\.com$`)
)

func suffixOf(t interface{ Fatalf(string, ...any) }, id string) int64 {
	m := uniqueIDPattern.FindStringSubmatch(id)
	if m == nil {
		t.Fatalf("unexpected id shape: %q", id)
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		t.Fatalf("parse suffix of %q: %v", id, err)
	}
	return n
}

func testUniqueID_StrictlyIncreasing(t *rapid.T) {
	prefix := rapid.StringMatching(`[a-z]{1,8}(_[a-z]{1,8})?`).Draw(t, "prefix")
	n := rapid.IntRange(2, 50).Draw(t, "n")

	prev := int64(-1)
	for i := 0; i < n; i++ {
		id := UniqueID(prefix)
		if !strings.HasPrefix(id, prefix+"_") {
			t.Fatalf("id %q lost its prefix %q", id, prefix)
		}
		got := suffixOf(t, id)
		if got <= prev {
			t.Fatalf("ids not strictly increasing: %d after %d", got, prev)
		}
		prev = got
	}
}

func TestUniqueID_StrictlyIncreasing(t *testing.T) {
	rapid.Check(t, testUniqueID_StrictlyIncreasing)
}

func TestUniqueID_DefaultPrefix(t *testing.T) {
	assert.True(t, strings.HasPrefix(UniqueID(""), DefaultPrefix+"_"))
}

func TestUniqueID_ConcurrentCallersNeverCollide(t *testing.T) {
	const workers, perWorker = 8, 50
	var (
		mu   sync.Mutex
		seen = make(map[string]bool, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := UniqueID("client")
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, workers*perWorker)
}

func TestUniqueID_FrozenClock(t *testing.T) {
	orig := now
	t.Cleanup(func() { now = orig })
	frozen := time.Now().Add(time.Hour)
	now = func() time.Time { return frozen }

	a := suffixOf(t, UniqueID("x"))
	b := suffixOf(t, UniqueID("x"))
	assert.Equal(t, a+1, b)
}

func TestUniqueEmail_Shape(t *testing.T) {
	a := UniqueEmail("QA")
	b := UniqueEmail("qa")
	assert.Regexp(t, uniqueEmailShape, a)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(UniqueEmail(""), "qa."))
}

func testAdminRun_DerivedNames(t *rapid.T) {
	prefix := rapid.StringMatching(`[a-z]{1,6}(_[a-z]{1,6}){0,2}`).Draw(t, "prefix")
	year := rapid.IntRange(2020, 2090).Draw(t, "year")
	at := time.Date(year, time.Month(rapid.IntRange(1, 12).Draw(t, "month")), 15, 10, 0, 0, 0, time.UTC)

	run := NewAdminRun(prefix, at)

	if !strings.HasPrefix(run.ID, prefix+"_") {
		t.Fatalf("run id %q does not start with %q", run.ID, prefix)
	}
	if strings.Contains(run.Client.Name, "_") {
		t.Fatalf("client name keeps underscores: %q", run.Client.Name)
	}
	if want := "Auto Client " + strings.ReplaceAll(run.ID, "_", "-"); run.Client.Name != want {
		t.Fatalf("client name: got=%q want=%q", run.Client.Name, want)
	}
	if run.Client.RegistrationNumber != strings.ToUpper(run.Client.RegistrationNumber) ||
		strings.Contains(run.Client.RegistrationNumber, "_") {
		t.Fatalf("registration number not normalized: %q", run.Client.RegistrationNumber)
	}
	for _, v := range []string{run.Application.Username, run.Application.Name, run.Coverage.Reference} {
		if !appNamePattern.MatchString(v) {
			t.Fatalf("value %q is not alphanumeric with underscores", v)
		}
	}
	if run.Application.Username != strings.ToLower(run.Application.Username) {
		t.Fatalf("app username not lower-cased: %q", run.Application.Username)
	}
	if run.Application.ClientName != run.Client.Name {
		t.Fatalf("application client mismatch: %q vs %q", run.Application.ClientName, run.Client.Name)
	}
	if got := run.Application.EffectiveDate; got.Year() != year+1 || got.YearDay() != 1 {
		t.Fatalf("effective date %s is not 1 January of %d", got, year+1)
	}
	if !run.Application.EffectiveDate.After(at) {
		t.Fatalf("effective date %s is not after %s", run.Application.EffectiveDate, at)
	}
}

func TestAdminRun_DerivedNames(t *testing.T) {
	rapid.Check(t, testAdminRun_DerivedNames)
}

func TestAdminRun_KnownID(t *testing.T) {
	run := adminRunFromID("client_1700000000000", time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "Auto Client client-1700000000000", run.Client.Name)
	assert.Equal(t, "REG-CLIENT-1700000000000", run.Client.RegistrationNumber)
	assert.Equal(t, "app_client_client_1700000000000_user", run.Application.Username)
	assert.Equal(t, "App_Client_client_1700000000000", run.Application.Name)
	assert.Equal(t, "COV_client_1700000000000", run.Coverage.Reference)
	assert.Equal(t, "billing.client_1700000000000@example.com", run.Client.Billing.Email)
	assert.Equal(t, "Tech Auto Client client-1700000000000", run.Client.Technical.Name)
	assert.Equal(t, "2027-01-01", FormatDate(run.Application.EffectiveDate))
	assert.Equal(t, "2026-10-17", FormatDate(run.Coverage.PriceEffective))
}

func TestClientDataSets(t *testing.T) {
	a := DynamicClient("")
	b := DuplicateClient()

	assert.True(t, strings.HasPrefix(a.Name, "random_client_"))
	assert.True(t, strings.HasPrefix(b.Name, "random_client_duplicate_"))
	assert.NotEqual(t, a.Billing.Email, b.Billing.Email)
	assert.Equal(t, "Canada", a.Country)
	assert.Equal(t, "USD", b.Currency)
}

const sampleCSV = `name,email,password,day,month,year,firstName,lastName,company,address,country,state,city,zipcode,mobile
Shammika,shammika.{{unique}}@example.com,Qa@12345,10,May,1992,Shammika,Dahanayaka,Oloid,12 Temple Road,Canada,British Columbia,Surrey,V3R 4V7,94714696124

dias,dias@example.com,Qa@67890,3,August,1990,Nuwan,Dias,Oloid,"44 Lake Drive, Unit 2",India,Karnataka,Bengaluru,560001,94714696125
`

func TestParseRegistrations(t *testing.T) {
	recs, err := ParseRegistrations(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, "Shammika", first.Name)
	assert.NotContains(t, first.Email, UniqueToken)
	assert.Regexp(t, `^shammika\.\d+@example\.com$`, first.Email)
	assert.Equal(t, "May", first.Month)
	assert.Equal(t, 2, first.Line)

	second := recs[1]
	assert.Equal(t, "dias@example.com", second.Email)
	assert.Equal(t, "44 Lake Drive, Unit 2", second.Address)
	assert.Equal(t, 4, second.Line)
}

func TestParseRegistrations_UniqueTokenDiffersPerRow(t *testing.T) {
	input := "name,email,password,day,month,year,firstName,lastName,company,address,country,state,city,zipcode,mobile\n" +
		"a,a.{{unique}}@example.com,p,1,May,1990,A,B,C,D,India,S,C,1,2\n" +
		"b,a.{{unique}}@example.com,p,1,May,1990,A,B,C,D,India,S,C,1,2\n"
	recs, err := ParseRegistrations(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.NotEqual(t, recs[0].Email, recs[1].Email)
}

func TestParseRegistrations_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "empty"},
		{name: "missing column", input: "name,email\nx,y@z\n", wantErr: "missing columns: password"},
		{name: "header only", input: strings.Join(RegistrationColumns, ",") + "\n", wantErr: "no records"},
		{
			name:    "short row",
			input:   strings.Join(RegistrationColumns, ",") + "\nx,y@z\n",
			wantErr: "line 2: expected 15 columns, got 2",
		},
		{
			name:    "empty password",
			input:   strings.Join(RegistrationColumns, ",") + "\nx,y@z.com,,1,May,1990,A,B,C,D,India,S,C,1,2\n",
			wantErr: `line 2: column "password" is empty`,
		},
		{
			name:    "bad email",
			input:   strings.Join(RegistrationColumns, ",") + "\nx,not-an-email,p,1,May,1990,A,B,C,D,India,S,C,1,2\n",
			wantErr: "not an email address",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistrations(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRegistrations_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testdata.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	recs, err := LoadRegistrations(path)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = LoadRegistrations(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestLoadRegistrations_CheckedInData(t *testing.T) {
	recs, err := LoadRegistrations(filepath.Join("..", "..", "testdata", "qa", "testdata.csv"))
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
}
