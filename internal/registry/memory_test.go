package registry

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landcharges/assist/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2016, time.March, 14, 10, 30, 0, 0, time.UTC)
}

func sampleRegistration(counties ...string) domain.Registration {
	return domain.Registration{
		Particulars:   domain.Particulars{Description: "1 The Lane", Counties: counties, District: "South Hams"},
		ClassOfCharge: "C1",
		Applicant:     domain.Applicant{Name: "P334 Team", KeyNumber: "244095"},
		Parties: []domain.Party{{
			Type: "Estate Owner",
			Names: []domain.PartyName{{
				Type:    "Private Individual",
				Private: &domain.PrivateName{Surname: "Johnson", Forenames: []string{"Jo", "John"}},
			}},
		}},
	}
}

func rectification(counties ...string) domain.Registration {
	reg := sampleRegistration(counties...)
	reg.UpdateRegistration = &domain.UpdateRegistration{Type: domain.UpdateTypeRectification}
	return reg
}

func TestRegisterAllocatesPerCounty(t *testing.T) {
	r := NewMemoryRegister(fixedClock)

	resp, err := r.Register(sampleRegistration("Devon", "Cornwall"))
	require.NoError(t, err)

	require.Len(t, resp.NewRegistrations, 2)
	assert.Equal(t, "2016-03-14", resp.NewRegistrations[0].Date)
	assert.Equal(t, json.Number("1000"), resp.NewRegistrations[0].Number)
	assert.Equal(t, "Devon", resp.NewRegistrations[0].County)
	assert.Equal(t, json.Number("1001"), resp.NewRegistrations[1].Number)
	assert.JSONEq(t, `1`, string(resp.RequestID))
	assert.Equal(t, 2, r.Len())
}

func TestRegisterValidation(t *testing.T) {
	r := NewMemoryRegister(fixedClock)

	tests := []struct {
		name   string
		mutate func(*domain.Registration)
	}{
		{"missing class", func(reg *domain.Registration) { reg.ClassOfCharge = "" }},
		{"no parties", func(reg *domain.Registration) { reg.Parties = nil }},
		{"no counties", func(reg *domain.Registration) { reg.Particulars.Counties = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := sampleRegistration("Devon")
			tt.mutate(&reg)
			_, err := r.Register(reg)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
	assert.Zero(t, r.Len())
}

func TestRectify(t *testing.T) {
	r := NewMemoryRegister(fixedClock)

	initial, err := r.Register(sampleRegistration("Devon"))
	require.NoError(t, err)
	orig := initial.NewRegistrations[0]

	resp, err := r.Rectify(orig.Date, orig.Number.String(), rectification("Devon"))
	require.NoError(t, err)

	require.Len(t, resp.NewRegistrations, 1)
	assert.Equal(t, json.Number("1001"), resp.NewRegistrations[0].Number)
	require.Len(t, resp.AmendedRegistrations, 1)
	assert.Equal(t, orig.Number, resp.AmendedRegistrations[0].Number)

	entry, err := r.Get(orig.Date, orig.Number.String())
	require.NoError(t, err)
	require.NotNil(t, entry.AmendedBy)
	assert.Equal(t, json.Number("1001"), entry.AmendedBy.Number)

	amended, err := r.Get(orig.Date, "1001")
	require.NoError(t, err)
	require.NotNil(t, amended.Amends)
	assert.Equal(t, orig.Number, amended.Amends.Number)
}

func TestRectifyErrors(t *testing.T) {
	r := NewMemoryRegister(fixedClock)

	_, err := r.Rectify("2016-03-14", "1000", rectification("Devon"))
	assert.ErrorIs(t, err, ErrNotFound)

	initial, err := r.Register(sampleRegistration("Devon"))
	require.NoError(t, err)
	orig := initial.NewRegistrations[0]

	_, err = r.Rectify(orig.Date, orig.Number.String(), sampleRegistration("Devon"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = r.Rectify(orig.Date, orig.Number.String(), rectification("Devon"))
	require.NoError(t, err)

	_, err = r.Rectify(orig.Date, orig.Number.String(), rectification("Devon"))
	assert.True(t, errors.Is(err, ErrSuperseded))
}

func TestResetRestartsNumbering(t *testing.T) {
	r := NewMemoryRegister(fixedClock)

	first, err := r.Register(sampleRegistration("Devon"))
	require.NoError(t, err)

	r.Reset()
	assert.Zero(t, r.Len())

	second, err := r.Register(sampleRegistration("Devon"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNumbersRestartEachDay(t *testing.T) {
	day := fixedClock()
	r := NewMemoryRegister(func() time.Time { return day })

	_, err := r.Register(sampleRegistration("Devon"))
	require.NoError(t, err)

	day = day.Add(24 * time.Hour)
	resp, err := r.Register(sampleRegistration("Devon"))
	require.NoError(t, err)

	assert.Equal(t, "2016-03-15", resp.NewRegistrations[0].Date)
	assert.Equal(t, json.Number("1000"), resp.NewRegistrations[0].Number)
}

func TestConcurrentRegistrationsGetUniqueNumbers(t *testing.T) {
	r := NewMemoryRegister(fixedClock)

	const workers = 20
	var wg sync.WaitGroup
	numbers := make(chan json.Number, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := r.Register(sampleRegistration("Devon"))
			if err == nil {
				numbers <- resp.NewRegistrations[0].Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[json.Number]bool)
	for n := range numbers {
		assert.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}

func companyRegistration(company string, counties ...string) domain.Registration {
	reg := sampleRegistration(counties...)
	reg.Parties = []domain.Party{{
		Type:  "Estate Owner",
		Names: []domain.PartyName{{Type: domain.NameTypeLimitedCompany, Company: company}},
	}}
	return reg
}

func TestRegisterStoresNameKeys(t *testing.T) {
	r := NewMemoryRegister(fixedClock)

	resp, err := r.Register(companyRegistration("Brown Brothers Limited", "Devon"))
	require.NoError(t, err)

	entry, err := r.Get(resp.NewRegistrations[0].Date, resp.NewRegistrations[0].Number.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"BROWNBROLD"}, entry.NameKeys)

	event := entry.Event(fixedClock())
	assert.Equal(t, entry.Ref, event.Registration)
	assert.Equal(t, "C1", event.ClassOfCharge)
	assert.Equal(t, []string{"BROWNBROLD"}, event.NameKeys)
	assert.Nil(t, event.Amends)
}

func TestRegisterRejectsUnkeyableName(t *testing.T) {
	r := NewMemoryRegister(fixedClock)

	reg := sampleRegistration("Devon")
	reg.Parties[0].Names[0] = domain.PartyName{Type: domain.NameTypeLimitedCompany}

	_, err := r.Register(reg)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Zero(t, r.Len())
}

func TestSearch(t *testing.T) {
	day := time.Date(2015, time.June, 1, 9, 0, 0, 0, time.UTC)
	r := NewMemoryRegister(func() time.Time { return day })

	_, err := r.Register(companyRegistration("Brown Brothers Limited", "Devon", "Cornwall"))
	require.NoError(t, err)

	day = time.Date(2016, time.March, 14, 9, 0, 0, 0, time.UTC)
	_, err = r.Register(companyRegistration("Brown Bros Ltd", "Devon"))
	require.NoError(t, err)
	_, err = r.Register(sampleRegistration("Devon"))
	require.NoError(t, err)

	company := domain.PartyName{Type: domain.NameTypeLimitedCompany, Company: "BROWN BROTHER LD"}

	tests := []struct {
		name     string
		counties []string
		from, to int
		want     []string
	}{
		{"all counties", nil, 0, 0, []string{"2015-06-01/1000", "2015-06-01/1001", "2016-03-14/1000"}},
		{"explicit all", []string{"all"}, 0, 0, []string{"2015-06-01/1000", "2015-06-01/1001", "2016-03-14/1000"}},
		{"one county", []string{"cornwall"}, 0, 0, []string{"2015-06-01/1001"}},
		{"year range", nil, 2016, 2016, []string{"2016-03-14/1000"}},
		{"open upper bound", []string{"Devon"}, 2015, 0, []string{"2015-06-01/1000", "2016-03-14/1000"}},
		{"no match", []string{"Kent"}, 0, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := r.Search(domain.SearchRequest{
				Counties: tt.counties,
				Items:    []domain.SearchItem{{Name: company, YearFrom: tt.from, YearTo: tt.to}},
			})
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, "BROWNBROLD", results[0].NameKey)

			var got []string
			for _, ref := range results[0].Registrations {
				got = append(got, ref.Date+"/"+ref.Number.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchSkipsAmendedRegistrations(t *testing.T) {
	r := NewMemoryRegister(fixedClock)

	initial, err := r.Register(sampleRegistration("Devon"))
	require.NoError(t, err)
	orig := initial.NewRegistrations[0]

	_, err = r.Rectify(orig.Date, orig.Number.String(), rectification("Devon"))
	require.NoError(t, err)

	results, err := r.Search(domain.SearchRequest{Items: []domain.SearchItem{{
		Name: domain.PartyName{
			Type:    domain.NameTypePrivate,
			Private: &domain.PrivateName{Forenames: []string{"Jo", "John"}, Surname: "Johnson"},
		},
	}}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Registrations, 1)
	assert.Equal(t, json.Number("1001"), results[0].Registrations[0].Number)
}

func TestSearchValidation(t *testing.T) {
	r := NewMemoryRegister(fixedClock)

	_, err := r.Search(domain.SearchRequest{})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = r.Search(domain.SearchRequest{Items: []domain.SearchItem{{Name: domain.PartyName{Type: domain.NameTypeOther}}}})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = r.Search(domain.SearchRequest{Items: []domain.SearchItem{{
		Name:     domain.PartyName{Type: domain.NameTypeOther, Other: "x"},
		YearFrom: 2017,
		YearTo:   2016,
	}}})
	assert.ErrorIs(t, err, ErrInvalid)
}
