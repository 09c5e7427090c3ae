package registry

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"landcharges/assist/internal/domain"
)

const (
	dateLayout  = "2006-01-02"
	firstNumber = 1000
)

var (
	ErrNotFound   = errors.New("registration not found")
	ErrSuperseded = errors.New("registration already amended")
	ErrInvalid    = errors.New("invalid registration")
)

// Entry is a stored registration together with its amendment links.
type Entry struct {
	Ref          domain.RegistrationRef  `json:"ref"`
	Registration domain.Registration     `json:"registration"`
	NameKeys     []string                `json:"name_keys"`
	Amends       *domain.RegistrationRef `json:"amends,omitempty"`
	AmendedBy    *domain.RegistrationRef `json:"amended_by,omitempty"`
}

// Current reports whether no later registration amends this one.
func (e Entry) Current() bool {
	return e.AmendedBy == nil
}

// Event describes the entry for subscribers to new registrations.
func (e Entry) Event(at time.Time) domain.RegistrationEvent {
	return domain.RegistrationEvent{
		Registration:  e.Ref,
		Amends:        e.Amends,
		ClassOfCharge: e.Registration.ClassOfCharge,
		NameKeys:      e.NameKeys,
		Timestamp:     at,
	}
}

// MemoryRegister allocates registration numbers per day and keeps every
// registration in memory. Safe for concurrent use.
type MemoryRegister struct {
	mu        sync.Mutex
	now       func() time.Time
	entries   map[string]*Entry
	sequences map[string]int
	requestID int64
}

func NewMemoryRegister(now func() time.Time) *MemoryRegister {
	if now == nil {
		now = time.Now
	}

	return &MemoryRegister{
		now:       now,
		entries:   make(map[string]*Entry),
		sequences: make(map[string]int),
	}
}

// Validate checks the fields the register needs to allocate a registration
// and returns the name keys of its parties.
func Validate(reg domain.Registration) ([]string, error) {
	if reg.ClassOfCharge == "" {
		return nil, fmt.Errorf("%w: class_of_charge is required", ErrInvalid)
	}
	if len(reg.Parties) == 0 {
		return nil, fmt.Errorf("%w: at least one party is required", ErrInvalid)
	}
	if len(reg.Particulars.Counties) == 0 {
		return nil, fmt.Errorf("%w: at least one county is required", ErrInvalid)
	}
	return NameKeys(reg.Parties)
}

// Register stores reg once per county and returns the allocated references.
func (r *MemoryRegister) Register(reg domain.Registration) (domain.RegistrationResponse, error) {
	keys, err := Validate(reg)
	if err != nil {
		return domain.RegistrationResponse{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	refs := r.allocate(reg, keys, nil)
	r.requestID++

	return domain.RegistrationResponse{
		NewRegistrations: refs,
		RequestID:        requestIDJSON(r.requestID),
	}, nil
}

// Rectify supersedes the registration at date/number with reg.
func (r *MemoryRegister) Rectify(date, number string, reg domain.Registration) (domain.RegistrationResponse, error) {
	if reg.UpdateRegistration == nil || reg.UpdateRegistration.Type == "" {
		return domain.RegistrationResponse{}, fmt.Errorf("%w: update_registration.type is required", ErrInvalid)
	}
	keys, err := Validate(reg)
	if err != nil {
		return domain.RegistrationResponse{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	original, ok := r.entries[entryKey(date, number)]
	if !ok {
		return domain.RegistrationResponse{}, fmt.Errorf("%w: %s/%s", ErrNotFound, date, number)
	}
	if original.AmendedBy != nil {
		return domain.RegistrationResponse{}, fmt.Errorf("%w: %s/%s", ErrSuperseded, date, number)
	}

	amends := original.Ref
	refs := r.allocate(reg, keys, &amends)
	original.AmendedBy = &refs[0]
	r.requestID++

	return domain.RegistrationResponse{
		NewRegistrations:     refs,
		AmendedRegistrations: []domain.RegistrationRef{amends},
		RequestID:            requestIDJSON(r.requestID),
	}, nil
}

// Search looks up current registrations by name key for every item in req,
// limited to req.Counties and each item's year range. Results keep the order
// of req.Items; registrations within a result are ordered by date and number.
func (r *MemoryRegister) Search(req domain.SearchRequest) ([]domain.SearchResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one search item is required", ErrInvalid)
	}

	keys := make([]string, len(req.Items))
	for i, item := range req.Items {
		key, err := NameKey(item.Name)
		if err != nil {
			return nil, err
		}
		if item.YearFrom != 0 && item.YearTo != 0 && item.YearFrom > item.YearTo {
			return nil, fmt.Errorf("%w: year_from %d is after year_to %d", ErrInvalid, item.YearFrom, item.YearTo)
		}
		keys[i] = key
	}

	counties := countyFilter(req.Counties)

	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]domain.SearchResult, len(req.Items))
	for i, item := range req.Items {
		matches := []domain.RegistrationRef{}
		for _, entry := range r.entries {
			if !entry.Current() || !slices.Contains(entry.NameKeys, keys[i]) {
				continue
			}
			if counties != nil && !counties[strings.ToUpper(entry.Ref.County)] {
				continue
			}
			if !inYearRange(entry.Ref.Date, item.YearFrom, item.YearTo) {
				continue
			}
			matches = append(matches, entry.Ref)
		}
		slices.SortFunc(matches, compareRefs)

		results[i] = domain.SearchResult{NameKey: keys[i], Registrations: matches}
	}

	return results, nil
}

func (r *MemoryRegister) Get(date, number string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[entryKey(date, number)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s/%s", ErrNotFound, date, number)
	}
	return *entry, nil
}

func (r *MemoryRegister) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reset empties the register and restarts numbering.
func (r *MemoryRegister) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*Entry)
	r.sequences = make(map[string]int)
	r.requestID = 0
}

// allocate must be called with mu held.
func (r *MemoryRegister) allocate(reg domain.Registration, keys []string, amends *domain.RegistrationRef) []domain.RegistrationRef {
	date := r.now().Format(dateLayout)
	refs := make([]domain.RegistrationRef, 0, len(reg.Particulars.Counties))

	for _, county := range reg.Particulars.Counties {
		next, ok := r.sequences[date]
		if !ok {
			next = firstNumber
		}
		r.sequences[date] = next + 1

		ref := domain.RegistrationRef{
			Date:   date,
			Number: json.Number(strconv.Itoa(next)),
			County: county,
		}
		r.entries[entryKey(ref.Date, ref.Number.String())] = &Entry{
			Ref:          ref,
			Registration: reg,
			NameKeys:     keys,
			Amends:       amends,
		}
		refs = append(refs, ref)
	}

	return refs
}

func entryKey(date, number string) string {
	return date + "/" + number
}

func requestIDJSON(id int64) json.RawMessage {
	return json.RawMessage(strconv.FormatInt(id, 10))
}

// countyFilter returns nil when every county matches.
func countyFilter(counties []string) map[string]bool {
	if len(counties) == 0 {
		return nil
	}

	filter := make(map[string]bool, len(counties))
	for _, c := range counties {
		upper := strings.ToUpper(strings.TrimSpace(c))
		if upper == domain.SearchCountiesAll {
			return nil
		}
		filter[upper] = true
	}
	return filter
}

func inYearRange(date string, from, to int) bool {
	registered, err := time.Parse(dateLayout, date)
	if err != nil {
		return false
	}
	year := registered.Year()
	return (from == 0 || year >= from) && (to == 0 || year <= to)
}

func compareRefs(a, b domain.RegistrationRef) int {
	if c := cmp.Compare(a.Date, b.Date); c != 0 {
		return c
	}
	an, _ := strconv.Atoi(a.Number.String())
	bn, _ := strconv.Atoi(b.Number.String())
	return cmp.Compare(an, bn)
}
