package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"reflect"

	"github.com/cucumber/godog"

	"landcharges/assist/internal/domain"
	"landcharges/assist/internal/landcharges"
	"landcharges/assist/internal/scenario"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Background steps
	ctx.Step(`^the land charges service is running$`, tc.serviceIsRunning)
	ctx.Step(`^the register has been reset$`, tc.registerHasBeenReset)

	// Request steps
	ctx.Step(`^I post the initial registration$`, tc.postInitialRegistration)
	ctx.Step(`^I save the first new registration$`, tc.saveFirstRegistration)
	ctx.Step(`^I rectify the saved registration$`, tc.rectifySavedRegistration)
	ctx.Step(`^I rectify registration "([^"]*)" number "([^"]*)"$`, tc.rectifyRegistration)
	ctx.Step(`^I resubmit the initial registration against the saved registration$`, tc.resubmitInitial)
	ctx.Step(`^I run the rectification scenario(?: again)?$`, tc.runScenario)

	// Assertion steps
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response should contain a non-empty "([^"]*)" list$`, tc.responseShouldContainList)
	ctx.Step(`^every new registration should have a date and number$`, tc.everyRegistrationIsComplete)
	ctx.Step(`^the saved registration should be listed as amended$`, tc.savedRegistrationIsAmended)
	ctx.Step(`^both runs should report registrations of the same shape$`, tc.runsMatch)

	// Search steps
	ctx.Step(`^I post a registration for company "([^"]*)"$`, tc.postCompanyRegistration)
	ctx.Step(`^I search for the initial registration's party names$`, tc.searchInitialParties)
	ctx.Step(`^I search for company "([^"]*)"$`, tc.searchCompany)
	ctx.Step(`^the search should return only the saved registration$`, tc.searchReturnsOnlySaved)
	ctx.Step(`^the search should return (\d+) registrations?$`, tc.searchReturnsCount)
}

func payloads() (scenario.Payloads, error) {
	return scenario.Type1Rectification()
}

func (tc *TestContext) serviceIsRunning(ctx context.Context) error {
	tc.ensureService()
	return nil
}

func (tc *TestContext) registerHasBeenReset(ctx context.Context) error {
	return tc.Reset(ctx)
}

func (tc *TestContext) postInitialRegistration(ctx context.Context) error {
	p, err := payloads()
	if err != nil {
		return err
	}
	return tc.POST(ctx, "/registrations", p.Initial)
}

func (tc *TestContext) saveFirstRegistration(ctx context.Context) error {
	resp, err := tc.LastRegistrationResponse()
	if err != nil {
		return err
	}
	if len(resp.NewRegistrations) == 0 {
		return fmt.Errorf("no new_registrations to save")
	}
	tc.Saved = resp.NewRegistrations[0]
	return nil
}

func (tc *TestContext) rectifySavedRegistration(ctx context.Context) error {
	return tc.rectifyRegistration(ctx, tc.Saved.Date, tc.Saved.Number.String())
}

func (tc *TestContext) rectifyRegistration(ctx context.Context, date, number string) error {
	p, err := payloads()
	if err != nil {
		return err
	}
	return tc.PUT(ctx, registrationPath(date, number), p.Rectification)
}

func (tc *TestContext) resubmitInitial(ctx context.Context) error {
	p, err := payloads()
	if err != nil {
		return err
	}
	return tc.PUT(ctx, registrationPath(tc.Saved.Date, tc.Saved.Number.String()), p.Initial)
}

func (tc *TestContext) runScenario(ctx context.Context) error {
	p, err := payloads()
	if err != nil {
		return err
	}

	client, err := landcharges.NewClient(tc.BaseURL, tc.HTTPClient.Timeout)
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := scenario.NewRunner(client, nil, nil, io.Discard, log, scenario.Config{
		Payloads:  p,
		SkipReset: true,
	})

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	tc.Runs = append(tc.Runs, report)
	return nil
}

func (tc *TestContext) responseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	if tc.LastResponse == nil {
		return fmt.Errorf("no request has been made")
	}
	if tc.LastResponse.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d but got %d", expectedStatus, tc.LastResponse.StatusCode)
	}
	return nil
}

func (tc *TestContext) responseShouldContainList(ctx context.Context, field string) error {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	raw, ok := data[field]
	if !ok {
		return fmt.Errorf("field %s not found in response", field)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("field %s is not a list: %w", field, err)
	}
	if len(list) == 0 {
		return fmt.Errorf("field %s is empty", field)
	}
	return nil
}

func (tc *TestContext) everyRegistrationIsComplete(ctx context.Context) error {
	resp, err := tc.LastRegistrationResponse()
	if err != nil {
		return err
	}
	if len(resp.NewRegistrations) == 0 {
		return fmt.Errorf("response has no new_registrations")
	}
	for i, ref := range resp.NewRegistrations {
		if !ref.Complete() {
			return fmt.Errorf("new_registrations[%d] is missing date or number: %+v", i, ref)
		}
	}
	return nil
}

func (tc *TestContext) savedRegistrationIsAmended(ctx context.Context) error {
	resp, err := tc.LastRegistrationResponse()
	if err != nil {
		return err
	}
	for _, ref := range resp.AmendedRegistrations {
		if ref.Date == tc.Saved.Date && ref.Number == tc.Saved.Number {
			return nil
		}
	}
	return fmt.Errorf("%s/%s not in amended_registrations %+v", tc.Saved.Date, tc.Saved.Number, resp.AmendedRegistrations)
}

func (tc *TestContext) runsMatch(ctx context.Context) error {
	if len(tc.Runs) < 2 {
		return fmt.Errorf("expected two runs, have %d", len(tc.Runs))
	}

	first, second := tc.Runs[0], tc.Runs[1]
	if len(first.Initial) != len(second.Initial) || len(first.Rectified) != len(second.Rectified) {
		return fmt.Errorf("run shapes differ: %d/%d vs %d/%d",
			len(first.Initial), len(first.Rectified), len(second.Initial), len(second.Rectified))
	}
	if !reflect.DeepEqual(refShape(first.Rectified), refShape(second.Rectified)) {
		return fmt.Errorf("rectified registrations differ in shape")
	}
	return nil
}

// refShape keeps which fields are populated, not their values.
func refShape(refs []domain.RegistrationRef) [][3]bool {
	shape := make([][3]bool, 0, len(refs))
	for _, r := range refs {
		shape = append(shape, [3]bool{r.Date != "", r.Number != "", r.County != ""})
	}
	return shape
}

func (tc *TestContext) postCompanyRegistration(ctx context.Context, company string) error {
	p, err := payloads()
	if err != nil {
		return err
	}

	reg := p.Initial
	reg.Parties = []domain.Party{{
		Type:  "Estate Owner",
		Names: []domain.PartyName{{Type: domain.NameTypeLimitedCompany, Company: company}},
	}}
	return tc.POST(ctx, "/registrations", reg)
}

func (tc *TestContext) searchInitialParties(ctx context.Context) error {
	p, err := payloads()
	if err != nil {
		return err
	}

	var req domain.SearchRequest
	for _, party := range p.Initial.Parties {
		for _, name := range party.Names {
			req.Items = append(req.Items, domain.SearchItem{Name: name})
		}
	}
	return tc.POST(ctx, "/searches", req)
}

func (tc *TestContext) searchCompany(ctx context.Context, company string) error {
	return tc.POST(ctx, "/searches", domain.SearchRequest{
		Counties: []string{domain.SearchCountiesAll},
		Items: []domain.SearchItem{{
			Name: domain.PartyName{Type: domain.NameTypeLimitedCompany, Company: company},
		}},
	})
}

func (tc *TestContext) searchRegistrations() ([]domain.RegistrationRef, error) {
	var resp domain.SearchResponse
	if err := json.Unmarshal(tc.LastResponseBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	var refs []domain.RegistrationRef
	for _, result := range resp.Results {
		refs = append(refs, result.Registrations...)
	}
	return refs, nil
}

func (tc *TestContext) searchReturnsOnlySaved(ctx context.Context) error {
	refs, err := tc.searchRegistrations()
	if err != nil {
		return err
	}
	if len(refs) != 1 || refs[0].Date != tc.Saved.Date || refs[0].Number != tc.Saved.Number {
		return fmt.Errorf("expected only %s/%s, got %+v", tc.Saved.Date, tc.Saved.Number, refs)
	}
	return nil
}

func (tc *TestContext) searchReturnsCount(ctx context.Context, expected int) error {
	refs, err := tc.searchRegistrations()
	if err != nil {
		return err
	}
	if len(refs) != expected {
		return fmt.Errorf("expected %d registrations, got %d: %+v", expected, len(refs), refs)
	}
	return nil
}

func registrationPath(date, number string) string {
	return fmt.Sprintf("/registrations/%s/%s", url.PathEscape(date), url.PathEscape(number))
}
