package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/matriculas/internal/config"
	"github.com/google/go-cmp/cmp"
)

const testDatasetKey = "teste"

// stubSource serves one RecordSet and counts loads.
type stubSource struct {
	rs    *RecordSet
	err   error
	loads int
}

func (s *stubSource) Load(_ context.Context, def DatasetDefinition) (*RecordSet, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return def.Normalize(s.rs), nil
}

func registerTestDataset(t *testing.T) {
	t.Helper()
	Clear()
	t.Cleanup(Clear)
	Register(DatasetDefinition{
		Info:               DatasetInfo{Key: testDatasetKey, Label: "Teste", FileStem: "dados_teste"},
		YearColumn:         "NU_ANO_CENSO",
		NetworkColumn:      "REDE",
		DescriptiveColumns: []string{"ID", "NO_ENTIDADE"},
	})
}

func newTestService(t *testing.T) (*Service, *stubSource) {
	t.Helper()
	registerTestDataset(t)
	src := &stubSource{rs: mustRecordSet(t,
		[]string{"ID", "NO_ENTIDADE", "NU_ANO_CENSO", "REDE", "QT_MAT_FUND", "QT_MAT_FUND_AI"},
		Row{"1", "Escola Alfa", int64(2020), "Municipal", int64(120), int64(70)},
		Row{"2", "Colégio Beta", int64(2021), "Estadual", int64(300), int64(200)},
		Row{"3", "Escola Gama", int64(2021), "Municipal", int64(80), int64(50)},
		Row{"4", "Escola Delta", int64(2021), "Privada", nil, nil},
		Row{"5", "Escola Épsilon", int64(2022), "Municipal", int64(300), int64(100)},
	)}
	svc, err := NewService(src, testMapping(t), config.ViewConfig{MaxPageSize: 50, DefaultPageSize: 2, TopN: 10})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, src
}

// ----------------------------------------------------------------------------
// Service Tests
// ----------------------------------------------------------------------------

func TestNewService_MissingDependencies(t *testing.T) {
	if _, err := NewService(nil, testMapping(t), config.ViewConfig{}); !errors.Is(err, ErrMissingConfiguration) {
		t.Errorf("nil source: err = %v", err)
	}
	if _, err := NewService(&stubSource{}, nil, config.ViewConfig{}); !errors.Is(err, ErrMissingConfiguration) {
		t.Errorf("nil mapping: err = %v", err)
	}
}

func TestService_Run(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Run(context.Background(), ViewRequest{
		Dataset: testDatasetKey,
		Stage:   "Ensino Fundamental",
		Years:   []int{2021},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.PassID == "" {
		t.Error("PassID is empty")
	}
	if res.Column != "QT_MAT_FUND" || res.Resolution.Level != LevelStage || len(res.Warnings) != 0 {
		t.Errorf("resolution = %q %v %v", res.Column, res.Resolution.Level, res.Warnings)
	}
	if diff := cmp.Diff([]Value{"2", "3", "4"}, ids(res.Filtered)); diff != "" {
		t.Errorf("filtered mismatch (-want +got):\n%s", diff)
	}

	wantAgg := AggregateResult{
		Total:  "380",
		Mean:   "190",
		Median: "190",
		Min:    "80",
		Max:    "300",
		StdDev: "155,56",
	}
	if diff := cmp.Diff(wantAgg, res.Aggregate); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}

	wantTop := []TableRow{
		{"ID": "2", "NO_ENTIDADE": "Colégio Beta", "QT_MAT_FUND": "300"},
		{"ID": "3", "NO_ENTIDADE": "Escola Gama", "QT_MAT_FUND": "80"},
		{"ID": "4", "NO_ENTIDADE": "Escola Delta", "QT_MAT_FUND": "-"},
	}
	if diff := cmp.Diff(wantTop, res.Top.Rows()); diff != "" {
		t.Errorf("top mismatch (-want +got):\n%s", diff)
	}

	if res.Page.TotalPages() != 2 || res.State != (ViewState{Page: 1, PageSize: 2}) {
		t.Errorf("page = %d/%d state = %+v", res.Page.Page(), res.Page.TotalPages(), res.State)
	}
	wantDisplay := []TableRow{
		{"ID": "2", "NO_ENTIDADE": "Colégio Beta", "NU_ANO_CENSO": int64(2021), "REDE": "Estadual", "QT_MAT_FUND": "300"},
		{"ID": "3", "NO_ENTIDADE": "Escola Gama", "NU_ANO_CENSO": int64(2021), "REDE": "Municipal", "QT_MAT_FUND": "80"},
	}
	if diff := cmp.Diff(wantDisplay, res.Display.Rows()); diff != "" {
		t.Errorf("display mismatch (-want +got):\n%s", diff)
	}
	if v, _ := res.Raw.Value(0, "QT_MAT_FUND"); v != int64(300) {
		t.Errorf("raw value = %#v", v)
	}

	wantOpts := ViewOptions{
		Stages:    []string{"Educação Infantil", "Ensino Fundamental"},
		SubStages: []string{"Anos Finais", "Anos Iniciais"},
		Years:     []string{"2022", "2021", "2020"},
		Networks:  []string{"Municipal", "Estadual", "Privada"},
	}
	if diff := cmp.Diff(wantOpts, res.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestService_Run_NoYearSelected(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Run(context.Background(), ViewRequest{Dataset: testDatasetKey, Stage: "Ensino Fundamental"})
	if !errors.Is(err, ErrNoYearSelected) {
		t.Fatalf("err = %v, want ErrNoYearSelected", err)
	}
	if got := MapError(err).Code; got != "FLT001" {
		t.Errorf("code = %s, want FLT001", got)
	}
	if res == nil || len(res.Options.Years) != 3 {
		t.Error("a halted pass should still report the year options")
	}
	if res != nil && res.Filtered != nil {
		t.Error("a halted pass has no filtered rows")
	}
}

func TestService_Run_UnknownDataset(t *testing.T) {
	svc, src := newTestService(t)

	_, err := svc.Run(context.Background(), ViewRequest{Dataset: "bairros", Years: []int{2021}})
	if got := MapError(err).Code; got != "DS001" {
		t.Errorf("code = %s, want DS001", got)
	}
	if src.loads != 0 {
		t.Errorf("unknown dataset loaded %d snapshots", src.loads)
	}
}

func TestService_Run_SourceError(t *testing.T) {
	svc, src := newTestService(t)
	src.err = errors.New("read parquet dados_teste.parquet: bad footer")

	_, err := svc.Run(context.Background(), ViewRequest{Dataset: testDatasetKey, Years: []int{2021}})
	if got := MapError(err).Code; got != "CFG003" {
		t.Errorf("code = %s, want CFG003", got)
	}
}

func TestService_Run_MappingFallbacks(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name       string
		subStage   string
		series     string
		wantColumn string
		wantCodes  []string
	}{
		{
			name:       "exact sub-stage",
			subStage:   "Anos Iniciais",
			wantColumn: "QT_MAT_FUND_AI",
			wantCodes:  []string{},
		},
		{
			name:       "unknown sub-stage",
			subStage:   "Anos Médios",
			wantColumn: "QT_MAT_FUND",
			wantCodes:  []string{"MAP002"},
		},
		{
			name:       "series column absent from data",
			subStage:   "Anos Iniciais",
			series:     "1º Ano",
			wantColumn: "QT_MAT_FUND_AI",
			wantCodes:  []string{"MAP004"},
		},
		{
			name:       "unknown series",
			subStage:   "Anos Iniciais",
			series:     "9º Ano",
			wantColumn: "QT_MAT_FUND_AI",
			wantCodes:  []string{"MAP003"},
		},
		{
			name:       "sub-stage column absent from data",
			subStage:   "Anos Finais",
			wantColumn: "QT_MAT_FUND",
			wantCodes:  []string{"MAP004"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Run(context.Background(), ViewRequest{
				Dataset:  testDatasetKey,
				Stage:    "Ensino Fundamental",
				SubStage: tt.subStage,
				Series:   tt.series,
				Years:    []int{2020, 2021, 2022},
			})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Column != tt.wantColumn {
				t.Errorf("column = %q, want %q", res.Column, tt.wantColumn)
			}
			codes := []string{}
			for _, w := range res.Warnings {
				codes = append(codes, w.Code)
			}
			if diff := cmp.Diff(tt.wantCodes, codes); diff != "" {
				t.Errorf("warning codes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestService_Run_UnresolvedStage(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		stage    string
		wantCode string
	}{
		{"unknown stage", "Ensino Superior", "MAP001"},
		{"stage column absent from data", "Educação Infantil", "MAP004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Run(context.Background(), ViewRequest{
				Dataset: testDatasetKey,
				Stage:   tt.stage,
				Years:   []int{2021},
			})
			if !errors.Is(err, ErrUnresolvedMapping) {
				t.Fatalf("err = %v, want ErrUnresolvedMapping", err)
			}
			if got := MapError(err).Code; got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
			if res == nil || res.Column != "" || res.Display != nil {
				t.Error("an unresolved stage must not produce a table")
			}
		})
	}
}

func TestService_Run_PageClamp(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Run(context.Background(), ViewRequest{
		Dataset: testDatasetKey,
		Stage:   "Ensino Fundamental",
		Years:   []int{2020, 2021, 2022},
		State:   ViewState{Page: 9, PageSize: 2},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.State != (ViewState{Page: 3, PageSize: 2}) {
		t.Errorf("state = %+v, want page 3 of size 2", res.State)
	}
	if diff := cmp.Diff([]Value{"4"}, ids(res.Raw)); diff != "" {
		t.Errorf("last page mismatch (-want +got):\n%s", diff)
	}

	res, err = svc.Run(context.Background(), ViewRequest{
		Dataset: testDatasetKey,
		Stage:   "Ensino Fundamental",
		Years:   []int{2020, 2021, 2022},
		State:   ViewState{Page: 1, PageSize: 500},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.State.PageSize != 50 || res.Raw.Len() != 5 {
		t.Errorf("page size = %d rows = %d, want 50 and 5", res.State.PageSize, res.Raw.Len())
	}
}

func TestService_Run_TopSmallestKeepsRankOrder(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Run(context.Background(), ViewRequest{
		Dataset: testDatasetKey,
		Stage:   "Ensino Fundamental",
		Years:   []int{2020, 2021, 2022},
		Numeric: NumericFilter{Column: "ignored", Mode: NumericTopSmallest, N: 3},
		State:   ViewState{Page: 1, PageSize: 10},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff([]Value{"3", "1", "2"}, ids(res.Raw)); diff != "" {
		t.Errorf("raw order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Value{"80", "120", "300"}, columnValues(res.Display, "QT_MAT_FUND")); diff != "" {
		t.Errorf("display order mismatch (-want +got):\n%s", diff)
	}
}

func TestService_Run_TextFilterColumnsOnly(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Run(context.Background(), ViewRequest{
		Dataset: testDatasetKey,
		Stage:   "Ensino Fundamental",
		Years:   []int{2020, 2021, 2022},
		Text: map[string]string{
			"NO_ENTIDADE": "escola",
			"REDE":        "Estadual",
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff([]Value{"5", "1", "3", "4"}, ids(res.Filtered)); diff != "" {
		t.Errorf("filtered mismatch (-want +got):\n%s", diff)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %+v, want one for the ignored column", res.Warnings)
	}
	if w := res.Warnings[0]; w.Code != "FLT002" || !strings.Contains(w.Message, "REDE") {
		t.Errorf("warning = %+v, want FLT002 naming REDE", w)
	}
}

func TestService_ListDatasets(t *testing.T) {
	svc, _ := newTestService(t)

	got := svc.ListDatasets()
	if len(got) != 1 || got[0].Key != testDatasetKey {
		t.Errorf("ListDatasets() = %+v", got)
	}
}

func TestSortYears(t *testing.T) {
	years := []string{"2019", "2023", "n/a", "2021"}
	sortYears(years)
	if diff := cmp.Diff([]string{"2023", "2021", "2019", "n/a"}, years); diff != "" {
		t.Errorf("sortYears mismatch (-want +got):\n%s", diff)
	}
}
