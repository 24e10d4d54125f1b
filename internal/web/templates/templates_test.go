package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/core"
	"github.com/JonMunkholm/datacleanser/internal/preview"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestLayout_EscapesAndShowsSignOut(t *testing.T) {
	out := render(t, Layout("<Upload>", "ada@example.com", ErrorAlert("boom", "", "")))

	if strings.Contains(out, "<Upload>") {
		t.Error("title not escaped")
	}
	for _, want := range []string{"&lt;Upload&gt;", `action="/logout"`, "ada@example.com", HTMXSrc, "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("layout missing %q", want)
		}
	}

	if out := render(t, Layout("x", "", nil)); strings.Contains(out, "/logout") {
		t.Error("signed-out layout shows sign out")
	}
}

func TestEntry(t *testing.T) {
	out := render(t, Entry(EntryForm{Email: `a"b@example.com`, Error: "Invalid email or password"}))

	if !strings.Contains(out, `value="a&#34;b@example.com"`) {
		t.Errorf("email not escaped into value: %s", out)
	}
	if !strings.Contains(out, "Invalid email or password") {
		t.Error("error not rendered")
	}
	if !strings.Contains(out, `formaction="/signup"`) {
		t.Error("sign-up action missing")
	}
}

func TestUploadPage(t *testing.T) {
	out := render(t, UploadPage(10<<20, "File size must be less than 10MB"))
	for _, want := range []string{`data-max-size="10485760"`, "File size must be less than 10MB", "/api/upload", "EventSource"} {
		if !strings.Contains(out, want) {
			t.Errorf("upload page missing %q", want)
		}
	}
}

func TestStatCards_RenderEachColumn(t *testing.T) {
	mean := 4.5
	cards := core.StatCards([]api.ColumnStat{
		{Column: "a", Type: "int64", Stats: api.NumericStats{Mean: &mean}},
		{Column: "b", Type: "object", Stats: api.TextStats{}},
		{Column: "c", Type: "bool"},
	})
	out := render(t, ProfilePanel(ProfileView{SessionID: "s", Cards: cards, Preview: GridView{Source: "preview", SessionID: "s"}}))

	if n := strings.Count(out, `class="card stat-card"`); n != 3 {
		t.Errorf("rendered %d stat cards, want 3", n)
	}
	if !strings.Contains(out, "4.50") {
		t.Error("mean not rendered with two decimals")
	}
	if strings.Contains(out, `hx-trigger="load"`) {
		t.Error("authoritative panel triggers a reload")
	}
}

func TestProfilePage(t *testing.T) {
	out := render(t, ProfilePage("a b", nil))
	if !strings.Contains(out, `/partials/profile?session_id=a+b`) {
		t.Errorf("loading shell URL wrong: %s", out)
	}

	cached := &ProfileView{SessionID: "s1", Rows: 1200, Cached: true, Preview: GridView{Source: "preview"}}
	out = render(t, ProfilePage("s1", cached))
	for _, want := range []string{"1,200", "refreshing", `hx-trigger="load"`, "/result?session_id=s1"} {
		if !strings.Contains(out, want) {
			t.Errorf("cached page missing %q", want)
		}
	}
}

func TestGrid(t *testing.T) {
	table := preview.FromRecords([]api.Record{
		api.NewRecord([]string{"name", "age"}, []any{"ada", 36.0}),
		api.NewRecord([]string{"name", "age"}, []any{"<b>", 41.0}),
	})
	q := preview.Query{Sort: "age", Desc: true}
	g := GridView{Title: "Preview", Source: "preview", SessionID: "s", Page: table.View(q)}
	out := render(t, Grid(g))

	if strings.Contains(out, "<b>") {
		t.Error("cell not escaped")
	}
	if !strings.Contains(out, "age ▼") {
		t.Error("sort indicator missing")
	}
	if !strings.Contains(out, `name="filter[name]"`) {
		t.Error("filter input missing")
	}
	if !strings.Contains(out, "Page 1 of 1 · 2 rows") {
		t.Errorf("summary missing: %s", out)
	}
	if strings.Contains(out, ">Next<") || strings.Contains(out, ">Previous<") {
		t.Error("pager shown for a single page")
	}
}

func TestGrid_Empty(t *testing.T) {
	out := render(t, Grid(GridView{Title: "Cleaned", Source: "cleaned", Page: preview.FromRows(nil).View(preview.Query{})}))
	if !strings.Contains(out, "No data to display") {
		t.Errorf("empty grid = %s", out)
	}
}

func TestGridView_URL(t *testing.T) {
	g := GridView{Source: "cleaned", SessionID: "s 1"}
	got := g.URL(preview.Query{Sort: "0", Page: 2, Filters: map[string]string{"1": "x"}})
	want := "/partials/grid/cleaned?dir=asc&filter%5B1%5D=x&page=2&session_id=s+1&sort=0"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestResultPanel(t *testing.T) {
	v := ResultView{
		SessionID: "s",
		Summary: api.CleanSummary{
			RowsProcessed: 1500, RowsCleaned: 3,
			Transformations: []api.Transformation{{Column: "age", Action: "impute", Details: "median"}},
		},
		Logs:    []api.AuditLog{{Timestamp: "2024-01-02T03:04:05Z", Action: "clean", Details: "{}"}},
		Cleaned: GridView{Source: "cleaned", SessionID: "s"},
	}
	out := render(t, ResultPanel(v))
	for _, want := range []string{"1,500", "impute", "median", "2024-01-02 03:04:05", "/download?session_id=s"} {
		if !strings.Contains(out, want) {
			t.Errorf("result panel missing %q", want)
		}
	}
}

func TestFeaturesPanel(t *testing.T) {
	out := render(t, FeaturesPanel([]api.FeatureSuggestion{
		{Columns: []string{"a", "b"}, Type: "interaction", Reason: "correlated", Confidence: 0.8},
	}))
	for _, want := range []string{"a, b", "interaction", "correlated", "80% confidence"} {
		if !strings.Contains(out, want) {
			t.Errorf("features panel missing %q", want)
		}
	}
	if out := render(t, FeaturesPanel(nil)); !strings.Contains(out, "No suggestions") {
		t.Error("empty features panel")
	}
}

func TestRetryPanel(t *testing.T) {
	out := render(t, RetryPanel("profile", "Failed to load profile data", "PRF001"))
	if !strings.Contains(out, `href="/upload">Try again`) {
		t.Errorf("retry link missing: %s", out)
	}
}

func TestComponents_EscapeDynamicValues(t *testing.T) {
	const evil = `"><script>alert(1)</script>`
	table := preview.FromRecords([]api.Record{api.NewRecord([]string{evil}, []any{evil})})
	grid := GridView{Title: evil, Source: evil, SessionID: evil, Page: table.View(preview.Query{Sort: evil, Filters: map[string]string{evil: evil}})}
	card := core.StatCard{Column: evil, Kind: api.KindText, Fields: []core.StatField{{Label: evil, Value: evil}}}

	tests := []struct {
		name string
		c    templ.Component
	}{
		{"layout", Layout(evil, evil, nil)},
		{"entry", Entry(EntryForm{Email: evil, Error: evil, Notice: evil})},
		{"upload", UploadPage(1, evil)},
		{"error alert", ErrorAlert(evil, evil, evil)},
		{"retry panel", RetryPanel(evil, evil, evil)},
		{"grid", Grid(grid)},
		{"stat card", StatCard(card)},
		{"profile page", ProfilePage(evil, nil)},
		{"profile panel", ProfilePanel(ProfileView{SessionID: evil, Cards: []core.StatCard{card}, Preview: grid})},
		{"result page", ResultPage(evil)},
		{"result panel", ResultPanel(ResultView{
			SessionID: evil,
			Summary:   api.CleanSummary{Transformations: []api.Transformation{{Column: evil, Action: evil, Details: api.Text(evil)}}},
			Logs:      []api.AuditLog{{Timestamp: evil, Action: evil, Details: api.Text(evil)}},
			Cleaned:   grid,
		})},
		{"features", FeaturesPanel([]api.FeatureSuggestion{{Column: evil, Columns: []string{evil}, Type: evil, Parts: []string{evil}, Reason: evil, Suggestion: evil}})},
		{"features error", FeaturesError(evil, evil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, tt.c)
			if strings.Contains(out, "<script>alert") {
				t.Errorf("unescaped script tag: %s", out)
			}
			if strings.Contains(out, `"><`+"script") {
				t.Errorf("attribute break-out: %s", out)
			}
		})
	}
}
