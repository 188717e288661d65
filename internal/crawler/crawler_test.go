package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avollmer/marketpulse/internal/pagedriver"
	"github.com/avollmer/marketpulse/internal/record"
)

// MockDriver is a mock implementation of the pagedriver.Driver interface.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockDriver) Elements(ctx context.Context, selector string) ([]pagedriver.Element, error) {
	args := m.Called(ctx, selector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pagedriver.Element), args.Error(1)
}

func (m *MockDriver) Click(ctx context.Context, selector string) (bool, error) {
	args := m.Called(ctx, selector)
	return args.Bool(0), args.Error(1)
}

func (m *MockDriver) ClickUntil(ctx context.Context, selector, stopText string, maxClicks int) error {
	args := m.Called(ctx, selector, stopText, maxClicks)
	return args.Error(0)
}

func (m *MockDriver) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// fakeElement is a canned list entry.
type fakeElement struct {
	text     string
	attrs    map[string]string
	children map[string]pagedriver.Element
}

func (e *fakeElement) Text() string { return e.text }

func (e *fakeElement) Attr(name string) string { return e.attrs[name] }

func (e *fakeElement) First(selector string) (pagedriver.Element, bool) {
	child, ok := e.children[selector]
	return child, ok
}

// entry builds a category list item with an anchor and a count span.
func entry(label, href, count string) pagedriver.Element {
	return &fakeElement{
		children: map[string]pagedriver.Element{
			"a":    &fakeElement{text: label, attrs: map[string]string{"href": href}},
			"span": &fakeElement{text: count},
		},
	}
}

func testSource() Source {
	return Source{
		Name:    "freelance.de",
		BaseURL: "https://www.freelance.de",
		Selectors: Selectors{
			ListEntry: "#panel li",
			Anchor:    "a",
			Count:     "span",
		},
	}
}

func testTarget(maxDepth int) Target {
	return Target{
		DataType: DataTypeJobs,
		URL:      "https://www.freelance.de/projekte",
		Table:    record.TableProjects,
		MaxDepth: maxDepth,
	}
}

func categories(recs []record.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Category
	}
	return out
}

func TestCrawlerRun(t *testing.T) {
	t.Run("two level crawl", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		tgt := testTarget(2)

		driver.On("Navigate", mock.Anything, tgt.URL).Return(nil)
		driver.On("Navigate", mock.Anything, "https://www.freelance.de/projekte/java").Return(nil)
		driver.On("Elements", mock.Anything, "#panel li").Return([]pagedriver.Element{
			entry("Java (12)", "/projekte/java", "(12)"),
		}, nil).Once()
		driver.On("Elements", mock.Anything, "#panel li").Return([]pagedriver.Element{
			entry("Java Backend", "", "[7]"),
		}, nil).Once()

		recs, summary, err := New(driver, zap.NewNop()).Run(context.Background(), src, tgt)

		require.NoError(t, err)
		require.Equal(t, []string{"Java", "Java Backend"}, categories(recs))
		require.Equal(t, 12, recs[0].Num)
		require.Equal(t, "/projekte/java", recs[0].Href)
		require.Equal(t, 7, recs[1].Num)
		require.Equal(t, 2, summary.PagesVisited)
		require.Equal(t, 2, summary.Records)
		driver.AssertExpectations(t)
	})

	t.Run("all records share the run start day", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		tgt := testTarget(1)

		driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
		driver.On("Elements", mock.Anything, mock.Anything).Return([]pagedriver.Element{
			entry("Java", "", "1"),
			entry("SQL", "", "2"),
		}, nil)

		c := New(driver, zap.NewNop())
		c.now = func() time.Time {
			return time.Date(2026, time.August, 30, 23, 59, 58, 0, time.UTC)
		}
		recs, _, err := c.Run(context.Background(), src, tgt)

		require.NoError(t, err)
		for _, r := range recs {
			require.Equal(t, "2026-08-30", r.Day())
		}
	})

	t.Run("skips decorative entries", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		tgt := testTarget(1)

		noAnchor := &fakeElement{children: map[string]pagedriver.Element{
			"span": &fakeElement{text: "(3)"},
		}}
		noCount := &fakeElement{children: map[string]pagedriver.Element{
			"a": &fakeElement{text: "Alle Kategorien", attrs: map[string]string{"href": "/alle"}},
		}}

		driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
		driver.On("Elements", mock.Anything, mock.Anything).Return([]pagedriver.Element{
			noAnchor,
			entry("Java", "", "(4)"),
			noCount,
		}, nil)

		recs, _, err := New(driver, zap.NewNop()).Run(context.Background(), src, tgt)

		require.NoError(t, err)
		require.Equal(t, []string{"Java"}, categories(recs))
	})

	t.Run("malformed count coerces to zero", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		tgt := testTarget(1)

		driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
		driver.On("Elements", mock.Anything, mock.Anything).Return([]pagedriver.Element{
			entry("Foo", "", "abc"),
			entry("SQL", "", "[1.234]"),
		}, nil)

		recs, _, err := New(driver, zap.NewNop()).Run(context.Background(), src, tgt)

		require.NoError(t, err)
		require.Equal(t, 0, recs[0].Num)
		require.Equal(t, 1234, recs[1].Num)
	})

	t.Run("root navigation failure aborts the pass", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		tgt := testTarget(2)

		driver.On("Navigate", mock.Anything, tgt.URL).Return(errors.New("load failed"))

		recs, _, err := New(driver, zap.NewNop()).Run(context.Background(), src, tgt)

		require.Error(t, err)
		require.Nil(t, recs)
	})

	t.Run("subcategory failure keeps partial results", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		tgt := testTarget(2)

		roots := []pagedriver.Element{
			entry("Cat1", "/c/1", "1"),
			entry("Cat2", "/c/2", "2"),
			entry("Cat3", "/c/3", "3"),
			entry("Cat4", "/c/4", "4"),
			entry("Cat5", "/c/5", "5"),
		}
		driver.On("Navigate", mock.Anything, tgt.URL).Return(nil)
		driver.On("Elements", mock.Anything, mock.Anything).Return(roots, nil).Once()
		for i := 1; i <= 5; i++ {
			url := "https://www.freelance.de/c/" + string(rune('0'+i))
			if i == 3 {
				driver.On("Navigate", mock.Anything, url).Return(errors.New("boom"))
				continue
			}
			driver.On("Navigate", mock.Anything, url).Return(nil)
		}
		sub := func(name string) []pagedriver.Element {
			return []pagedriver.Element{entry(name, "", "9")}
		}
		driver.On("Elements", mock.Anything, mock.Anything).Return(sub("Sub5"), nil).Once()
		driver.On("Elements", mock.Anything, mock.Anything).Return(sub("Sub4"), nil).Once()
		driver.On("Elements", mock.Anything, mock.Anything).Return(sub("Sub2"), nil).Once()
		driver.On("Elements", mock.Anything, mock.Anything).Return(sub("Sub1"), nil).Once()

		recs, summary, err := New(driver, zap.NewNop()).Run(context.Background(), src, tgt)

		require.NoError(t, err)
		require.ElementsMatch(t,
			[]string{"Cat1", "Cat2", "Cat3", "Cat4", "Cat5", "Sub1", "Sub2", "Sub4", "Sub5"},
			categories(recs))
		require.Equal(t, 1, summary.BranchesSkipped)
	})

	t.Run("max depth bounds recursion", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		tgt := testTarget(1)

		driver.On("Navigate", mock.Anything, tgt.URL).Return(nil).Once()
		driver.On("Elements", mock.Anything, mock.Anything).Return([]pagedriver.Element{
			entry("Java", "/projekte/java", "12"),
		}, nil).Once()

		recs, _, err := New(driver, zap.NewNop()).Run(context.Background(), src, tgt)

		require.NoError(t, err)
		require.Equal(t, []string{"Java"}, categories(recs))
		// Entry at max depth is recorded but never expanded.
		driver.AssertNumberOfCalls(t, "Navigate", 1)
	})

	t.Run("expand control fires before extraction", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		src.Selectors.Expand = ".show-more-button"
		src.Selectors.ExpandStop = "weniger anzeigen"
		tgt := testTarget(1)

		driver.On("Navigate", mock.Anything, tgt.URL).Return(nil)
		driver.On("ClickUntil", mock.Anything, ".show-more-button", "weniger anzeigen", maxExpandClicks).Return(nil)
		driver.On("Elements", mock.Anything, mock.Anything).Return([]pagedriver.Element{}, nil)

		recs, _, err := New(driver, zap.NewNop()).Run(context.Background(), src, tgt)

		require.NoError(t, err)
		require.Empty(t, recs)
		driver.AssertCalled(t, "ClickUntil", mock.Anything, ".show-more-button", "weniger anzeigen", maxExpandClicks)
	})

	t.Run("failed expand click is tolerated", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		src.Selectors.Expand = "a.badge"
		tgt := testTarget(1)

		driver.On("Navigate", mock.Anything, tgt.URL).Return(nil)
		driver.On("Click", mock.Anything, "a.badge").Return(false, nil)
		driver.On("Elements", mock.Anything, mock.Anything).Return([]pagedriver.Element{
			entry("Java", "", "1"),
		}, nil)

		recs, _, err := New(driver, zap.NewNop()).Run(context.Background(), src, tgt)

		require.NoError(t, err)
		require.Len(t, recs, 1)
	})

	t.Run("consent handshake happens once per run", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		src.Selectors.Consent = "#cookie-accept"
		tgt := testTarget(1)

		driver.On("Navigate", mock.Anything, src.BaseURL).Return(nil).Once()
		driver.On("Click", mock.Anything, "#cookie-accept").Return(true, nil).Once()
		driver.On("Navigate", mock.Anything, tgt.URL).Return(nil).Twice()
		driver.On("Elements", mock.Anything, mock.Anything).Return([]pagedriver.Element{}, nil)

		c := New(driver, zap.NewNop())
		_, _, err := c.Run(context.Background(), src, tgt)
		require.NoError(t, err)
		_, _, err = c.Run(context.Background(), src, tgt)
		require.NoError(t, err)

		driver.AssertNumberOfCalls(t, "Click", 1)
	})

	t.Run("context cancellation returns partial results", func(t *testing.T) {
		driver := new(MockDriver)
		src := testSource()
		tgt := testTarget(2)

		ctx, cancel := context.WithCancel(context.Background())
		driver.On("Navigate", mock.Anything, tgt.URL).Return(nil)
		driver.On("Elements", mock.Anything, mock.Anything).
			Return([]pagedriver.Element{entry("Java", "/c/java", "1")}, nil).
			Run(func(mock.Arguments) { cancel() }).Once()

		recs, _, err := New(driver, zap.NewNop()).Run(ctx, src, tgt)

		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, []string{"Java"}, categories(recs))
	})
}

func TestSourceValidate(t *testing.T) {
	src := testSource()
	src.Targets = []Target{testTarget(2)}
	require.NoError(t, src.Validate())

	t.Run("missing selectors", func(t *testing.T) {
		bad := src
		bad.Selectors.ListEntry = ""
		require.Error(t, bad.Validate())
	})

	t.Run("missing target table", func(t *testing.T) {
		bad := src
		bad.Targets = []Target{{DataType: DataTypeJobs, URL: "https://x", MaxDepth: 2}}
		require.Error(t, bad.Validate())
	})

	t.Run("zero depth", func(t *testing.T) {
		bad := src
		bad.Targets = []Target{{DataType: DataTypeJobs, URL: "https://x", Table: "projects", MaxDepth: 0}}
		require.Error(t, bad.Validate())
	})
}

func TestResolveHref(t *testing.T) {
	src := testSource()
	require.Equal(t, "https://www.freelance.de/projekte/java", src.ResolveHref("/projekte/java"))
	require.Equal(t, "https://other.example/x", src.ResolveHref("https://other.example/x"))
	require.Equal(t, "", src.ResolveHref("   "))
}

func TestVisitTracker(t *testing.T) {
	tracker := newVisitTracker()
	require.True(t, tracker.MarkIfNew("https://example.org/a"))
	require.False(t, tracker.MarkIfNew("https://example.org/a"))
	require.True(t, tracker.MarkIfNew("https://example.org/b"))
	require.False(t, tracker.MarkIfNew(""))
}

func TestTimerPauseControllerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pauser := &timerPauseController{}
	start := time.Now()
	pauser.Pause(ctx, 5*time.Second)
	require.Less(t, time.Since(start), time.Second, "pause should exit immediately when context is done")
}
