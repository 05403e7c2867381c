package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/swatches/internal/page"
	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
)

func testScan() *palette.Scan {
	return &palette.Scan{
		Website: "example.com",
		Colors: []palette.Element{
			{Node: "li.a", Color: "rgb(255, 0, 0)", CSS: "background-color"},
			{Node: "li.b", Color: "rgb(255, 0, 0)", CSS: "background-color"},
			{Node: "li.c", Color: "rgb(0, 0, 255)", CSS: "background-color"},
			{Node: "div.d", Color: "rgb(255, 0, 0)", CSS: "background"},
		},
	}
}

// flakyPage wraps a document and can be told to fail or block scans.
type flakyPage struct {
	*page.Document

	mu       sync.Mutex
	scanErr  error
	applyErr error
	applies  int
	scans    int
	gate     chan struct{}
	entered  chan struct{}
}

func newFlakyPage() *flakyPage {
	return &flakyPage{Document: page.NewDocument(testScan())}
}

func (f *flakyPage) Scan(ctx context.Context) (*palette.Scan, error) {
	f.mu.Lock()
	f.scans++
	gate, entered, err := f.gate, f.entered, f.scanErr
	f.mu.Unlock()

	if gate != nil {
		close(entered)
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return f.Document.Scan(ctx)
}

func (f *flakyPage) Apply(ctx context.Context, req substitute.Request) error {
	f.mu.Lock()
	f.applies++
	err := f.applyErr
	f.mu.Unlock()

	if err != nil {
		return err
	}
	return f.Document.Apply(ctx, req)
}

func (f *flakyPage) failScans(err error) {
	f.mu.Lock()
	f.scanErr = err
	f.mu.Unlock()
}

func TestRefreshAllCategories(t *testing.T) {
	c := New(newFlakyPage())

	if c.Palette().Len() != 0 {
		t.Fatalf("initial palette Len() = %d, want 0", c.Palette().Len())
	}

	p, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if p.InspectedSite != "example.com" {
		t.Errorf("InspectedSite = %q, want example.com", p.InspectedSite)
	}
	if len(p.Elements) != 4 {
		t.Errorf("len(Elements) = %d, want 4", len(p.Elements))
	}
	if p.Counts[0].Colour != "rgb(255, 0, 0)" || p.Counts[0].Count != 3 {
		t.Errorf("Counts[0] = %+v, want red x3", p.Counts[0])
	}
	if c.Palette() != p {
		t.Error("Palette() does not return the refreshed palette")
	}
}

func TestSetFilter(t *testing.T) {
	ctx := context.Background()
	c := New(newFlakyPage())

	p, err := c.SetFilter(ctx, palette.NewFilter("background"))
	if err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}
	if len(p.Elements) != 1 || p.Elements[0].Node != "div.d" {
		t.Errorf("Elements = %+v, want only div.d", p.Elements)
	}
	if !c.Filter().Has("background") {
		t.Error("Filter() lost the configured category")
	}

	p, err = c.SetFilter(ctx, palette.NewFilter())
	if err != nil {
		t.Fatalf("SetFilter(empty) error = %v", err)
	}
	if p.Len() != 0 || p.InspectedSite != "example.com" {
		t.Errorf("empty filter palette = %+v", p)
	}

	p, err = c.SetFilter(ctx, nil)
	if err != nil {
		t.Fatalf("SetFilter(nil) error = %v", err)
	}
	if len(p.Elements) != 4 {
		t.Errorf("nil filter len(Elements) = %d, want 4", len(p.Elements))
	}
}

func TestRefreshFailureKeepsPalette(t *testing.T) {
	ctx := context.Background()
	pg := newFlakyPage()
	c := New(pg)

	before, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	boom := errors.New("tab closed")
	pg.failScans(boom)

	_, err = c.Refresh(ctx)
	var scanErr *ScanError
	if !errors.As(err, &scanErr) {
		t.Fatalf("Refresh() error = %v, want *ScanError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Refresh() error does not wrap the transport error")
	}
	if scanErr.RunID == "" {
		t.Error("ScanError.RunID is empty")
	}
	if c.Palette() != before {
		t.Error("palette changed after a failed scan")
	}
	if c.Busy() {
		t.Error("Busy() = true after failed refresh")
	}
}

func TestSubstitute(t *testing.T) {
	ctx := context.Background()
	pg := newFlakyPage()
	c := New(pg, WithFilter(palette.NewFilter("background-color")))

	if _, err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	result, err := c.Substitute(ctx, "rgb(255, 0, 0)", "#00ff00")
	if err != nil {
		t.Fatalf("Substitute() error = %v", err)
	}

	// The unfiltered scan is sent, so div.d under "background" is edited too.
	if len(result.Edits) != 3 {
		t.Errorf("len(Edits) = %d, want 3", len(result.Edits))
	}
	if len(result.Request.UserFilteredElements) != 4 {
		t.Errorf("request carried %d elements, want 4", len(result.Request.UserFilteredElements))
	}

	p := c.Palette()
	if p.Counts[0].Colour != "rgb(0, 255, 0)" || p.Counts[0].Count != 2 {
		t.Errorf("Counts[0] after substitute = %+v, want rgb(0, 255, 0) x2", p.Counts[0])
	}
}

func TestSubstituteWithoutPriorScan(t *testing.T) {
	pg := newFlakyPage()
	c := New(pg)

	result, err := c.Substitute(context.Background(), "rgb(0, 0, 255)", "white")
	if err != nil {
		t.Fatalf("Substitute() error = %v", err)
	}
	if len(result.Edits) != 1 {
		t.Errorf("len(Edits) = %d, want 1", len(result.Edits))
	}
	if c.LastScan() == nil {
		t.Error("LastScan() = nil after substitute")
	}
}

func TestSubstituteInvalidColour(t *testing.T) {
	ctx := context.Background()
	pg := newFlakyPage()
	c := New(pg)

	before, _ := c.Refresh(ctx)

	for _, input := range []string{"#12", "blue-ish", "rgb(1,2,3)", ""} {
		_, err := c.Substitute(ctx, "rgb(255, 0, 0)", input)
		if !errors.Is(err, substitute.ErrInvalidColour) {
			t.Errorf("Substitute(%q) error = %v, want ErrInvalidColour", input, err)
		}
	}

	if pg.applies != 0 {
		t.Errorf("page received %d applies, want 0", pg.applies)
	}
	if c.Palette() != before {
		t.Error("palette changed after rejected input")
	}
}

func TestSubstituteInvalidColourWithoutPriorScan(t *testing.T) {
	pg := newFlakyPage()
	c := New(pg)

	_, err := c.Substitute(context.Background(), "rgb(255, 0, 0)", "nope")
	if !errors.Is(err, substitute.ErrInvalidColour) {
		t.Fatalf("Substitute() error = %v, want ErrInvalidColour", err)
	}

	if pg.scans != 0 {
		t.Errorf("page received %d scans, want 0", pg.scans)
	}
	if pg.applies != 0 {
		t.Errorf("page received %d applies, want 0", pg.applies)
	}
	if c.LastScan() != nil {
		t.Error("LastScan() set after rejected input")
	}
}

func TestSubstituteApplyError(t *testing.T) {
	ctx := context.Background()
	pg := newFlakyPage()
	c := New(pg)
	before, _ := c.Refresh(ctx)

	pg.applyErr = errors.New("read-only stylesheet")
	if _, err := c.Substitute(ctx, "rgb(255, 0, 0)", "#fff"); err == nil {
		t.Fatal("Substitute() expected error")
	}
	if c.Palette() != before {
		t.Error("palette changed after failed apply")
	}
}

func TestBusyGuard(t *testing.T) {
	pg := newFlakyPage()

	var mu sync.Mutex
	var states []bool
	c := New(pg, WithOnLoading(func(on bool) {
		mu.Lock()
		states = append(states, on)
		mu.Unlock()
	}))

	gate := make(chan struct{})
	entered := make(chan struct{})
	pg.mu.Lock()
	pg.gate, pg.entered = gate, entered
	pg.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background())
		errc <- err
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh never reached the page")
	}

	if !c.Busy() {
		t.Error("Busy() = false while a refresh is running")
	}
	if _, err := c.Refresh(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Refresh() error = %v, want ErrBusy", err)
	}
	if _, err := c.Substitute(context.Background(), "red", "blue"); !errors.Is(err, ErrBusy) {
		t.Errorf("Substitute() error = %v, want ErrBusy", err)
	}

	pg.mu.Lock()
	pg.gate = nil
	pg.mu.Unlock()
	close(gate)

	if err := <-errc; err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}
	if c.Busy() {
		t.Error("Busy() = true after refresh finished")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || !states[0] || states[1] {
		t.Errorf("loading states = %v, want [true false]", states)
	}
}
