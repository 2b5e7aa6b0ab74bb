package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/events"
	"github.com/lembar-pintar/studio/internal/listing"
)

type catalogue struct {
	mu    sync.Mutex
	items []domain.Item
	seen  []domain.ListingQuery
}

func newCatalogue(n int) *catalogue {
	c := &catalogue{}
	for i := 1; i <= n; i++ {
		c.items = append(c.items, domain.Item{ID: fmt.Sprintf("el-%02d", i), Title: fmt.Sprintf("Bintang %02d", i)})
	}
	return c
}

func (c *catalogue) Fetch(_ context.Context, q domain.ListingQuery) (domain.Page[domain.Item], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, q.Clone())
	var matched []domain.Item
	for _, it := range c.items {
		if q.SearchText == "" || strings.Contains(strings.ToLower(it.Title), strings.ToLower(q.SearchText)) {
			matched = append(matched, it)
		}
	}
	start := (q.Page - 1) * q.PageSize
	end := start + q.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	return domain.Page[domain.Item]{
		Items:       matched[start:end],
		CurrentPage: q.Page,
		TotalPages:  (len(matched) + q.PageSize - 1) / q.PageSize,
		TotalItems:  len(matched),
	}, nil
}

func (c *catalogue) last() domain.ListingQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen[len(c.seen)-1]
}

func settle(t *testing.T, m Model) Model {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.ctrl.Wait(ctx))
	next, _ := m.Update(changedMsg{})
	return next.(Model)
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	return next.(Model), cmd
}

func start(t *testing.T, cat *catalogue, opts ...Option) Model {
	t.Helper()
	ctrl := listing.New[domain.Item](cat, listing.WithPageSize(5))
	t.Cleanup(ctrl.Close)
	m := New(ctrl, opts...)
	m.Init()
	return settle(t, m)
}

func TestModelRendersFirstPage(t *testing.T) {
	m := start(t, newCatalogue(12), WithTitle("Elemen"))
	view := m.View()
	require.Contains(t, view, "Elemen")
	require.Contains(t, view, "Bintang 01")
	require.Contains(t, view, "Bintang 05")
	require.NotContains(t, view, "Bintang 06")
	require.Contains(t, view, "5 dari 12")
	require.Contains(t, view, "ctrl+n muat lebih banyak")
}

func TestModelTypingSearches(t *testing.T) {
	cat := newCatalogue(12)
	m := start(t, cat)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("bintang 1")})
	m = settle(t, m)
	require.Equal(t, "bintang 1", cat.last().SearchText)
	require.Len(t, m.ctrl.Snapshot().Items, 3)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m = settle(t, m)
	require.Equal(t, "bintang", cat.last().SearchText)
	require.Equal(t, "bintang ", m.search)
}

func TestModelEmptyState(t *testing.T) {
	m := start(t, newCatalogue(3))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("paus")})
	m = settle(t, m)
	require.Contains(t, m.View(), `Tidak ada hasil untuk "paus".`)
}

func TestModelTabCyclesFacets(t *testing.T) {
	cat := newCatalogue(3)
	set := domain.FacetOptionSet{
		Levels: []domain.EducationLevel{{Slug: "sd", Name: "SD"}, {Slug: "smp", Name: "SMP"}},
	}
	m := start(t, cat, WithChoices(Choices(set, "templates")))
	require.Contains(t, m.View(), "[Semua jenjang]")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = settle(t, m)
	require.Equal(t, map[string]string{domain.FacetLevel: "sd"}, cat.last().Facets)
	require.Contains(t, m.View(), "[SD]")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = settle(t, m)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = settle(t, m)
	require.Empty(t, cat.last().Facets)
	require.Contains(t, m.View(), "[Semua jenjang]")
}

func TestModelReachingBottomLoadsMore(t *testing.T) {
	m := start(t, newCatalogue(12))
	for i := 0; i < 4; i++ {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	m = settle(t, m)
	require.Len(t, m.ctrl.Snapshot().Items, 10)
	require.Equal(t, 4, m.cursor)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m = settle(t, m)
	s := m.ctrl.Snapshot()
	require.Len(t, s.Items, 12)
	require.False(t, s.HasMore)
	require.NotContains(t, m.View(), "ctrl+n muat lebih banyak")
}

func TestModelEnterSelects(t *testing.T) {
	var picked domain.Item
	m := start(t, newCatalogue(3), WithSelect(func(_ context.Context, it domain.Item) (string, error) {
		picked = it
		return "dipilih " + it.ID, nil
	}))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)
	require.Equal(t, "el-02", picked.ID)
	require.Contains(t, m.View(), "dipilih el-02")
}

func TestModelEnterPublishesSelection(t *testing.T) {
	bus := events.New(nil)
	var got []events.ItemSelected
	unsubscribe := events.Subscribe(bus, events.ItemSelectedTopic, func(e events.ItemSelected) { got = append(got, e) })
	defer unsubscribe()

	m := start(t, newCatalogue(2), WithBus(bus, "elements"))
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd, "no select func configured")
	require.Len(t, got, 1)
	require.Equal(t, "elements", got[0].Resource)
	require.Equal(t, "el-01", got[0].Item.ID)
}

func TestModelSelectErrorShown(t *testing.T) {
	m := start(t, newCatalogue(1), WithSelect(func(context.Context, domain.Item) (string, error) {
		return "", errors.New("template_not_found")
	}))
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	next, _ := m.Update(cmd())
	require.Contains(t, next.(Model).View(), "template_not_found")
}

func TestModelQuitClosesController(t *testing.T) {
	m := start(t, newCatalogue(3))
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	require.False(t, m.ctrl.LoadMore())
	require.ErrorIs(t, m.ctrl.FetchPage(context.Background(), 1, true), listing.ErrClosed)
}

func TestChoicesFilterCategoriesByResource(t *testing.T) {
	set := domain.FacetOptionSet{Categories: []domain.Category{
		{Slug: "hewan", Name: "Hewan", Resource: "elements"},
		{Slug: "alam", Name: "Alam", Resource: "photos"},
		{Slug: "umum", Name: "Umum"},
	}}
	got := Choices(set, "photos")
	require.Len(t, got, 3)
	require.Equal(t, "", got[0].Value)
	require.Equal(t, "alam", got[1].Value)
	require.Equal(t, "umum", got[2].Value)
}

func TestModelChangeWaiterReleasedOnQuit(t *testing.T) {
	m := start(t, newCatalogue(3))
	waiter := m.waitForChange()
	// Drain any pending change signal so the waiter can only return via close.
	select {
	case <-m.ctrl.Changes():
	default:
	}
	m.ctrl.Close()

	got := make(chan tea.Msg, 1)
	go func() { got <- waiter() }()
	select {
	case msg := <-got:
		require.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("change waiter still blocked after controller close")
	}
}
