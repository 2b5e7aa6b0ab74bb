package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/client"
	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/events"
	"github.com/lembar-pintar/studio/internal/facets"
	"github.com/lembar-pintar/studio/internal/listing"
	"github.com/lembar-pintar/studio/internal/tui"
)

func main() {
	var (
		baseURL  string
		token    string
		resource string
		search   string
		pageSize int
		debounce time.Duration
	)
	flag.StringVar(&baseURL, "api", envOr("STUDIO_API_URL", "http://localhost:8080"), "studio backend base URL")
	flag.StringVar(&token, "token", os.Getenv("STUDIO_TOKEN"), "bearer token")
	flag.StringVar(&resource, "resource", "elements", "elements, templates or photos")
	flag.StringVar(&search, "search", "", "initial search text")
	flag.IntVar(&pageSize, "limit", 20, "page size")
	flag.DurationVar(&debounce, "debounce", 300*time.Millisecond, "search debounce window")
	flag.Parse()

	if err := run(baseURL, token, resource, search, pageSize, debounce); err != nil {
		fmt.Fprintf(os.Stderr, "browse: %v\n", err)
		os.Exit(1)
	}
}

func run(baseURL, token, resource, search string, pageSize int, debounce time.Duration) error {
	// The alternate screen owns stdout; logs go nowhere.
	logger := zap.NewNop()

	c, err := client.New(baseURL, client.WithToken(token), client.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	set, err := c.Facets(ctx)
	if err != nil {
		return fmt.Errorf("load facets: %w", err)
	}

	var (
		fetcher listing.Fetcher[domain.Item]
		title   string
		pick    tui.SelectFunc
		opts    = []listing.Option{
			listing.WithPageSize(pageSize),
			listing.WithDebounce(debounce),
			listing.WithContext(ctx),
			listing.WithLogger(logger),
			listing.WithInitialQuery(search, nil),
		}
	)
	switch resource {
	case "elements":
		fetcher = client.ItemFetcher[domain.Element](c, client.Elements)
		title = "Elemen"
		pick = func(ctx context.Context, item domain.Item) (string, error) {
			el, err := c.ElementDetail(ctx, item.ID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s · %s · %dx%d", el.Title, el.SourceURL, el.Width, el.Height), nil
		}
	case "templates":
		fetcher = client.ItemFetcher[domain.Template](c, client.Templates)
		title = "Template"
		opts = append(opts, listing.WithDependentFacets(facets.DependentRules(set)...))
		pick = func(ctx context.Context, item domain.Item) (string, error) {
			doc, err := c.LoadTemplate(ctx, item.ID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s dimuat (%d byte)", item.Title, len(doc)), nil
		}
	case "photos":
		fetcher = client.ItemFetcher[domain.Photo](c, client.Photos)
		title = "Foto"
		pick = func(_ context.Context, item domain.Item) (string, error) {
			return item.Title + " · " + item.PreviewURL, nil
		}
	default:
		return fmt.Errorf("unknown resource %q", resource)
	}

	ctrl := listing.New[domain.Item](fetcher, opts...)
	defer ctrl.Close()

	bus := events.New(logger)
	var last *events.ItemSelected
	unsubscribe := events.Subscribe(bus, events.ItemSelectedTopic, func(e events.ItemSelected) { last = &e })
	defer unsubscribe()

	model := tui.New(ctrl,
		tui.WithTitle(title),
		tui.WithChoices(tui.Choices(set, resource)),
		tui.WithSelect(pick),
		tui.WithBus(bus, resource),
	)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	// Print the last pick as "id<TAB>title".
	if last != nil {
		fmt.Printf("%s\t%s\n", last.Item.ID, last.Item.Title)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
