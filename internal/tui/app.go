// Package tui provides the interactive Bubble Tea dashboard for tbidash.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/config"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/pipeline"
	"github.com/theirongolddev/tbidash/internal/tui/components"
	"github.com/theirongolddev/tbidash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// LoadFunc loads the dataset, reporting progress through progressFn.
type LoadFunc func(ctx context.Context, progressFn pipeline.ProgressFunc) (*model.Dataset, error)

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Dataset  *model.Dataset
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// ReloadedMsg is sent when a manual reload finishes.
type ReloadedMsg struct {
	Dataset  *model.Dataset
	LoadTime time.Duration
	Err      error
}

// Options configures a new App.
type Options struct {
	Load        LoadFunc
	Config      config.Config
	Recruitment map[string]int64
	Filter      pipeline.Filter
	NeedSetup   bool
}

// App is the root Bubble Tea model.
type App struct {
	load        LoadFunc
	cfg         config.Config
	recruitment map[string]int64

	// Data
	dataset  *model.Dataset
	loaded   bool
	loadErr  error
	loadTime time.Duration
	loadedAt time.Time

	// Derived from dataset and filter
	filter    pipeline.Filter
	years     []int
	view      *model.Dataset
	ageProps  model.ProportionTable
	yearProps model.ProportionTable
	mechDists []model.Distribution
	services  []model.ServiceStats
	summaries []model.TableSummary

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	reloading bool
	explore   exploreState

	// First-run setup
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool
	setupErr  error

	// Loading
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 90
	maxContentWidth  = 160
	minContentHeight = 5
)

// NewApp creates the TUI model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	recruitment := opts.Recruitment
	if recruitment == nil {
		recruitment = config.Recruitment(opts.Config)
	}

	return App{
		load:        opts.Load,
		cfg:         opts.Config,
		recruitment: recruitment,
		filter:      opts.Filter,
		needSetup:   opts.NeedSetup,
		explore:     newExploreState(),
		spinner:     sp,
		loadSub:     make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.load, a.loadSub),
		a.spinner.Tick,
	)
}

// setDataset installs a freshly loaded dataset and recomputes the views.
func (a *App) setDataset(ds *model.Dataset) {
	a.dataset = ds
	a.loadedAt = time.Now()
	a.years = nil
	if ds != nil {
		a.years = pipeline.Years(ds.Year)
	}
	a.recompute()
}

func (a *App) recompute() {
	ds := pipeline.FilterDataset(a.dataset, a.filter)
	a.view = ds
	if ds == nil {
		ds = &model.Dataset{}
	}
	a.ageProps = pipeline.AgeTypeProportions(ds.Age)
	a.yearProps = pipeline.YearTypeProportions(ds.Year)
	a.mechDists = pipeline.MechanismRateDistributions(ds.Age)
	a.services = pipeline.ServiceNormalized(ds.Military, a.recruitment)
	a.summaries = pipeline.Summarize(a.dataset)
	a.explore.clamp(a.dataset)
}

// cycleYear steps the year filter through "all" and each known year.
func (a *App) cycleYear(step int) {
	if len(a.years) == 0 {
		return
	}
	idx := -1
	for i, y := range a.years {
		if y == a.filter.Year {
			idx = i
		}
	}
	idx += step
	switch {
	case idx < -1:
		idx = len(a.years) - 1
	case idx >= len(a.years):
		idx = -1
	}
	if idx == -1 {
		a.filter.Year = 0
	} else {
		a.filter.Year = a.years[idx]
	}
	a.recompute()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabExplore {
				a.explore.scroll(1, a.dataset)
			}
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabExplore {
				a.explore.scroll(-1, a.dataset)
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}
		return a.handleKey(key)

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.setDataset(msg.Dataset)
		}
		if a.needSetup {
			a.setupForm = newSetupForm(a.cfg, a.totalRows(), &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ReloadedMsg:
		a.reloading = false
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.setDataset(msg.Dataset)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) handleKey(key string) (tea.Model, tea.Cmd) {
	if a.activeTab == tabExplore {
		if handled := a.explore.handleKey(key, a.dataset); handled {
			return a, nil
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.reloading {
			a.reloading = true
			return a, reloadDataCmd(a.load)
		}
		return a, nil
	case "]":
		a.cycleYear(1)
		return a, nil
	case "[":
		a.cycleYear(-1)
		return a, nil
	case "0":
		a.filter.Year = 0
		a.recompute()
		return a, nil
	case "left", "h", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "l", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupErr = a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) totalRows() int {
	return a.dataset.Rows(model.KindAge) + a.dataset.Rows(model.KindYear) + a.dataset.Rows(model.KindMilitary)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  tbidash needs at least %d columns.\n",
		a.width, minTerminalWidth)
	h := max(a.height, 5)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ tbidash"))
	b.WriteString(subtitleStyle.Render(" · Traumatic Brain Injury in the USA"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())

	if a.progressMax > 0 {
		barW := min(max(a.width-40, 20), 40)
		b.WriteString(subtitleStyle.Render(" Parsing tables\n\n"))
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(fmt.Sprintf("%d / %d files", a.progress, a.progressMax)))
	} else {
		b.WriteString(subtitleStyle.Render(" Locating data files..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"i e a m t y c", "Jump to tab"},
			{"← → / tab", "Previous / next tab"},
			{"click", "Select tab"},
		}},
		{"Filters", [][2]string{
			{"[ ]", "Previous / next year"},
			{"0", "All years"},
		}},
		{"Explore", [][2]string{
			{"d", "Next dataset"},
			{"+ -", "More / fewer rows"},
			{"j k", "Scroll rows"},
		}},
		{"Actions", [][2]string{
			{"r", "Reload data files"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, kb := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-14s", kb[0])), descStyle.Render(kb[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	filterStr := pill.Render(" year ") + accent.Render(a.yearLabel())
	if a.filter.Type != "" {
		filterStr += pill.Render(" │ type ") + accent.Render(a.filter.Type)
	}
	if a.filter.Service != "" {
		filterStr += pill.Render(" │ service ") + accent.Render(a.filter.Service)
	}
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filterStr)

	status := fmt.Sprintf("%s rows · loaded in %.1fs", cli.FormatNumber(int64(a.totalRows())), a.loadTime.Seconds())
	if a.setupErr != nil {
		status = "could not save config: " + a.setupErr.Error()
	}
	if a.loadErr != nil {
		status = "load failed: " + a.loadErr.Error()
	}
	statusBar := components.RenderStatusBar(w, status, a.reloading)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil && a.dataset == nil:
		content = components.ContentCard("Could not load data", a.loadErr.Error(), cw)
	default:
		content = a.renderTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	out := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, out,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) yearLabel() string {
	if a.filter.Year == 0 {
		return "all"
	}
	return fmt.Sprint(a.filter.Year)
}

// ─── Helpers ────────────────────────────────────────────────────

// loadDataCmd runs the loader in a goroutine and streams ProgressMsg updates
// followed by a DataLoadedMsg through sub.
func loadDataCmd(load LoadFunc, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			// Non-blocking: a dropped update is superseded by the next one.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}
			if load == nil {
				sub <- DataLoadedMsg{Err: fmt.Errorf("no data loader configured")}
				return
			}
			ds, err := load(context.Background(), progressFn)
			sub <- DataLoadedMsg{Dataset: ds, LoadTime: time.Since(start), Err: err}
		}()
		return <-sub
	}
}

// waitForLoadMsg blocks until the loader goroutine sends its next message.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// reloadDataCmd reloads without progress reporting.
func reloadDataCmd(load LoadFunc) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		if load == nil {
			return ReloadedMsg{Err: fmt.Errorf("no data loader configured")}
		}
		ds, err := load(context.Background(), nil)
		return ReloadedMsg{Dataset: ds, LoadTime: time.Since(start), Err: err}
	}
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab under column x, or -1. It walks the same widths
// RenderTabBar draws, with a one-column separator between tabs.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1
	}
	return -1
}
