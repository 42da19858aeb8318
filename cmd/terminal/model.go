package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/patchpilot/patchpilot/internal/app"
)

const asciiLogo = `
╔══════════════════════════════════════════════════════════╗
║                                                          ║
║   ██████╗  █████╗ ████████╗ ██████╗██╗  ██╗              ║
║   ██╔══██╗██╔══██╗╚══██╔══╝██╔════╝██║  ██║              ║
║   ██████╔╝███████║   ██║   ██║     ███████║              ║
║   ██╔═══╝ ██╔══██║   ██║   ██║     ██╔══██║              ║
║   ██║     ██║  ██║   ██║   ╚██████╗██║  ██║              ║
║   ╚═╝     ╚═╝  ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝              ║
║              P I L O T   AI PULL REQUEST REVIEWER        ║
║                                                          ║
╚══════════════════════════════════════════════════════════╝
`

type model struct {
	styles styles
	app    *app.App

	// UI Components
	viewport  viewport.Model
	textarea  textarea.Model
	spinner   spinner.Model
	isLoading bool

	// Session State
	lastPRURL string
	history   []string
	showLogo  bool
}

func initialModel(theme ThemeName) *model {
	styles := GetTheme(theme)
	ta := textarea.New()
	ta.Placeholder = "Enter /review [pr-url] or /help..."
	ta.Focus()
	ta.Prompt = styles.prompt.Render("► ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))

	return &model{
		styles:    styles,
		textarea:  ta,
		spinner:   sp,
		isLoading: true,
		showLogo:  true,
		history:   []string{styles.ascii.Render(asciiLogo), "", "⚙ INITIALIZING PATCHPILOT..."},
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(initializeAppCmd(), m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			m.textarea.Reset()
			return m, m.processCommand(input)
		}

	case appInitializedMsg:
		m.isLoading = false
		if msg.err != nil {
			fmt.Fprintf(os.Stderr, "ERROR initializing app: %v\n", msg.err)
			m.history = append(m.history, "", m.styles.error.Render(msg.err.Error()))
			m.refreshViewport()
			return m, nil
		}
		m.app = msg.app
		m.history = append(m.history, "", m.styles.success.Render("✓ SYSTEM ONLINE"))
		m.history = append(m.history, "", "Type /review [pr-url] to review a pull request, or /help for commands.")
		m.refreshViewport()
		return m, nil

	case reviewCompleteMsg:
		m.isLoading = false
		if msg.err != nil {
			m.history = append(m.history, "", m.styles.error.Render("REVIEW FAILED: "+msg.err.Error()))
			m.refreshViewport()
			return m, nil
		}
		header := fmt.Sprintf("✓ REVIEW COMPLETE: %s", msg.prTitle)
		if msg.posted {
			header = fmt.Sprintf("✓ REVIEW POSTED: %s (%d inline comments)", msg.prTitle, len(msg.comments))
		}
		m.history = append(m.history, "", m.styles.success.Render(header), msg.rendered)

		if !msg.posted && len(msg.comments) > 0 {
			var b strings.Builder
			b.WriteString(m.styles.prompt.Render(fmt.Sprintf("INLINE COMMENTS (%d):", len(msg.comments))))
			for _, c := range msg.comments {
				b.WriteString(fmt.Sprintf("\n  %s (position %d)\n  %s",
					m.styles.command.Render(c.Path), c.Position, c.Body))
			}
			m.history = append(m.history, b.String())
		}
		m.refreshViewport()
		return m, nil

	case historyLoadedMsg:
		m.isLoading = false
		if msg.err != nil {
			m.history = append(m.history, "", m.styles.error.Render("Could not load history: "+msg.err.Error()))
		} else if len(msg.records) == 0 {
			m.history = append(m.history, "", m.styles.inactive.Render("No stored reviews for this pull request."))
		} else {
			var b strings.Builder
			b.WriteString(m.styles.success.Render("REVIEW HISTORY:"))
			for _, r := range msg.records {
				sha := r.HeadSHA
				if len(sha) > 7 {
					sha = sha[:7]
				}
				b.WriteString(fmt.Sprintf("\n  #%d  %s  %s  %d inline  %s",
					r.ID, sha, r.Verdict, r.InlineComments, r.CreatedAt.Format("02 Jan 06 15:04")))
			}
			m.history = append(m.history, "", b.String())
		}
		m.refreshViewport()
		return m, nil

	case errorMsg:
		m.isLoading = false
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", msg.err)
		m.history = append(m.history, "", m.styles.error.Render("⚠ "+msg.err.Error()))
		m.refreshViewport()
		return m, nil

	case tea.WindowSizeMsg:
		m.styles.header.Width(msg.Width - 4)
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 10
		m.textarea.SetWidth(msg.Width - 10)
		m.viewport.SetContent(strings.Join(m.history, "\n"))
	}

	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m *model) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.history, "\n"))
	m.viewport.GotoBottom()
}

func (m *model) View() string {
	if m.app == nil {
		return fmt.Sprintf("\n  %s BOOTING SYSTEM...\n\n", m.spinner.View())
	}

	var statusParts []string
	if m.lastPRURL != "" {
		statusParts = append(statusParts, fmt.Sprintf("PR: %s", m.lastPRURL))
	} else {
		statusParts = append(statusParts, "PR: None")
	}

	if m.app.Cfg != nil {
		statusParts = append(statusParts, fmt.Sprintf("🤖 %s (%s)", m.app.Cfg.LLM.Model, m.app.Cfg.LLM.Provider))
		statusParts = append(statusParts, fmt.Sprintf("LAYOUT: %s", m.app.Cfg.Review.Layout))
	}

	status := m.styles.inactive.Render(strings.Join(statusParts, " │ "))

	var loadingIndicator string
	if m.isLoading {
		loadingIndicator = " " + m.spinner.View() + " " + m.styles.success.Render("PROCESSING...")
	}

	return m.styles.app.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.styles.viewport.Render(m.viewport.View()),
			"",
			m.styles.footer.Render(
				lipgloss.JoinHorizontal(lipgloss.Left,
					m.textarea.View(),
					loadingIndicator,
				),
			),
			status,
		),
	)
}

func (m *model) processCommand(input string) tea.Cmd {
	m.history = append(m.history, m.styles.prompt.Render("► ")+input)
	m.refreshViewport()

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}
	command := parts[0]
	args := parts[1:]

	switch command {
	case "/review", "/r":
		url := m.resolveURL(args)
		if url == "" {
			m.history = append(m.history, m.styles.error.Render("USAGE: /review [pr-url]"))
			m.refreshViewport()
			return nil
		}
		m.lastPRURL = url
		m.isLoading = true
		m.history = append(m.history, "", m.styles.command.Render("→ REVIEWING... (this may take a while)"))
		m.refreshViewport()
		return tea.Batch(m.spinner.Tick, runReviewCmd(m.app, url, false))

	case "/post":
		url := m.resolveURL(args)
		if url == "" {
			m.history = append(m.history, m.styles.error.Render("USAGE: /post [pr-url]"))
			m.refreshViewport()
			return nil
		}
		m.lastPRURL = url
		m.isLoading = true
		m.history = append(m.history, "", m.styles.command.Render("→ REVIEWING AND POSTING TO GITHUB..."))
		m.refreshViewport()
		return tea.Batch(m.spinner.Tick, runReviewCmd(m.app, url, true))

	case "/history":
		url := m.resolveURL(args)
		if url == "" {
			m.history = append(m.history, m.styles.error.Render("USAGE: /history [pr-url]"))
			m.refreshViewport()
			return nil
		}
		m.lastPRURL = url
		m.isLoading = true
		return tea.Batch(m.spinner.Tick, loadHistoryCmd(m.app, url))

	case "/help", "/h":
		helpText := m.styles.success.Render("AVAILABLE COMMANDS:") + `

  /review [pr-url]   Generate a review and render it in the terminal.
  /post [pr-url]     Generate a review and post it to GitHub.
  /history [pr-url]  Show stored reviews for a pull request.
  /help              Show this help message.
  /exit, /quit       Exit PatchPilot.

  ` + m.styles.inactive.Render("TIP: Pasting a PR URL on its own runs /review. Commands without a URL reuse the last one.")
		m.history = append(m.history, "", helpText)
		m.refreshViewport()
		return nil

	case "/exit", "/quit":
		return tea.Quit

	default:
		// A bare PR URL is treated as a review request.
		if strings.HasPrefix(input, "https://") || strings.HasPrefix(input, "http://") {
			return m.processCommand("/review " + input)
		}
		m.history = append(m.history, "", m.styles.error.Render(fmt.Sprintf("UNKNOWN COMMAND: %s", command)), m.styles.inactive.Render("Type /help for assistance."))
		m.refreshViewport()
		return nil
	}
}

// resolveURL returns the URL argument, falling back to the last reviewed PR.
func (m *model) resolveURL(args []string) string {
	if len(args) >= 1 {
		return args[0]
	}
	return m.lastPRURL
}
