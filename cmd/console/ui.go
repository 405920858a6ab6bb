package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/jwebster45206/chronicle/pkg/chat"
	"github.com/jwebster45206/chronicle/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

const (
	AgentName       = "Archivist"
	PlaceHolderText = "Press 1-9 to choose, type your own action, or /help..."

	weavingLabel   = "The Loom is weaving..."
	askingLabel    = "The Archivist consults the records..."
	resettingLabel = "Returning to Origin..."
)

const helpText = `Commands:
• 1-9 - Choose a numbered option
• <text> + Enter - Attempt your own action
• /ask <question> - Ask the Archivist about the world
• /save <path> - Save the current illustration
• /copy - Copy the story text to the clipboard
• /reset - Return to Origin and pick a new theme
• /help - Show this help
• /quit - Quit`

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	adventure    *Adventure
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	width        int
	height       int
	err          error
	notice       string

	// In-flight request state. Start, choose and reset share the loading
	// path; questions to the Archivist run on their own. Each path keeps its
	// request so it can be replayed after a key is selected.
	loading      bool
	loadingLabel string
	retry        tea.Cmd
	asking       bool
	askRetry     tea.Cmd
	progressTick int

	// Theme selection state
	showThemeModal bool
	loadingThemes  bool
	themes         []string
	sizes          []state.ImageSize
	selectedTheme  int
	selectedSize   int

	// Credential prompt state
	showKeyModal bool
	keyInput     textinput.Model
	keyErr       error

	// Quit confirmation state
	showQuitModal bool
}

type themesLoadedMsg struct {
	themes *ThemesResponse
	err    error
}

type adventureMsg struct {
	adventure *Adventure
	err       error
}

type resetMsg struct {
	adventure *Adventure
	err       error
}

type chatReplyMsg struct {
	response *chat.ChatResponse
	err      error
}

type keySelectedMsg struct {
	err error
}

type savedMsg struct {
	path  string
	bytes int
	err   error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	ki := textinput.New()
	ki.Placeholder = "API key"
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '•'
	ki.CharLimit = 200

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		textarea:       ta,
		keyInput:       ki,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		showThemeModal: true,
		loadingThemes:  true,
		sizes:          []state.ImageSize{state.DefaultImageSize},
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadThemes()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Results and resizes are handled regardless of which screen is up.
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case progressTickMsg:
		if m.busy() {
			m.progressTick++
			m.refresh()
			return m, progressTick()
		}
		return m, nil

	case themesLoadedMsg:
		m.loadingThemes = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.themes = msg.themes.Themes
		if len(msg.themes.ImageSizes) > 0 {
			m.sizes = m.sizes[:0]
			for _, opt := range msg.themes.ImageSizes {
				m.sizes = append(m.sizes, opt.Size)
			}
		}
		for i, s := range m.sizes {
			if s == msg.themes.DefaultImageSize {
				m.selectedSize = i
			}
		}
		return m, nil

	case adventureMsg:
		m.loading = false
		if msg.err != nil {
			return m.handleError(msg.err, false)
		}
		m.retry = nil
		m.err = nil
		m.adventure = msg.adventure
		m.showThemeModal = false
		m.textarea.Focus()
		m.refresh()
		return m, textarea.Blink

	case resetMsg:
		m.loading = false
		if msg.err != nil {
			return m.handleError(msg.err, false)
		}
		m.retry = nil
		m.err = nil
		m.notice = ""
		m.adventure = msg.adventure
		m.showThemeModal = true
		m.refresh()
		return m, nil

	case chatReplyMsg:
		m.asking = false
		if msg.err != nil {
			return m.handleError(msg.err, true)
		}
		m.askRetry = nil
		m.err = nil
		if m.adventure != nil {
			m.adventure.Chat = msg.response.ChatHistory
		}
		m.refresh()
		return m, nil

	case keySelectedMsg:
		if msg.err != nil {
			m.keyErr = msg.err
			return m, nil
		}
		m.keyErr = nil
		m.showKeyModal = false
		m.keyInput.Reset()
		m.keyInput.Blur()
		m.textarea.Focus()
		// Replay whichever requests stopped for the key; in-flight ones are left alone.
		var cmds []tea.Cmd
		if m.retry != nil && !m.loading {
			cmds = append(cmds, m.dispatch(m.loadingLabel, m.retry))
		}
		if m.askRetry != nil && !m.asking {
			cmds = append(cmds, m.dispatchAsk(m.askRetry))
		}
		return m, tea.Batch(cmds...)

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.notice = fmt.Sprintf("Illustration saved to %s (%d bytes).", msg.path, msg.bytes)
		}
		m.refresh()
		return m, nil
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showKeyModal {
		return m.updateKeyModal(msg)
	}
	if m.showThemeModal {
		return m.updateThemeModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		}

		// Choices wait for the story in flight; commands and typing do not.
		if n, ok := choiceKey(key); ok && strings.TrimSpace(m.textarea.Value()) == "" {
			if choices := m.availableChoices(); !m.loading && n <= len(choices) {
				return m, m.submitChoice(choices[n-1])
			}
			return m, nil
		}

		if key.Type == tea.KeyEnter {
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			if m.loading {
				return m, nil
			}
			return m.handleAction(input)
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// choiceKey reports the digit 1-9 a key press stands for.
func choiceKey(key tea.KeyMsg) (int, bool) {
	if key.Type != tea.KeyRunes || len(key.Runes) != 1 {
		return 0, false
	}
	r := key.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '0'), true
}

func (m ConsoleUI) availableChoices() []string {
	if m.adventure == nil {
		return nil
	}
	return m.adventure.GameState.AvailableChoices()
}

// busy reports whether any request is in flight.
func (m ConsoleUI) busy() bool {
	return m.loading || m.asking
}

func (m ConsoleUI) gameOver() bool {
	return m.adventure != nil && m.adventure.GameState != nil && m.adventure.GameState.IsGameOver
}

// handleError routes a failed request: a missing key opens the key prompt
// and keeps the request for replay, anything else is shown inline. ask
// selects the /ask path over the story path.
func (m ConsoleUI) handleError(err error, ask bool) (tea.Model, tea.Cmd) {
	if needsCredential(err) {
		if m.showKeyModal {
			return m, nil
		}
		m.showKeyModal = true
		m.keyErr = nil
		m.keyInput.Reset()
		m.textarea.Blur()
		return m, m.keyInput.Focus()
	}
	if ask {
		m.askRetry = nil
	} else {
		m.retry = nil
	}
	m.err = err
	m.refresh()
	return m, nil
}

// handleAction submits typed text: a number picks that choice, anything
// else is attempted as a free-form action.
func (m ConsoleUI) handleAction(input string) (tea.Model, tea.Cmd) {
	if m.adventure == nil || m.adventure.GameState == nil {
		m.err = errors.New("no adventure in progress, use /reset to begin")
		m.refresh()
		return m, nil
	}
	if m.gameOver() {
		m.textarea.Reset()
		m.err = errors.New("this adventure has ended, Return to Origin (/reset)")
		m.refresh()
		return m, nil
	}
	if n, err := strconv.Atoi(input); err == nil {
		choices := m.availableChoices()
		if n < 1 || n > len(choices) {
			m.err = fmt.Errorf("choose a number between 1 and %d", len(choices))
			m.refresh()
			return m, nil
		}
		input = choices[n-1]
	}
	return m, m.submitChoice(input)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	m.textarea.Reset()
	m.err = nil
	m.notice = ""

	switch strings.ToLower(cmd) {
	case "/help":
		m.notice = helpText

	case "/ask":
		if arg == "" {
			m.err = errors.New("usage: /ask <question>")
			break
		}
		if m.adventure == nil || m.adventure.GameState == nil {
			m.err = errors.New("the Archivist only speaks once an adventure has begun")
			break
		}
		if m.asking {
			m.err = errors.New("the Archivist is still answering your last question")
			break
		}
		m.adventure.Chat = append(m.adventure.Chat, chat.NewUserMessage(arg))
		return m, m.dispatchAsk(m.askCmd(arg))

	case "/save":
		if arg == "" {
			m.err = errors.New("usage: /save <path>")
			break
		}
		if m.adventure == nil {
			m.err = errors.New("no illustration to save")
			break
		}
		return m, m.saveCmd(arg)

	case "/copy":
		if m.adventure == nil || m.adventure.GameState == nil {
			m.err = errors.New("no story to copy")
			break
		}
		if err := clipboard.WriteAll(m.adventure.GameState.StoryText); err != nil {
			m.err = fmt.Errorf("failed to copy to clipboard: %w", err)
			break
		}
		m.notice = "Story copied to clipboard."

	case "/reset":
		if m.adventure == nil {
			m.showThemeModal = true
			break
		}
		if m.loading {
			m.err = errors.New("wait for the Loom to finish before returning to Origin")
			break
		}
		return m, m.dispatch(resettingLabel, m.resetCmd())

	case "/quit":
		return m, tea.Quit

	default:
		m.err = fmt.Errorf("unknown command %s, type /help", cmd)
	}

	m.refresh()
	return m, nil
}

// dispatch runs a start, choose or reset request with the progress animation.
func (m *ConsoleUI) dispatch(label string, cmd tea.Cmd) tea.Cmd {
	ticking := m.busy()
	m.loading = true
	m.loadingLabel = label
	m.retry = cmd
	return m.withProgress(ticking, cmd)
}

// dispatchAsk runs a question to the Archivist alongside any story request.
func (m *ConsoleUI) dispatchAsk(cmd tea.Cmd) tea.Cmd {
	ticking := m.busy()
	m.asking = true
	m.askRetry = cmd
	return m.withProgress(ticking, cmd)
}

// withProgress starts the progress animation unless one is already running.
func (m *ConsoleUI) withProgress(ticking bool, cmd tea.Cmd) tea.Cmd {
	m.refresh()
	if ticking {
		return cmd
	}
	m.progressTick = 0
	return tea.Batch(cmd, progressTick())
}

func (m *ConsoleUI) submitChoice(choice string) tea.Cmd {
	m.textarea.Reset()
	m.err = nil
	m.notice = ""
	client, baseURL, id := m.client, m.config.APIBaseURL, m.adventure.ID
	return m.dispatch(weavingLabel, func() tea.Msg {
		adv, err := choose(client, baseURL, id, choice)
		return adventureMsg{adventure: adv, err: err}
	})
}

func (m ConsoleUI) askCmd(question string) tea.Cmd {
	client, baseURL, id := m.client, m.config.APIBaseURL, m.adventure.ID
	return func() tea.Msg {
		resp, err := ask(client, baseURL, id, question)
		return chatReplyMsg{response: resp, err: err}
	}
}

func (m ConsoleUI) resetCmd() tea.Cmd {
	client, baseURL, id := m.client, m.config.APIBaseURL, m.adventure.ID
	return func() tea.Msg {
		adv, err := resetAdventure(client, baseURL, id)
		return resetMsg{adventure: adv, err: err}
	}
}

// startCmd starts a new adventure, reusing the current session after a reset.
// An expired session falls back to creating a fresh one.
func (m ConsoleUI) startCmd(theme string, size state.ImageSize) tea.Cmd {
	client, baseURL := m.client, m.config.APIBaseURL
	id := uuid.Nil
	if m.adventure != nil {
		id = m.adventure.ID
	}
	return func() tea.Msg {
		if id != uuid.Nil {
			adv, err := startAdventure(client, baseURL, id, theme, size)
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
				return adventureMsg{adventure: adv, err: err}
			}
		}
		adv, err := createAdventure(client, baseURL, theme, size)
		return adventureMsg{adventure: adv, err: err}
	}
}

func (m ConsoleUI) saveCmd(path string) tea.Cmd {
	client, baseURL, id := m.client, m.config.APIBaseURL, m.adventure.ID
	return func() tea.Msg {
		img, err := fetchImage(client, baseURL, id)
		if err != nil {
			return savedMsg{path: path, err: err}
		}
		if err := os.WriteFile(path, img.Data, 0o644); err != nil {
			return savedMsg{path: path, err: fmt.Errorf("failed to write %s: %w", path, err)}
		}
		return savedMsg{path: path, bytes: len(img.Data)}
	}
}

func (m ConsoleUI) selectKeyCmd(apiKey string) tea.Cmd {
	client, baseURL := m.client, m.config.APIBaseURL
	return func() tea.Msg {
		return keySelectedMsg{err: selectKey(client, baseURL, apiKey)}
	}
}

func (m ConsoleUI) loadThemes() tea.Cmd {
	client, baseURL := m.client, m.config.APIBaseURL
	return func() tea.Msg {
		themes, err := listThemes(client, baseURL)
		return themesLoadedMsg{themes: themes, err: err}
	}
}

func (m ConsoleUI) panelWidths() (int, int) {
	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6
	return chatWidth, metaWidth
}

func (m *ConsoleUI) layout() {
	chatWidth, metaWidth := m.panelWidths()
	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 8
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// refresh rebuilds both panels for the current width.
func (m *ConsoleUI) refresh() {
	m.chatViewport.SetContent(m.storyContent())
	m.chatViewport.GotoBottom()
	if m.adventure != nil {
		m.metaViewport.SetContent(writeMetadata(m.adventure, m.metaViewport.Width))
	}
}

func (m ConsoleUI) storyContent() string {
	width := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("CHRONICLE") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	if m.adventure != nil && m.adventure.GameState != nil {
		gs := m.adventure.GameState
		content.WriteString(wordwrap.String(gs.StoryText, width) + "\n\n")

		if gs.IsGameOver {
			content.WriteString(titleStyle.Render("THE END") + "\n")
			content.WriteString(choiceStyle.Render("Return to Origin (/reset)") + "\n\n")
		} else {
			for i, c := range gs.Choices {
				line := wordwrap.String(fmt.Sprintf("%d. %s", i+1, c), width)
				content.WriteString(choiceStyle.Render(line) + "\n")
			}
			content.WriteString("\n")
		}

		if len(m.adventure.Chat) > 0 {
			content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
			for _, msg := range m.adventure.Chat {
				content.WriteString(formatChatMessage(msg, width) + "\n\n")
			}
		}
	}

	if m.loading {
		content.WriteString(loadingStyle.Render(m.loadingLabel) + "\n")
	}
	if m.asking {
		content.WriteString(loadingStyle.Render(askingLabel) + "\n")
	}
	if m.busy() {
		content.WriteString(m.renderProgressBar() + "\n\n")
	}
	if m.err != nil {
		content.WriteString(errorStyle.Render(wordwrap.String("Error: "+m.err.Error(), width)) + "\n\n")
	}
	if m.notice != "" {
		content.WriteString(promptStyle.Render(m.notice) + "\n\n")
	}
	return content.String()
}

func formatChatMessage(msg chat.ChatMessage, width int) string {
	if msg.Role == chat.ChatRoleUser {
		return userStyle.Render("You: ") + wordwrap.String(msg.Content, width-5)
	}
	speaker := AgentName + ": "
	return speakerStyle.Render(speaker) + wordwrap.String(msg.Content, width-len(speaker))
}

func writeMetadata(adv *Adventure, width int) string {
	if width < 10 {
		width = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE") + "\n\n")

	content.WriteString("Theme:\n")
	content.WriteString(wordwrap.String(adv.Theme, width) + "\n\n")

	content.WriteString("Resolution:\n")
	content.WriteString(string(adv.ImageSize) + "\n\n")

	gs := adv.GameState
	if gs == nil {
		content.WriteString(promptStyle.Render("Not started") + "\n")
		return content.String()
	}

	content.WriteString("Turn:\n")
	content.WriteString(fmt.Sprintf("%d\n\n", len(adv.History)))

	content.WriteString("Quest:\n")
	content.WriteString(wordwrap.String(gs.CurrentQuest, width) + "\n\n")

	content.WriteString("Inventory:\n")
	if len(gs.Inventory) == 0 {
		content.WriteString("Empty\n")
	}
	for _, item := range gs.Inventory {
		content.WriteString(wordwrap.String("• "+item, width) + "\n")
	}
	content.WriteString("\n")

	content.WriteString("Scene:\n")
	content.WriteString(promptStyle.Render(wordwrap.String(gs.ImageDescription, width)) + "\n\n")

	content.WriteString("Commands:\n")
	content.WriteString("• 1-9: Choose\n")
	content.WriteString("• /ask: Lore\n")
	content.WriteString("• /save: Image\n")
	content.WriteString("• /help: Help\n")

	return content.String()
}

func (m ConsoleUI) updateThemeModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if key.Type == tea.KeyCtrlC || key.Type == tea.KeyEsc {
		if m.loadingThemes {
			return m, tea.Quit
		}
		m.showQuitModal = true
		return m, nil
	}
	if m.loadingThemes || m.loading || len(m.themes) == 0 {
		return m, nil
	}

	switch key.Type {
	case tea.KeyUp:
		if m.selectedTheme > 0 {
			m.selectedTheme--
		}
	case tea.KeyDown:
		if m.selectedTheme < len(m.themes)-1 {
			m.selectedTheme++
		}
	case tea.KeyLeft:
		if m.selectedSize > 0 {
			m.selectedSize--
		}
	case tea.KeyRight:
		if m.selectedSize < len(m.sizes)-1 {
			m.selectedSize++
		}
	case tea.KeyEnter:
		m.err = nil
		m.notice = ""
		theme := m.themes[m.selectedTheme]
		size := m.sizes[m.selectedSize]
		return m, m.dispatch(weavingLabel, m.startCmd(theme, size))
	}
	return m, nil
}

func (m ConsoleUI) updateKeyModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEsc:
			m.showKeyModal = false
			if !m.loading {
				m.retry = nil
			}
			if !m.asking {
				m.askRetry = nil
			}
			m.keyInput.Blur()
			m.textarea.Focus()
			m.err = errors.New("an API key is required to continue the adventure")
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			apiKey := strings.TrimSpace(m.keyInput.Value())
			if apiKey == "" {
				return m, nil
			}
			return m, m.selectKeyCmd(apiKey)
		}
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
		return m, tea.Quit
	}

	switch key.String() {
	case "y", "Y":
		return m, tea.Quit
	case "n", "N":
		m.showQuitModal = false
		if m.showThemeModal || m.showKeyModal {
			return m, nil
		}
		m.textarea.Focus()
		return m, textarea.Blink
	}
	return m, nil
}

func (m ConsoleUI) renderModal(width int, body string) string {
	modal := modalStyle.Width(width).Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))
	return m.renderModal(50, content.String())
}

func (m ConsoleUI) renderKeyModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Access Required"))
	content.WriteString("\n\n")
	content.WriteString("The Loom needs a valid Gemini API key to continue.")
	content.WriteString("\n\n")
	content.WriteString(m.keyInput.View())
	content.WriteString("\n\n")
	if m.keyErr != nil {
		content.WriteString(errorStyle.Render(m.keyErr.Error()))
		content.WriteString("\n\n")
	}
	content.WriteString(promptStyle.Render("Enter to select, Esc to cancel"))
	return m.renderModal(60, content.String())
}

func (m ConsoleUI) renderThemeModal() string {
	var content strings.Builder

	switch {
	case m.loadingThemes:
		content.WriteString(modalTitleStyle.Render("Loading Themes..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch available themes..."))
	case len(m.themes) == 0:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load themes: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Weaving Your World..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render(m.themes[m.selectedTheme]))
		content.WriteString("\n\n")
		content.WriteString(m.renderProgressBar())
	default:
		content.WriteString(modalTitleStyle.Render("Choose Your Adventure"))
		content.WriteString("\n\n")

		for i, theme := range m.themes {
			if i == m.selectedTheme {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", theme)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", theme)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\nResolution: ")
		for i, size := range m.sizes {
			label := fmt.Sprintf(" %s ", size)
			if i == m.selectedSize {
				content.WriteString(modalSelectedItemStyle.Render(label))
			} else {
				content.WriteString(modalItemStyle.Render(label))
			}
		}
		content.WriteString("\n\n")

		if m.err != nil {
			content.WriteString(errorStyle.Render(wordwrap.String(m.err.Error(), 50)))
			content.WriteString("\n\n")
		}
		content.WriteString(promptStyle.Render("↑/↓ theme, ←/→ resolution, Enter to begin, Ctrl+C to exit"))
	}

	return m.renderModal(60, content.String())
}

func (m ConsoleUI) View() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Initializing..."
	}

	switch {
	case m.showQuitModal:
		return m.renderQuitModal()
	case m.showKeyModal:
		return m.renderKeyModal()
	case m.showThemeModal:
		return m.renderThemeModal()
	}

	chatWidth, metaWidth := m.panelWidths()

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"", // Add empty line for spacing
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if m.showThemeModal {
		usable = 50
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
