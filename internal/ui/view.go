package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vicoolz/palimpseste/internal/state"
	"github.com/vicoolz/palimpseste/internal/tree"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Chargement..."
	}
	if m.fatal != nil {
		return RenderFatal(m.theme, m.fatal, m.width, m.height)
	}

	styles := m.theme.Styles()
	header := m.renderHeader(styles)
	footer := m.renderFooter(styles)
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	mainWidth := m.width
	var panel string
	if state.PanelOpen(m.snap) {
		panel = styles.Panel.Height(bodyHeight).Render(m.journal.View())
		mainWidth = max(m.width-lipgloss.Width(panel), 20)
	}

	var body string
	if currentView(m.snap) == viewPath {
		body = m.renderPath(styles, mainWidth)
	} else {
		body = m.renderReader(styles, mainWidth)
	}
	body = lipgloss.Place(mainWidth, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	if panel != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, panel)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader(styles Styles) string {
	left := styles.Title.Render("Palimpseste")

	who := styles.FaintText.Render("anonyme")
	if state.IsAuthenticated(m.snap) {
		user, _ := state.User(m.snap)
		name, _ := user["email"].(string)
		if name == "" {
			name, _ = user["id"].(string)
		}
		who = styles.AccentText.Render(name)
	}
	stats := fmt.Sprintf("lectures %d · ♥ %d · succès %d",
		state.ReadCount(m.snap), state.Likes(m.snap).Len(), len(state.Achievements(m.snap)))
	if genres := genreFilter(m.snap); genres.Len() > 0 {
		stats += " · filtre " + strings.Join(genres.Values(), ", ")
	}
	right := styles.MutedText.Render(stats) + "  " + who

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return styles.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderFooter(styles Styles) string {
	if msg, kind, ok := state.Toast(m.snap); ok && m.toastFresh() {
		style := styles.InfoText
		switch kind {
		case "success":
			style = styles.SuccessText
		case "error":
			style = styles.DangerText
		case "warning":
			style = styles.WarningText
		}
		return styles.Footer.Width(m.width).Render(style.Render(msg))
	}
	return styles.Footer.Width(m.width).Render(m.help.View(m.keys))
}

func (m Model) toastFresh() bool {
	v, _ := tree.Lookup(m.snap, state.KeyUI+".toast.at")
	at := state.IntOf(v)
	return at == 0 || m.now().Sub(time.UnixMilli(int64(at))) < toastLifetime
}

func (m Model) renderReader(styles Styles, width int) string {
	cur, ok := state.CurrentText(m.snap)
	if !ok {
		if m.booting || state.Loading(m.snap) {
			return styles.MutedText.Render("Chargement de la bibliothèque…")
		}
		return styles.MutedText.Render("Aucun texte disponible.")
	}
	return renderText(styles, cur, state.Likes(m.snap).Has(str(cur["id"])), min(width-4, 72))
}

func renderText(styles Styles, text tree.Tree, liked bool, width int) string {
	var b strings.Builder
	title := styles.Title.Render(str(text["title"]))
	if liked {
		title += " " + styles.DangerText.Render("♥")
	}
	b.WriteString(title)
	b.WriteString("\n")

	byline := str(text["author"])
	if year := state.IntOf(text["year"]); year > 0 {
		byline = fmt.Sprintf("%s, %d", byline, year)
	}
	b.WriteString(styles.MutedText.Render(byline))
	if genre := str(text["genre"]); genre != "" {
		b.WriteString("  ")
		b.WriteString(styles.GenreStyle(genre).Render(genre))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Width(max(width-6, 10)).Render(str(text["body"])))

	return styles.Page.Render(b.String())
}

func (m Model) renderPath(styles Styles, width int) string {
	titles := make(map[string]string)
	for _, t := range state.TextPool(m.snap) {
		titles[str(t["id"])] = fmt.Sprintf("%s (%s)", str(t["title"]), str(t["author"]))
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("Parcours de lecture"))
	b.WriteString("\n\n")
	path := state.ReadingPath(m.snap)
	if len(path) == 0 {
		b.WriteString(styles.FaintText.Render("Rien lu pour l'instant."))
	}
	for i, id := range path {
		label := titles[id]
		if label == "" {
			label = id
		}
		fmt.Fprintf(&b, "%s %s\n", styles.AccentText.Render(fmt.Sprintf("%d.", i+1)), styles.Text.Render(label))
	}
	return styles.Page.Width(min(width-4, 72)).Render(strings.TrimRight(b.String(), "\n"))
}

// RenderFatal draws the error screen shown when startup cannot proceed.
func RenderFatal(theme Theme, err error, width, height int) string {
	styles := theme.Styles()
	box := styles.Page.
		BorderForeground(lipgloss.Color(theme.Danger)).
		Render(strings.Join([]string{
			styles.DangerText.Render("Impossible de démarrer Palimpseste"),
			"",
			styles.Text.Render(err.Error()),
			"",
			styles.FaintText.Render("q pour quitter"),
		}, "\n"))
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
