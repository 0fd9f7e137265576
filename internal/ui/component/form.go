package component

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

// FieldType represents the type of form field
type FieldType int

const (
	FieldTypeText FieldType = iota
	FieldTypeNumber
	FieldTypeSelect
)

// FormField represents a single form field
type FormField struct {
	Name        string
	Label       string
	Type        FieldType
	Value       string
	Options     []string // For select fields
	Placeholder string
	Error       string

	textInput   textinput.Model
	selectedIdx int
}

// Form is a single-column list of labelled inputs, one per line.
type Form struct {
	fields     []FormField
	focusIndex int
	width      int
	labelWidth int

	labelStyle   lipgloss.Style
	focusedLabel lipgloss.Style
	inputStyle   lipgloss.Style
	selectStyle  lipgloss.Style
	errorStyle   lipgloss.Style
}

// NewForm creates a new form component
func NewForm() *Form {
	palette := style.DefaultPalette()

	return &Form{
		labelWidth: 18,

		labelStyle: lipgloss.NewStyle().
			Foreground(palette.TextSecondary),

		focusedLabel: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true),

		inputStyle: lipgloss.NewStyle().
			Foreground(palette.Text),

		selectStyle: lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true),

		errorStyle: lipgloss.NewStyle().
			Foreground(palette.Error),
	}
}

// AddField adds a field to the form
func (f *Form) AddField(name string, fieldType FieldType, label, placeholder string) *Form {
	ti := textinput.New()
	ti.Width = 20
	ti.Prompt = ""
	ti.Placeholder = placeholder
	if fieldType == FieldTypeNumber {
		ti.CharLimit = 24
		if placeholder == "" {
			ti.Placeholder = "0"
		}
	}

	f.fields = append(f.fields, FormField{
		Name:        name,
		Label:       label,
		Type:        fieldType,
		Placeholder: placeholder,
		textInput:   ti,
	})

	if len(f.fields) == 1 {
		f.focus(0)
	}
	return f
}

// AddSelect adds a select field cycling through options
func (f *Form) AddSelect(name, label string, options []string) *Form {
	f.AddField(name, FieldTypeSelect, label, "")
	return f.SetFieldOptions(name, options)
}

func (f *Form) field(name string) *FormField {
	for i := range f.fields {
		if f.fields[i].Name == name {
			return &f.fields[i]
		}
	}
	return nil
}

// SetFieldValue sets the value of a field. For select fields the value must
// be one of the options; unknown values are ignored.
func (f *Form) SetFieldValue(name, value string) *Form {
	field := f.field(name)
	if field == nil {
		return f
	}
	if field.Type == FieldTypeSelect {
		for i, opt := range field.Options {
			if opt == value {
				field.selectedIdx = i
				field.Value = value
			}
		}
		return f
	}
	field.Value = value
	field.textInput.SetValue(value)
	return f
}

// SetFieldOptions sets options for select fields
func (f *Form) SetFieldOptions(name string, options []string) *Form {
	field := f.field(name)
	if field == nil || field.Type != FieldTypeSelect {
		return f
	}
	field.Options = options
	field.selectedIdx = 0
	if len(options) > 0 {
		field.Value = options[0]
	}
	return f
}

// SetError attaches a validation message to a field; an empty message clears it.
func (f *Form) SetError(name, msg string) *Form {
	if field := f.field(name); field != nil {
		field.Error = msg
	}
	return f
}

// ClearErrors removes every field error
func (f *Form) ClearErrors() {
	for i := range f.fields {
		f.fields[i].Error = ""
	}
}

// SetWidth sets the form width
func (f *Form) SetWidth(width int) *Form {
	f.width = width
	inputWidth := width - f.labelWidth - 4
	if inputWidth > 10 {
		for i := range f.fields {
			f.fields[i].textInput.Width = inputWidth
		}
	}
	return f
}

// Init initializes the form
func (f *Form) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles form input. The returned bool reports whether any value changed.
func (f *Form) Update(msg tea.Msg) (*Form, tea.Cmd, bool) {
	if len(f.fields) == 0 {
		return f, nil, false
	}

	field := &f.fields[f.focusIndex]
	before := field.Value

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab", "enter", "down":
			f.nextField()
			return f, nil, false
		case "shift+tab", "up":
			f.prevField()
			return f, nil, false
		case "left":
			if field.Type == FieldTypeSelect {
				f.cycleSelect(-1)
				return f, nil, field.Value != before
			}
		case "right", " ":
			if field.Type == FieldTypeSelect {
				f.cycleSelect(1)
				return f, nil, field.Value != before
			}
		}
	}

	if field.Type == FieldTypeSelect {
		return f, nil, false
	}

	var cmd tea.Cmd
	field.textInput, cmd = field.textInput.Update(msg)
	field.Value = field.textInput.Value()
	changed := field.Value != before
	if changed {
		field.Error = ""
	}
	return f, cmd, changed
}

// View renders the form
func (f *Form) View() string {
	if len(f.fields) == 0 {
		return "No fields defined"
	}

	var content strings.Builder
	for i, field := range f.fields {
		focused := i == f.focusIndex

		labelStyle := f.labelStyle
		marker := "  "
		if focused {
			labelStyle = f.focusedLabel
			marker = "▸ "
		}
		content.WriteString(labelStyle.Render(marker + padRight(field.Label, f.labelWidth)))

		switch field.Type {
		case FieldTypeSelect:
			text := field.Value
			if focused {
				text = "◂ " + text + " ▸"
			}
			content.WriteString(f.selectStyle.Render(text))
		default:
			content.WriteString(f.inputStyle.Render(field.textInput.View()))
		}

		if field.Error != "" {
			content.WriteString(" " + f.errorStyle.Render("⚠ "+field.Error))
		}
		if i < len(f.fields)-1 {
			content.WriteString("\n")
		}
	}
	return content.String()
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func (f *Form) focus(i int) {
	f.fields[f.focusIndex].textInput.Blur()
	f.focusIndex = i
	if f.fields[i].Type != FieldTypeSelect {
		f.fields[i].textInput.Focus()
	}
}

func (f *Form) nextField() {
	f.focus((f.focusIndex + 1) % len(f.fields))
}

func (f *Form) prevField() {
	i := f.focusIndex - 1
	if i < 0 {
		i = len(f.fields) - 1
	}
	f.focus(i)
}

func (f *Form) cycleSelect(step int) {
	field := &f.fields[f.focusIndex]
	n := len(field.Options)
	if n == 0 {
		return
	}
	field.selectedIdx = ((field.selectedIdx+step)%n + n) % n
	field.Value = field.Options[field.selectedIdx]
}

// GetValue returns the trimmed value of a field
func (f *Form) GetValue(name string) string {
	if field := f.field(name); field != nil {
		return strings.TrimSpace(field.Value)
	}
	return ""
}

// GetFloat parses a number field. Empty input reads as 0; a parse failure
// is recorded on the field and returned.
func (f *Form) GetFloat(name string) (float64, error) {
	s := f.GetValue(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		f.SetError(name, "not a number")
		return 0, fmt.Errorf("%s: %q is not a number", name, s)
	}
	return v, nil
}

// GetInt parses an integer field the same way as GetFloat
func (f *Form) GetInt(name string) (int, error) {
	s := f.GetValue(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f.SetError(name, "not an integer")
		return 0, fmt.Errorf("%s: %q is not an integer", name, s)
	}
	return v, nil
}

// Focused returns the name of the focused field
func (f *Form) Focused() string {
	if len(f.fields) == 0 {
		return ""
	}
	return f.fields[f.focusIndex].Name
}

// Len returns the number of fields
func (f *Form) Len() int {
	return len(f.fields)
}
