package cwidget

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// ChatInput is a single-line entry with a send button. Pressing enter or
// the button calls OnSubmitted with the current text, unless it is empty.
type ChatInput struct {
	widget.BaseWidget

	entryWidget  *widget.Entry
	buttonWidget *widget.Button

	Placeholder string

	OnSubmitted func(string)
}

func NewChatInput(placeholder string, onSubmitted func(string)) *ChatInput {
	input := &ChatInput{
		Placeholder: placeholder,
		OnSubmitted: onSubmitted,
	}

	input.entryWidget = widget.NewEntry()
	input.entryWidget.SetPlaceHolder(placeholder)
	input.entryWidget.OnSubmitted = func(string) {
		input.Submit()
	}

	input.buttonWidget = widget.NewButtonWithIcon("", theme.MailSendIcon(), input.Submit)
	input.buttonWidget.Importance = widget.HighImportance

	input.ExtendBaseWidget(input)

	return input
}

func (item *ChatInput) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewBorder(nil, nil, nil, item.buttonWidget, item.entryWidget)

	return widget.NewSimpleRenderer(c)
}

func (item *ChatInput) Submit() {
	text := item.entryWidget.Text
	if text == "" || item.OnSubmitted == nil {
		return
	}
	item.OnSubmitted(text)
}

func (item *ChatInput) Text() string {
	return item.entryWidget.Text
}

func (item *ChatInput) SetText(text string) {
	item.entryWidget.SetText(text)
}

func (item *ChatInput) Clear() {
	item.entryWidget.SetText("")
}

func (item *ChatInput) Entry() *widget.Entry {
	return item.entryWidget
}
