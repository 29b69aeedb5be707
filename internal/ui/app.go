package ui

import (
	"context"
	"fmt"
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"emili/internal/models"
	"emili/internal/session"
	"emili/internal/ui/cwidget"
)

const WindowTitle = "EMILI: Emotionally Intelligent Listener"

// FrameSource is what the FER tab displays.
type FrameSource interface {
	FrameReady() <-chan image.Image
	FPS() uint
	Latency() time.Duration
}

type Options struct {
	WindowSize        fyne.Size
	ImageSize         fyne.Size
	UserChatName      string
	AssistantChatName string
	DisplayFPS        uint
}

type ChatApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	opts    Options
	session *session.Session

	tabWidget   *container.AppTabs
	chatDisplay *widget.RichText
	chatScroll  *container.Scroll
	chatInput   *cwidget.ChatInput

	imageLabel   *canvas.Image
	latencyLabel *widget.Label
	fpsLabel     *widget.Label

	// runOnUI schedules fn on the UI goroutine.
	runOnUI func(fn func())
}

func NewChatApp(a fyne.App, sess *session.Session, opts Options) *ChatApp {
	w := a.NewWindow(WindowTitle)
	w.Resize(opts.WindowSize)

	app := &ChatApp{
		fyneApp: a,
		mainWin: w,
		opts:    opts,
		session: sess,
		runOnUI: fyne.Do,
	}

	app.tabWidget = container.NewAppTabs(
		app.initChatTab(),
		app.initFERTab(),
		app.initTranscriptTab(),
	)

	w.SetContent(app.tabWidget)

	return app
}

func (a *ChatApp) Window() fyne.Window { return a.mainWin }

func (a *ChatApp) initChatTab() *container.TabItem {
	a.chatDisplay = widget.NewRichText()
	a.chatDisplay.Wrapping = fyne.TextWrapWord
	a.chatScroll = container.NewVScroll(a.chatDisplay)

	a.chatInput = cwidget.NewChatInput("Type a message and press Enter", a.actOnUserInput)

	content := container.NewBorder(nil, a.chatInput, nil, nil, a.chatScroll)

	return container.NewTabItem("Chat", content)
}

func (a *ChatApp) initFERTab() *container.TabItem {
	a.imageLabel = canvas.NewImageFromImage(nil)
	a.imageLabel.FillMode = canvas.ImageFillContain
	a.imageLabel.SetMinSize(a.opts.ImageSize)

	a.latencyLabel = widget.NewLabel(formatLatency(0))
	a.fpsLabel = widget.NewLabel(formatFPS(0))

	content := container.NewBorder(
		container.NewHBox(a.fpsLabel, widget.NewSeparator(), a.latencyLabel),
		nil, nil, nil,
		a.imageLabel,
	)

	return container.NewTabItem("FER", content)
}

// The transcript view has no content yet.
func (a *ChatApp) initTranscriptTab() *container.TabItem {
	return container.NewTabItem("Transcript", container.NewStack())
}

// actOnUserInput echoes the message locally before handing it to the
// session, so the window stays responsive.
func (a *ChatApp) actOnUserInput(text string) {
	if text == "" {
		return
	}

	a.DisplayNewMessage(models.Message{Role: models.RoleUser, Content: text})
	a.chatInput.Clear()
	a.session.Submit(text)
}

var (
	messageStyle = widget.RichTextStyle{
		ColorName: theme.ColorNameForeground,
		SizeName:  theme.SizeNameSubHeadingText,
	}
	senderStyle = widget.RichTextStyle{
		ColorName: theme.ColorNameForeground,
		SizeName:  theme.SizeNameSubHeadingText,
		Inline:    true,
	}
	assistantStyle = widget.RichTextStyle{
		ColorName: theme.ColorNameSuccess,
		SizeName:  theme.SizeNameSubHeadingText,
	}
)

// DisplayNewMessage appends msg to the chat scrollback. It must run on the
// UI goroutine. Roles other than user and assistant are ignored.
func (a *ChatApp) DisplayNewMessage(msg models.Message) {
	switch msg.Role {
	case models.RoleUser:
		a.chatDisplay.Segments = append(a.chatDisplay.Segments,
			&widget.TextSegment{
				Text:  fmt.Sprintf("%s: %s", a.opts.UserChatName, msg.Content),
				Style: messageStyle,
			},
		)
	case models.RoleAssistant:
		a.chatDisplay.Segments = append(a.chatDisplay.Segments,
			&widget.TextSegment{Text: a.opts.AssistantChatName + ": ", Style: senderStyle},
			&widget.TextSegment{Text: msg.Content, Style: assistantStyle},
		)
	default:
		return
	}

	a.chatDisplay.Refresh()
	a.chatScroll.ScrollToBottom()
}

// DisplayFrame replaces the image on the FER tab. It must run on the UI
// goroutine.
func (a *ChatApp) DisplayFrame(img image.Image) {
	a.imageLabel.Image = img
	a.imageLabel.Refresh()
}

// Attach starts the goroutines that feed worker frames, worker stats and
// inbound session messages to the window until ctx is done.
func (a *ChatApp) Attach(ctx context.Context, src FrameSource) {
	go a.runMessageLoop(ctx)

	if src != nil {
		go a.runPlayerLoop(ctx, src)
		go a.runStatLoop(ctx, src)
	}
}

func (a *ChatApp) runMessageLoop(ctx context.Context) {
	for {
		select {
		case msg := <-a.session.Incoming():
			a.runOnUI(func() {
				a.DisplayNewMessage(msg)
			})
		case <-ctx.Done():
			return
		}
	}
}

func (a *ChatApp) runStatLoop(ctx context.Context, src FrameSource) {
	uiTicker := time.NewTicker(time.Millisecond * 200)
	defer uiTicker.Stop()

	for {
		select {
		case <-uiTicker.C:
			latency, fps := src.Latency(), src.FPS()
			a.runOnUI(func() {
				a.latencyLabel.SetText(formatLatency(latency))
				a.fpsLabel.SetText(formatFPS(fps))
			})
		case <-ctx.Done():
			return
		}
	}
}

func (a *ChatApp) runPlayerLoop(ctx context.Context, src FrameSource) {
	displayFPS := a.opts.DisplayFPS
	if displayFPS == 0 {
		displayFPS = 30
	}
	displayTicker := time.NewTicker(time.Second / time.Duration(displayFPS))
	defer displayTicker.Stop()

	var lastFrame image.Image
	fresh := false

	for {
		select {
		case frame := <-src.FrameReady():
			if frame != nil {
				lastFrame = frame
				fresh = true
			}

		case <-displayTicker.C:
			if fresh {
				frame := lastFrame
				a.runOnUI(func() {
					a.DisplayFrame(frame)
				})
				fresh = false
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *ChatApp) ShowAndRun() {
	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

func formatFPS(v uint) string {
	return fmt.Sprintf("FPS: %d", v)
}

func formatLatency(v time.Duration) string {
	return fmt.Sprintf("Latency: %d ms", v.Milliseconds())
}
