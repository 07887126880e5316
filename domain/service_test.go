package domain

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"net/http"
	"strings"
	"testing"

	"github.com/wangArtsoar/tars/apperror"
	"github.com/wangArtsoar/tars/capture"
	"github.com/wangArtsoar/tars/domain/persistence"
	"github.com/wangArtsoar/tars/gemini_util"
	"github.com/wangArtsoar/tars/window"
)

type stubDisplay struct{ shade uint8 }

func (d *stubDisplay) Bounds() image.Rectangle { return image.Rect(0, 0, 4, 3) }

func (d *stubDisplay) Capture() (*image.RGBA, error) {
	img := image.NewRGBA(d.Bounds())
	for i := range img.Pix {
		img.Pix[i] = d.shade
	}
	img.SetRGBA(0, 0, color.RGBA{A: 255})
	d.shade++
	return img, nil
}

type stubSource struct{ displays []capture.Display }

func (s stubSource) Displays() ([]capture.Display, error) { return s.displays, nil }

func screenWith(displays ...capture.Display) *capture.Capturer {
	return capture.New(stubSource{displays: displays}, nil)
}

type memoryStore struct {
	records []*persistence.Conversation
	err     error
}

func (m *memoryStore) Put(_ context.Context, c *persistence.Conversation) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, c)
	return nil
}

func (m *memoryStore) Close() error { return nil }

func TestAskAboutScreenBuildsTextAndPNG(t *testing.T) {
	stub := newGeminiStub(t, http.StatusOK, okAnswer)
	svc := NewService(stub.client("k"), screenWith(&stubDisplay{}), window.Headless(), nil, nil)

	got, err := svc.AskAboutScreen(context.Background(), "what is this?")
	if err != nil {
		t.Fatalf("AskAboutScreen: %v", err)
	}
	if got != "first" {
		t.Fatalf("answer = %q", got)
	}

	sent := stub.body(t)
	if len(sent.Contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(sent.Contents))
	}
	msg := sent.Contents[0]
	if msg.Role != RoleUser || len(msg.Parts) != 2 {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Parts[0].Text != "what is this?" || msg.Parts[0].InlineData != nil {
		t.Fatalf("part 0 = %+v", msg.Parts[0])
	}
	img := msg.Parts[1].InlineData
	if img == nil || img.MimeType != "image/png" || msg.Parts[1].Text != "" {
		t.Fatalf("part 1 = %+v", msg.Parts[1])
	}
	decoded, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	if !bytes.HasPrefix(decoded, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}) {
		t.Fatal("image data is not a PNG")
	}
}

func TestNoDisplayFailsAllCaptureOperations(t *testing.T) {
	stub := newGeminiStub(t, http.StatusOK, okAnswer)
	win := window.Headless()
	svc := NewService(stub.client("k"), screenWith(), win, nil, nil)
	ctx := context.Background()

	_, errOnly := svc.CaptureOnly(ctx)
	_, errReveal := svc.CaptureAndReveal(ctx)
	_, errAsk := svc.AskAboutScreen(ctx, "hello")

	for name, err := range map[string]error{"captureOnly": errOnly, "captureAndReveal": errReveal, "askAboutScreen": errAsk} {
		if !apperror.Is(err, apperror.KindNoDisplay) {
			t.Errorf("%s err = %v, want no display", name, err)
		}
	}
	if n := stub.requests.Load(); n != 0 {
		t.Fatalf("requests = %d, want 0", n)
	}
	if win.Visible() {
		t.Fatal("window toggled despite capture failure")
	}
}

func TestMissingCredentialFailsBeforeRequest(t *testing.T) {
	stub := newGeminiStub(t, http.StatusOK, okAnswer)
	svc := NewService(stub.client(""), screenWith(&stubDisplay{}), window.Headless(), nil, nil)
	ctx := context.Background()

	_, errSend := svc.SendConversation(ctx, []*Content{{Role: RoleUser, Parts: []*Part{TextPart("hi")}}})
	_, errAsk := svc.AskAboutScreen(ctx, "hi")
	if !apperror.Is(errSend, apperror.KindMissingCredential) || !apperror.Is(errAsk, apperror.KindMissingCredential) {
		t.Fatalf("errs = %v / %v", errSend, errAsk)
	}
	if n := stub.requests.Load(); n != 0 {
		t.Fatalf("requests = %d, want 0", n)
	}
}

func TestCaptureAndRevealToggles(t *testing.T) {
	win := window.Headless()
	svc := NewService(nil, screenWith(&stubDisplay{shade: 1}), win, nil, nil)
	ctx := context.Background()

	first, err := svc.CaptureAndReveal(ctx)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if !win.Visible() {
		t.Fatal("window should be visible after first call")
	}

	second, err := svc.CaptureAndReveal(ctx)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if win.Visible() {
		t.Fatal("window should be hidden after second call")
	}

	if len(first) != 4*3*4 || len(second) != 4*3*4 {
		t.Fatalf("payload sizes = %d, %d", len(first), len(second))
	}
	if bytes.Equal(first, second) {
		t.Fatal("second call should return a fresh capture")
	}
}

func TestCaptureAndRevealToggleFailure(t *testing.T) {
	win := window.NewBrowser("http://localhost:1/index", func(string) error { return errors.New("no browser") }, nil)
	svc := NewService(nil, screenWith(&stubDisplay{}), win, nil, nil)

	if _, err := svc.CaptureAndReveal(context.Background()); err == nil {
		t.Fatal("expected toggle error")
	}
}

func TestConversePrependsPersona(t *testing.T) {
	stub := newGeminiStub(t, http.StatusOK, okAnswer)
	svc := NewService(stub.client("k"), nil, nil, nil, nil)

	history := []*Content{
		{Role: RoleUser, Parts: []*Part{TextPart("hello")}},
		{Role: RoleAssistantAlias, Parts: []*Part{TextPart("hi there")}},
		{Role: RoleUser, Parts: []*Part{TextPart("rewrite this")}},
	}
	if _, err := svc.Converse(context.Background(), "the clipboard", history); err != nil {
		t.Fatalf("Converse: %v", err)
	}

	sent := stub.body(t)
	if len(sent.Contents) != 4 {
		t.Fatalf("contents = %d, want 4", len(sent.Contents))
	}
	if sent.Contents[0].Role != RoleModel || !strings.Contains(sent.Contents[0].Parts[0].Text, "the clipboard") {
		t.Fatalf("instruction = %+v", sent.Contents[0])
	}
	if sent.Contents[2].Role != RoleModel {
		t.Fatalf("alias not mapped: %q", sent.Contents[2].Role)
	}
	if sent.Contents[3].Parts[0].Text != "rewrite this" {
		t.Fatalf("order broken: %+v", sent.Contents[3])
	}
	if history[1].Role != RoleAssistantAlias {
		t.Fatal("caller history was mutated")
	}
}

func TestStoreConversationDistinctIDs(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(nil, nil, nil, store, nil)
	data := ConversationData{
		Question:  "q",
		Response:  "r",
		Context:   "c",
		Timestamp: "2025-06-20T10:00:00Z",
		Mode:      persistence.ModeClipboard,
	}

	first, err := svc.StoreConversation(context.Background(), data)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.StoreConversation(context.Background(), data)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if len(store.records) != 2 {
		t.Fatalf("records = %d", len(store.records))
	}
	a, b := store.records[0], store.records[1]
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids = %q, %q", a.ID, b.ID)
	}
	if !strings.HasSuffix(first, a.ID) || !strings.HasSuffix(second, b.ID) {
		t.Fatalf("confirmations = %q, %q", first, second)
	}
	if a.Question != "q" || a.Context != "c" || a.Mode != persistence.ModeClipboard {
		t.Fatalf("record = %+v", a)
	}
}

func TestStoreConversationFailures(t *testing.T) {
	ctx := context.Background()

	svc := NewService(nil, nil, nil, nil, nil)
	if _, err := svc.StoreConversation(ctx, ConversationData{}); !apperror.Is(err, apperror.KindPersistenceFailed) {
		t.Fatalf("no store err = %v", err)
	}

	svc = NewService(nil, nil, nil, &memoryStore{err: errors.New("disk full")}, nil)
	_, err := svc.StoreConversation(ctx, ConversationData{})
	if !apperror.Is(err, apperror.KindPersistenceFailed) || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("put err = %v", err)
	}
}

func TestStoreConversationSealsContext(t *testing.T) {
	sealer, err := gemini_util.NewSealer("0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	store := &memoryStore{}
	svc := NewService(nil, nil, nil, store, nil, WithSealer(sealer), WithIDGenerator(func() string { return "fixed" }))

	msg, err := svc.StoreConversation(context.Background(), ConversationData{Context: "secret clipboard"})
	if err != nil {
		t.Fatalf("StoreConversation: %v", err)
	}
	if msg != "Conversation stored successfully with ID: fixed" {
		t.Fatalf("confirmation = %q", msg)
	}
	stored := store.records[0].Context
	if stored == "secret clipboard" {
		t.Fatal("context stored in clear")
	}
	plain, err := sealer.Open(stored)
	if err != nil || plain != "secret clipboard" {
		t.Fatalf("Open = %q, %v", plain, err)
	}
}
