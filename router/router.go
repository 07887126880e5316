package router

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/wangArtsoar/tars/apperror"
	"github.com/wangArtsoar/tars/domain"
)

//go:embed templates/index.html
var templates embed.FS

// Visibility reports whether the UI window should be showing.
type Visibility interface {
	Visible() bool
}

type Router struct {
	service *domain.Service
	window  Visibility
	log     *logrus.Entry
}

func New(service *domain.Service, window Visibility, log *logrus.Entry) *Router {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Router{service: service, window: window, log: log.WithField("component", "router")}
}

func (rt *Router) Register() *http.ServeMux {
	r := http.NewServeMux()
	r.HandleFunc("GET /index", rt.handleIndex)
	r.HandleFunc("POST /api/send_message_to_gemini", rt.handleSendMessage)
	r.HandleFunc("POST /api/chat", rt.handleChat)
	r.HandleFunc("GET /api/take_screenshot", rt.handleTakeScreenshot)
	r.HandleFunc("POST /api/screenshot_and_show_window", rt.handleScreenshotAndShow)
	r.HandleFunc("POST /api/send_screenshot_to_gemini", rt.handleSendScreenshot)
	r.HandleFunc("POST /api/toggle_window", rt.handleToggleWindow)
	r.HandleFunc("GET /api/window", rt.handleWindowState)
	r.HandleFunc("POST /api/store_conversation", rt.handleStoreConversation)
	return r
}

type answer struct {
	Response string `json:"response"`
}

func (rt *Router) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Messages []*domain.Content `json:"messages"`
	}
	if !rt.decode(w, r, &in) {
		return
	}
	text, err := rt.service.SendConversation(r.Context(), in.Messages)
	if err != nil {
		rt.fail(w, "send_message_to_gemini", err)
		return
	}
	rt.writeJSON(w, answer{Response: text})
}

func (rt *Router) handleChat(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Context  string            `json:"context"`
		Messages []*domain.Content `json:"messages"`
	}
	if !rt.decode(w, r, &in) {
		return
	}
	text, err := rt.service.Converse(r.Context(), domain.NormalizeContext(in.Context), in.Messages)
	if err != nil {
		rt.fail(w, "chat", err)
		return
	}
	rt.writeJSON(w, answer{Response: text})
}

func (rt *Router) handleTakeScreenshot(w http.ResponseWriter, r *http.Request) {
	pixels, err := rt.service.CaptureOnly(r.Context())
	if err != nil {
		rt.fail(w, "take_screenshot", err)
		return
	}
	rt.writeBytes(w, pixels)
}

func (rt *Router) handleScreenshotAndShow(w http.ResponseWriter, r *http.Request) {
	pixels, err := rt.service.CaptureAndReveal(r.Context())
	if err != nil {
		rt.fail(w, "screenshot_and_show_window", err)
		return
	}
	rt.writeBytes(w, pixels)
}

func (rt *Router) handleSendScreenshot(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Prompt string `json:"prompt"`
	}
	if !rt.decode(w, r, &in) {
		return
	}
	text, err := rt.service.AskAboutScreen(r.Context(), in.Prompt)
	if err != nil {
		rt.fail(w, "send_screenshot_to_gemini", err)
		return
	}
	rt.writeJSON(w, answer{Response: text})
}

func (rt *Router) handleToggleWindow(w http.ResponseWriter, r *http.Request) {
	if err := rt.service.ToggleWindow(r.Context()); err != nil {
		rt.fail(w, "toggle_window", err)
		return
	}
	rt.handleWindowState(w, r)
}

func (rt *Router) handleWindowState(w http.ResponseWriter, _ *http.Request) {
	visible := false
	if rt.window != nil {
		visible = rt.window.Visible()
	}
	rt.writeJSON(w, struct {
		Visible bool `json:"visible"`
	}{visible})
}

func (rt *Router) handleStoreConversation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ConversationData *domain.ConversationData `json:"conversationData"`
	}
	if !rt.decode(w, r, &in) {
		return
	}
	if in.ConversationData == nil {
		http.Error(w, "conversationData field is required", http.StatusBadRequest)
		return
	}
	msg, err := rt.service.StoreConversation(r.Context(), *in.ConversationData)
	if err != nil {
		rt.fail(w, "store_conversation", err)
		return
	}
	rt.writeJSON(w, struct {
		Message string `json:"message"`
	}{msg})
}

// handleIndex 处理首页请求
func (rt *Router) handleIndex(w http.ResponseWriter, _ *http.Request) {
	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		rt.log.WithError(err).Error("failed to parse index template")
		http.Error(w, "Server error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	data := struct {
		Title string
	}{
		Title: "tars",
	}
	if err = tmpl.Execute(w, data); err != nil {
		rt.log.WithError(err).Warn("failed to render index")
	}
}

func (rt *Router) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		http.Error(w, "Request body is empty", http.StatusBadRequest)
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		rt.log.WithError(err).Debug("failed to parse request body")
		http.Error(w, "Invalid JSON format in request body", http.StatusBadRequest)
		return false
	}
	return true
}

// fail flattens err to its message; the UI only ever sees a string.
func (rt *Router) fail(w http.ResponseWriter, command string, err error) {
	status := statusFor(err)
	rt.log.WithFields(logrus.Fields{
		"command": command,
		"kind":    string(apperror.KindOf(err)),
	}).WithError(err).Warn("command failed")
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindTransport, apperror.KindRemoteRejected, apperror.KindMalformedResponse, apperror.KindEmptyResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (rt *Router) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rt.log.WithError(err).Warn("failed to encode response")
	}
}

func (rt *Router) writeBytes(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(b); err != nil {
		rt.log.WithError(err).Warn("failed to write screenshot")
	}
}
