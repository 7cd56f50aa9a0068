// Package http serves the expense dashboard: HTML views, chart JSON and the
// HTMX form handlers.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HX-Trigger event names the page script listens for.
const (
	eventExpensesChanged = "expenses:changed"
	eventFormReset       = "form:reset"
	eventModalClose      = "modal:close"
	eventNotification    = "show-notification"
)

// NotificationType selects the toast style on the page.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// How long each toast stays up, in milliseconds.
var notificationDuration = map[NotificationType]int{
	NotificationSuccess: 3000,
	NotificationError:   5000,
	NotificationWarning: 4000,
	NotificationInfo:    2000,
}

type notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

// HTMXResponse collects the events, headers and body of a reply to an HTMX
// write request. Handlers chain the setters and finish with Write.
type HTMXResponse struct {
	status   int
	events   map[string]any
	header   http.Header
	fragment string
}

func NewHTMXResponse() *HTMXResponse {
	return &HTMXResponse{
		status: http.StatusOK,
		events: map[string]any{},
		header: http.Header{},
	}
}

func (b *HTMXResponse) Status(code int) *HTMXResponse {
	b.status = code
	return b
}

// Trigger queues a client event; a later call with the same name wins.
func (b *HTMXResponse) Trigger(name string, detail any) *HTMXResponse {
	b.events[name] = detail
	return b
}

// TriggerExpensesChanged announces the state version the write produced.
func (b *HTMXResponse) TriggerExpensesChanged(version uint64) *HTMXResponse {
	return b.Trigger(eventExpensesChanged, struct {
		Version uint64 `json:"version"`
	}{version})
}

func (b *HTMXResponse) TriggerFormReset() *HTMXResponse {
	return b.Trigger(eventFormReset, struct{}{})
}

func (b *HTMXResponse) TriggerModalClose() *HTMXResponse {
	return b.Trigger(eventModalClose, struct{}{})
}

func (b *HTMXResponse) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponse {
	return b.Trigger(eventNotification, notification{Type: kind, Message: message, Duration: durationMs})
}

func (b *HTMXResponse) notify(kind NotificationType, message string) *HTMXResponse {
	return b.TriggerNotification(kind, message, notificationDuration[kind])
}

func (b *HTMXResponse) TriggerSuccessNotification(message string) *HTMXResponse {
	return b.notify(NotificationSuccess, message)
}

func (b *HTMXResponse) TriggerErrorNotification(message string) *HTMXResponse {
	return b.notify(NotificationError, message)
}

func (b *HTMXResponse) TriggerWarningNotification(message string) *HTMXResponse {
	return b.notify(NotificationWarning, message)
}

// Redirect sends the browser to url once HTMX has processed the reply.
func (b *HTMXResponse) Redirect(url string) *HTMXResponse {
	return b.Header("HX-Redirect", url)
}

func (b *HTMXResponse) Header(name, value string) *HTMXResponse {
	b.header.Set(name, value)
	return b
}

// Fragment sets an HTML body. The caller is responsible for escaping.
func (b *HTMXResponse) Fragment(html string) *HTMXResponse {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.fragment = html
	return b
}

func (b *HTMXResponse) Write(w http.ResponseWriter) {
	for name, values := range b.header {
		w.Header()[name] = values
	}
	if len(b.events) > 0 {
		if raw, err := json.Marshal(b.events); err == nil {
			w.Header().Set("HX-Trigger", string(raw))
		}
	}
	w.WriteHeader(b.status)
	if b.fragment != "" {
		_, _ = w.Write([]byte(b.fragment))
	}
}

func errorFragment(class, message string) string {
	return `<div class="` + class + `">` + template.HTMLEscapeString(message) + `</div>`
}

// ErrorResponse is a failed write: an error toast plus a small escaped
// fragment for targets that swap the body in.
func ErrorResponse(status int, message string) *HTMXResponse {
	return NewHTMXResponse().
		Status(status).
		TriggerErrorNotification(message).
		Fragment(errorFragment("error", message))
}

// ConflictError answers a duplicate of a write that is still running.
func ConflictError(message string) *HTMXResponse {
	return NewHTMXResponse().
		Status(http.StatusConflict).
		TriggerWarningNotification(message).
		Fragment(errorFragment("warning", message))
}

func BadRequestError(message string) *HTMXResponse {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponse {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *HTMXResponse {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *HTMXResponse {
	return ErrorResponse(http.StatusInternalServerError, message)
}
