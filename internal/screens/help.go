package screens

import (
	"context"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/form"

	"go.uber.org/zap"
)

const (
	msgContactSent   = "Message sent successfully! We will get back to you soon."
	msgContactFailed = "Failed to send message. Please try again."
)

// Help is the public help screen: a searchable FAQ and the contact form.
type Help struct {
	screen
	api API

	faq     []filter.FAQEntry
	query   string
	sending bool
	contact *form.State[form.ContactForm]
}

func NewHelp(a API, opts ...Option) *Help {
	h := &Help{api: a, faq: filter.DefaultFAQ}
	h.init("help", opts)
	h.contact = form.NewState(context.Background(), form.ContactForm{})
	return h
}

// Mount needs no fetch; it only starts a fresh generation with an empty contact form.
func (h *Help) Mount(ctx context.Context) {
	gen := h.attach()
	h.apply(gen, func() {
		h.loading = false
		h.sending = false
		h.contact.Reset(ctx, form.ContactForm{})
	})
}

func (h *Help) SetQuery(q string) {
	h.mu.Lock()
	h.query = q
	h.mu.Unlock()
}

// FAQ returns the entries matching the query; empty when nothing matches.
func (h *Help) FAQ() []filter.FAQEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return filter.FAQ(h.faq, h.query)
}

func (h *Help) Values() form.ContactForm {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.contact.Values
}

func (h *Help) Change(ctx context.Context, edit func(*form.ContactForm)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.contact.Change(ctx, edit)
}

func (h *Help) Errors() form.Errors {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.contact.Visible()
}

func (h *Help) Sending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sending
}

// Submit sends the contact form; the form is cleared once the message is accepted.
func (h *Help) Submit(ctx context.Context) bool {
	gen := h.token()
	h.mu.Lock()
	ok := !h.sending && h.contact.Submit(ctx)
	in := h.contact.Values.Payload()
	if ok {
		h.sending = true
	}
	h.mu.Unlock()
	if !ok {
		return false
	}

	err := h.api.SubmitContact(ctx, in)
	return h.apply(gen, func() {
		h.sending = false
		if err != nil {
			if !h.contact.MergeServer(err) {
				h.log.Debug(msgContactFailed, zap.Error(err))
				h.notices.Error(msgContactFailed)
			}
			return
		}
		h.notices.Success(msgContactSent)
		h.contact.Reset(ctx, form.ContactForm{})
	}) && err == nil
}
