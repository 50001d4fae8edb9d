package library

import "github.com/sirupsen/logrus"

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a user-facing outcome message, one per mutation.
type Notification struct {
	Title       string
	Description string
	Variant     Variant
}

type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier reports notifications through logrus: successes at info,
// destructive ones at error.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Notify(note Notification) {
	entry := n.Log.WithField("title", note.Title)
	if note.Variant == VariantDestructive {
		entry.Error(note.Description)
		return
	}
	entry.Info(note.Description)
}

func success(desc string) Notification {
	return Notification{Title: "Success", Description: desc, Variant: VariantDefault}
}

func failure(desc string) Notification {
	return Notification{Title: "Error", Description: desc, Variant: VariantDestructive}
}
