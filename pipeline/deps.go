package pipeline

import (
	"wastemap/capture"
	"wastemap/classify"
	"wastemap/locate"
	"wastemap/store"
)

// Deps are the collaborators a reporting session orchestrates. Every step
// is an asynchronous suspension point; the session owns none of them
// beyond the duration of a call.
type Deps struct {
	Source     capture.Source
	Locator    locate.Provider
	Picker     locate.Picker
	Classifier classify.Classifier
	Store      store.Store
}
