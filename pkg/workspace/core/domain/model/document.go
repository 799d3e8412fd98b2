package model

// Typed shapes of the persisted collection documents. The document store works
// on generic maps; repositories convert between these shapes and the stored form.

// TasksDocument is the typed shape of the tasks collection file.
type TasksDocument struct {
	Version int    `json:"version"`
	Tasks   []Task `json:"tasks"`
}

// JournalDocument is the typed shape of the journal collection file.
type JournalDocument struct {
	Version int            `json:"version"`
	Entries []JournalEntry `json:"entries"`
}

// ChatDocument is the typed shape of the chat collection file.
type ChatDocument struct {
	Version  int           `json:"version"`
	Messages []ChatMessage `json:"messages"`
}
