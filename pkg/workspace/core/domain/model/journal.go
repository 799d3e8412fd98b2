package model

import "time"

// JournalEntry represents one dated journal record. There is at most one entry
// per calendar date; the date doubles as the entry's identity.
type JournalEntry struct {
	Date      string    `json:"date"` // Date in YYYY-MM-DD form; unique within the journal.
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewJournalEntry creates a new JournalEntry for the given date.
// date: The entry date in YYYY-MM-DD form.
// content: The journal text.
// mood: An optional mood label. May be empty.
// Returns: A pointer to the new JournalEntry instance.
func NewJournalEntry(date, content, mood string) *JournalEntry {
	return &JournalEntry{
		Date:      date,
		Content:   content,
		Mood:      mood,
		UpdatedAt: time.Now(),
	}
}

// Replace overwrites the entry's content and mood wholesale and refreshes
// UpdatedAt. An empty mood clears any previous mood.
func (j *JournalEntry) Replace(content, mood string) {
	j.Content = content
	j.Mood = mood
	j.UpdatedAt = time.Now()
}

// ApplyPatch merges the provided fields into the entry, leaving fields whose
// arguments are empty untouched, and refreshes UpdatedAt.
func (j *JournalEntry) ApplyPatch(content, mood string) {
	if content != "" {
		j.Content = content
	}
	if mood != "" {
		j.Mood = mood
	}
	j.UpdatedAt = time.Now()
}
