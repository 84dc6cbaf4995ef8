package models

import "time"

// WordEmbeddingRow is the persisted form of a word embedding, unique per
// (word, language). Rows are immutable once loaded.
type WordEmbeddingRow struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Word         string      `gorm:"uniqueIndex:idx_word_lang;not null" json:"word"` // lowercased
	Language     string      `gorm:"uniqueIndex:idx_word_lang;not null" json:"language"`
	Vector       FloatVector `gorm:"type:jsonb" json:"vector"`
	Frequency    float64     `json:"frequency"`
	PartOfSpeech string      `json:"part_of_speech,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// TableName specifies the table name for GORM
func (WordEmbeddingRow) TableName() string {
	return "word_embeddings"
}
