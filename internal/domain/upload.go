package domain

import "time"

// Upload records one accepted source file. The content hash is unique, so a
// file is ever accepted once; resubmissions are reported as duplicates.
type Upload struct {
	ID          int64     `db:"id"           json:"id"`
	ContentHash string    `db:"content_hash" json:"content_hash"`
	Filename    string    `db:"filename"     json:"filename"`
	UploadDate  time.Time `db:"upload_date"  json:"upload_date"`
	Bank        string    `db:"bank"         json:"bank"`
}
