package domain

// ProcessingResult is the synchronous outcome of processing one file.
type ProcessingResult struct {
	Filename   string `json:"filename"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	SavedCount int    `json:"saved_count"`

	// Extended counters for job status reporting.
	Processed  int   `json:"processed"`
	Duplicates int   `json:"duplicates"`
	UploadID   int64 `json:"upload_id,omitempty"`
}

func Succeeded(filename string, processed, saved, duplicates int, uploadID int64) *ProcessingResult {
	return &ProcessingResult{
		Filename:   filename,
		Success:    true,
		Message:    "file processed successfully",
		SavedCount: saved,
		Processed:  processed,
		Duplicates: duplicates,
		UploadID:   uploadID,
	}
}

// DuplicateFile is a normal outcome, not an error: the same content was
// already accepted, so no new records are produced.
func DuplicateFile(filename string) *ProcessingResult {
	return &ProcessingResult{
		Filename: filename,
		Success:  false,
		Message:  "file has already been processed",
	}
}

func Failed(filename, message string) *ProcessingResult {
	return &ProcessingResult{
		Filename: filename,
		Success:  false,
		Message:  message,
	}
}
