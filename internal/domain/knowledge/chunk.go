package knowledge

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// Chunk is one embeddable slice of a source document.
type Chunk struct {
	Content    string `json:"content"`
	SourceFile string `json:"source_file"`
	FileType   string `json:"file_type"`
	Index      int    `json:"chunk_index"`
}

// Split cuts text into overlapping chunks of at most chunkSize runes.
// Consecutive chunks share chunkOverlap runes so statements spanning a
// boundary stay queryable.
func Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var chunks []string
	step := chunkSize - chunkOverlap
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// ChunkDocument splits one named document into indexed chunks.
func ChunkDocument(sourceFile, fileType, content string) []Chunk {
	parts := Split(content)
	chunks := make([]Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, Chunk{
			Content:    p,
			SourceFile: sourceFile,
			FileType:   fileType,
			Index:      i,
		})
	}
	return chunks
}
