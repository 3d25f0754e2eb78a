package router

// ChatType selects the answering strategy for a request. The wire values are
// the long labels the frontend sends; internally every comparison goes
// through the closed enum so an unrecognized label cannot reach a strategy.
type ChatType int

const (
	ChatTypeUnknown ChatType = iota
	ChatTypeStoredSql
	ChatTypeUploadedTabularSql
	ChatTypeStoredTabularSql
	ChatTypeRag
)

const (
	labelStoredSql          = "Q&A with stored SQL-DB"
	labelUploadedTabularSql = "Q&A with Uploaded CSV/XLSX SQL-DB"
	labelStoredTabularSql   = "Q&A with stored CSV/XLSX SQL-DB"
	labelRag                = "RAG with stored CSV/XLSX ChromaDB"
)

// ParseChatType maps a wire label to a ChatType. Unrecognized labels map to
// ChatTypeUnknown, never an error.
func ParseChatType(label string) ChatType {
	switch label {
	case labelStoredSql:
		return ChatTypeStoredSql
	case labelUploadedTabularSql:
		return ChatTypeUploadedTabularSql
	case labelStoredTabularSql:
		return ChatTypeStoredTabularSql
	case labelRag:
		return ChatTypeRag
	default:
		return ChatTypeUnknown
	}
}

func (t ChatType) String() string {
	switch t {
	case ChatTypeStoredSql:
		return labelStoredSql
	case ChatTypeUploadedTabularSql:
		return labelUploadedTabularSql
	case ChatTypeStoredTabularSql:
		return labelStoredTabularSql
	case ChatTypeRag:
		return labelRag
	default:
		return "unknown"
	}
}

// ChatTypeLabels lists the wire labels the frontend may send, in display
// order.
func ChatTypeLabels() []string {
	return []string{
		labelStoredSql,
		labelUploadedTabularSql,
		labelStoredTabularSql,
		labelRag,
	}
}
