package contextkeys

type contextKey string

const (
	EditorEmailKey contextKey = "EditorEmail"
	EditorNameKey  contextKey = "EditorName"
)
