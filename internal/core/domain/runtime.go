package domain

// Capabilities is a point-in-time view of the model backends the process can use
type Capabilities struct {
	// Backend is the coordination store for sessions, locks and the task queue
	Backend    string `json:"backend"`
	Embedding  bool   `json:"embedding"`
	Generation bool   `json:"generation"`
}

// CanIngest reports whether documents can be embedded into the indexes
func (c Capabilities) CanIngest() bool {
	return c.Embedding
}

// CanAnswer reports whether chat questions can be answered
func (c Capabilities) CanAnswer() bool {
	return c.Embedding && c.Generation
}

// Missing lists the model backends that are not configured
func (c Capabilities) Missing() []string {
	var missing []string
	if !c.Embedding {
		missing = append(missing, "embedding")
	}
	if !c.Generation {
		missing = append(missing, "llm")
	}
	return missing
}
