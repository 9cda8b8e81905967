package config

// NSQ topics used by the ingestion pipeline.
const (
	// TopicDocumentProcess carries "a document is waiting to be processed" tasks.
	TopicDocumentProcess = "document.process"
)
