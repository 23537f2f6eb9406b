package handlers

const (
	// Composition listing
	defaultPageSize = 20
	maxPageSize     = 100

	defaultExportFormat = "midi"
	exportFileBaseName  = "melody"
)
