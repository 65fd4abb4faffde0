package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for book documents.
//
// Titles use English stemming; author and creator names use the simple
// analyzer so names are not stemmed. Format, language and tag slugs are
// keywords for exact filtering and faceting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields ---

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	authorsFieldMapping := bleve.NewTextFieldMapping()
	authorsFieldMapping.Analyzer = simple.Name
	authorsFieldMapping.Store = true
	authorsFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("authors", authorsFieldMapping)

	creatorFieldMapping := bleve.NewTextFieldMapping()
	creatorFieldMapping.Analyzer = simple.Name
	creatorFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("creator", creatorFieldMapping)

	tagNamesFieldMapping := bleve.NewTextFieldMapping()
	tagNamesFieldMapping.Analyzer = simple.Name
	tagNamesFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tag_names", tagNamesFieldMapping)

	// --- Keyword fields (exact match, facetable) ---

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	formatFieldMapping := bleve.NewTextFieldMapping()
	formatFieldMapping.Analyzer = keyword.Name
	formatFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("format", formatFieldMapping)

	languageFieldMapping := bleve.NewTextFieldMapping()
	languageFieldMapping.Analyzer = keyword.Name
	languageFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("language", languageFieldMapping)

	tagSlugsFieldMapping := bleve.NewTextFieldMapping()
	tagSlugsFieldMapping.Analyzer = keyword.Name
	tagSlugsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tag_slugs", tagSlugsFieldMapping)

	// File path is stored for display only.
	filePathFieldMapping := bleve.NewTextFieldMapping()
	filePathFieldMapping.Index = false
	filePathFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("file_path", filePathFieldMapping)

	// --- Numeric fields (sorting) ---

	addedAtFieldMapping := bleve.NewNumericFieldMapping()
	addedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("added_at", addedAtFieldMapping)

	lastOpenedFieldMapping := bleve.NewNumericFieldMapping()
	lastOpenedFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("last_opened", lastOpenedFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
